// Package huggingface implements the provider adapter for the HuggingFace
// hosted inference API. Unlike the structured-message providers this is a
// raw-text completion endpoint: history is serialized into one prompt with
// chat-markup role tags, and the raw output needs the echoed prompt and any
// role tokens stripped back out.
package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

const defaultBaseURL = "https://api-inference.huggingface.co"

// roleTagPattern matches <|user|> style role delimiters in model output.
var roleTagPattern = regexp.MustCompile(`<\|.*?\|>`)

// Adapter talks to the hosted inference endpoint for a given model.
// Authentication is a bearer token. Hosted models cold-start, so Send
// issues a cheap priming call with wait_for_model before the real request;
// a priming failure is treated the same as a main-call failure.
type Adapter struct {
	creds   *credentials.Store
	baseURL string
	client  *http.Client
	priming bool
}

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithoutPriming disables the model warm-up call.
func WithoutPriming() Option {
	return func(a *Adapter) { a.priming = false }
}

// New creates a HuggingFace adapter reading its key from creds.
func New(creds *credentials.Store, opts ...Option) *Adapter {
	a := &Adapter{
		creds:   creds,
		baseURL: defaultBaseURL,
		client:  ai.NewHTTPClient(),
		priming: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Kind returns the provider kind this adapter handles.
func (a *Adapter) Kind() chat.ProviderKind {
	return chat.ProviderHuggingFace
}

type parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
	DoSample       bool    `json:"do_sample"`
}

type options struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
	UseCache     bool `json:"use_cache"`
}

type inferenceRequest struct {
	Inputs     string      `json:"inputs"`
	Parameters *parameters `json:"parameters,omitempty"`
	Options    options     `json:"options"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

// BuildPrompt serializes history plus the new message into a single prompt
// using <|role|> delimiters, ending with a cue for the next assistant turn.
func BuildPrompt(message string, history []ai.Turn) string {
	tail := "<|user|>\n" + message + "</s>\n<|assistant|>"
	if len(history) == 0 {
		return tail
	}

	parts := make([]string, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case ai.RoleSystem:
			parts = append(parts, "<|system|>\n"+turn.Content+"</s>")
		case ai.RoleAssistant:
			parts = append(parts, "<|assistant|>\n"+turn.Content+"</s>")
		default:
			parts = append(parts, "<|user|>\n"+turn.Content+"</s>")
		}
	}
	return strings.Join(parts, "\n") + "\n" + tail
}

// CleanOutput strips the echoed prompt prefix, role-delimiter tokens and
// end-of-sequence markers from raw model output.
func CleanOutput(raw, prompt string) string {
	cleaned := strings.Replace(raw, prompt, "", 1)
	cleaned = roleTagPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "</s>", "")
	return strings.TrimSpace(cleaned)
}

// modelPath escapes a model id per path segment. Hosted models are
// addressed as org/name, so the slash itself must survive.
func modelPath(model string) string {
	segments := strings.Split(model, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// extractText handles the three response shapes the inference API produces:
// an array of generation objects, a bare JSON string, or a single
// generation object.
func extractText(body []byte) (string, bool) {
	var list []generation
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", false
		}
		return list[0].GeneratedText, true
	}

	var plain string
	if err := json.Unmarshal(body, &plain); err == nil {
		return plain, true
	}

	var single generation
	if err := json.Unmarshal(body, &single); err == nil {
		return single.GeneratedText, true
	}

	return "", false
}

// Send serializes the conversation into a tagged prompt, primes the hosted
// model, invokes inference and post-processes the generated text.
func (a *Adapter) Send(ctx context.Context, message string, participant chat.Participant, history []ai.Turn) (string, error) {
	key, ok := a.creds.Get(a.Kind())
	if !ok {
		return "", ai.NewMissingCredential(a.Kind())
	}

	model := participant.Model
	if model == "" {
		model = chat.DefaultModel(a.Kind())
	}
	params := participant.Params.WithDefaults()

	headers := map[string]string{
		"Authorization": "Bearer " + key,
	}
	endpoint := a.baseURL + "/models/" + modelPath(model)

	if a.priming {
		warmup := inferenceRequest{
			Inputs:  "Hello",
			Options: options{WaitForModel: true, UseCache: false},
		}
		if _, err := ai.PostJSON(ctx, a.client, a, endpoint, headers, warmup); err != nil {
			log.Debug().Err(err).Str("model", model).Msg("HuggingFace warm-up failed")
			return "", err
		}
	}

	prompt := BuildPrompt(message, history)
	payload := inferenceRequest{
		Inputs: prompt,
		Parameters: &parameters{
			MaxNewTokens:   params.MaxTokens,
			Temperature:    params.Temperature,
			TopP:           params.TopP,
			ReturnFullText: false,
			DoSample:       true,
		},
		Options: options{UseCache: false},
	}

	body, err := ai.PostJSON(ctx, a.client, a, endpoint, headers, payload)
	if err != nil {
		log.Debug().Err(err).Str("model", model).Msg("HuggingFace call failed")
		return "", err
	}

	raw, ok := extractText(body)
	if !ok {
		return "", ai.FromMalformedBody(a.Kind(), string(body), nil)
	}

	cleaned := CleanOutput(raw, prompt)
	if cleaned == "" {
		return "", ai.NewEmptyResponse(a.Kind())
	}
	return cleaned, nil
}
