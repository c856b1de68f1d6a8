// Package mistral implements the provider adapter for Mistral's
// chat completions API.
package mistral

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

const defaultBaseURL = "https://api.mistral.ai"

// Adapter talks to Mistral's OpenAI-style chat completions endpoint.
// Authentication is a bearer token.
type Adapter struct {
	creds   *credentials.Store
	baseURL string
	client  *http.Client
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

// New creates a Mistral adapter reading its key from creds.
func New(creds *credentials.Store, opts ...Option) *Adapter {
	a := &Adapter{
		creds:   creds,
		baseURL: defaultBaseURL,
		client:  ai.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Kind returns the provider kind this adapter handles.
func (a *Adapter) Kind() chat.ProviderKind {
	return chat.ProviderMistral
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Send builds the chat completions request, invokes the endpoint and
// extracts the first choice's message content. Mistral accepts the internal
// role strings (user/assistant) as-is.
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

	messages := make([]chatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, chatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	payload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   params.MaxTokens,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + key,
	}

	body, err := ai.PostJSON(ctx, a.client, a, a.baseURL+"/v1/chat/completions", headers, payload)
	if err != nil {
		log.Debug().Err(err).Str("model", model).Msg("Mistral call failed")
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", ai.FromMalformedBody(a.Kind(), string(body), err)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", ai.NewEmptyResponse(a.Kind())
	}
	return decoded.Choices[0].Message.Content, nil
}
