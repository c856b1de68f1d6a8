// Package google implements the provider adapter for Google's Gemini
// generateContent API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Adapter talks to the Gemini generateContent endpoint. Authentication is
// an API key passed as a query parameter.
type Adapter struct {
	creds   *credentials.Store
	baseURL string
	client  *http.Client
}

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API base URL (tests, regional endpoints).
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// New creates a Gemini adapter reading its key from creds.
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
	return chat.ProviderGoogle
}

// Wire types for the generateContent request/response envelope.
type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Send builds the Gemini-native request, invokes the endpoint and extracts
// the single candidate text. Gemini's role vocabulary calls the assistant
// role "model"; everything else is sent as "user".
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

	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == ai.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		a.baseURL, url.PathEscape(model), url.QueryEscape(key))

	payload := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     params.Temperature,
			TopP:            params.TopP,
			MaxOutputTokens: params.MaxTokens,
		},
	}

	body, err := ai.PostJSON(ctx, a.client, a, endpoint, nil, payload)
	if err != nil {
		log.Debug().Err(err).Str("model", model).Msg("Gemini call failed")
		return "", err
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", ai.FromMalformedBody(a.Kind(), string(body), err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ai.NewEmptyResponse(a.Kind())
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ai.NewEmptyResponse(a.Kind())
	}
	return text, nil
}
