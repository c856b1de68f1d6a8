// Package cohere implements the provider adapter for Cohere's chat API.
package cohere

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/credentials"
)

const defaultBaseURL = "https://api.cohere.ai"

// Adapter talks to Cohere's v1 chat endpoint. Authentication is a bearer
// token. Cohere takes the latest user message separately from the history
// and labels history roles USER/CHATBOT.
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

// New creates a Cohere adapter reading its key from creds.
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
	return chat.ProviderCohere
}

type historyEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type chatRequest struct {
	Message     string         `json:"message"`
	Model       string         `json:"model"`
	ChatHistory []historyEntry `json:"chat_history"`
	Temperature float64        `json:"temperature"`
	P           float64        `json:"p"`
	MaxTokens   int            `json:"max_tokens"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Send builds the Cohere chat request, invokes the endpoint and extracts
// the response text field.
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

	chatHistory := make([]historyEntry, 0, len(history))
	for _, turn := range history {
		role := "USER"
		if turn.Role == ai.RoleAssistant {
			role = "CHATBOT"
		}
		chatHistory = append(chatHistory, historyEntry{Role: role, Message: turn.Content})
	}

	payload := chatRequest{
		Message:     message,
		Model:       model,
		ChatHistory: chatHistory,
		Temperature: params.Temperature,
		P:           params.TopP,
		MaxTokens:   params.MaxTokens,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + key,
	}

	body, err := ai.PostJSON(ctx, a.client, a, a.baseURL+"/v1/chat", headers, payload)
	if err != nil {
		log.Debug().Err(err).Str("model", model).Msg("Cohere call failed")
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", ai.FromMalformedBody(a.Kind(), string(body), err)
	}

	if decoded.Text == "" {
		return "", ai.NewEmptyResponse(a.Kind())
	}
	return decoded.Text, nil
}
