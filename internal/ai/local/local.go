// Package local implements the provider adapter for self-hosted,
// credential-free backends served over the Ollama API. Calls go directly to
// the participant's base URL; there is no key to hide, so no relay hop is
// required for this kind.
package local

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
)

const defaultServerURL = "http://localhost:11434"

// Adapter talks to an Ollama server through langchaingo.
type Adapter struct {
	serverURL string
}

// Option configures the adapter.
type Option func(*Adapter)

// WithServerURL sets the fallback server URL used when a participant has
// no base URL of its own.
func WithServerURL(u string) Option {
	return func(a *Adapter) { a.serverURL = u }
}

// New creates a local backend adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{serverURL: defaultServerURL}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Kind returns the provider kind this adapter handles.
func (a *Adapter) Kind() chat.ProviderKind {
	return chat.ProviderLocal
}

// Send forwards the conversation to the participant's Ollama server. The
// participant's base URL takes precedence over the adapter default.
func (a *Adapter) Send(ctx context.Context, message string, participant chat.Participant, history []ai.Turn) (string, error) {
	serverURL := participant.BaseURL
	if serverURL == "" {
		serverURL = a.serverURL
	}
	model := participant.Model
	if model == "" {
		model = chat.DefaultModel(a.Kind())
	}
	params := participant.Params.WithDefaults()

	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return "", ai.FromTransport(a.Kind(), err)
	}

	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case ai.RoleAssistant:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeAI, turn.Content))
		case ai.RoleSystem:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, turn.Content))
		default:
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, turn.Content))
		}
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, message))

	resp, err := llm.GenerateContent(ctx, messages,
		llms.WithTemperature(params.Temperature),
		llms.WithTopP(params.TopP),
		llms.WithMaxTokens(params.MaxTokens),
	)
	if err != nil {
		log.Debug().Err(err).Str("server_url", serverURL).Str("model", model).Msg("Ollama call failed")
		return "", ai.FromTransport(a.Kind(), err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ai.NewEmptyResponse(a.Kind())
	}
	return resp.Choices[0].Content, nil
}
