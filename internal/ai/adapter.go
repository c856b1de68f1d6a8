// Package ai defines the provider adapter contract: translating a
// normalized outbound request into one backend's wire format and that
// backend's response (or failure) back into a common shape.
package ai

import (
	"context"

	"github.com/aethernet/internal/chat"
)

// Role labels used in normalized history turns.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one normalized history entry handed to an adapter. Adapters map
// these roles to their provider's vocabulary (e.g. Gemini calls the
// assistant role "model"; Cohere uses USER/CHATBOT).
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryTurns converts a transcript to role-tagged turns for provider
// context. User messages map to the user role and participant messages to
// the assistant role. System notices and error notices are UI artifacts,
// not model-authored turns, and are dropped.
func HistoryTurns(messages []chat.Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.IsError {
			continue
		}
		switch msg.Origin {
		case chat.OriginUser:
			turns = append(turns, Turn{Role: RoleUser, Content: msg.Content})
		case chat.OriginSystem:
			continue
		default:
			turns = append(turns, Turn{Role: RoleAssistant, Content: msg.Content})
		}
	}
	return turns
}

// Adapter translates between the normalized message format and one
// provider's wire protocol. Send returns the single response string the
// provider produced, or an *AdapterError; it never panics past the
// boundary, and it must not issue a network call when a required
// credential is missing.
type Adapter interface {
	// Send delivers message with the given history context to the backend
	// configured on participant and returns the extracted response text.
	Send(ctx context.Context, message string, participant chat.Participant, history []Turn) (string, error)

	// Kind returns the provider this adapter handles.
	Kind() chat.ProviderKind
}
