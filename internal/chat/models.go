package chat

import (
	"time"

	"github.com/google/uuid"
)

// ProviderKind identifies which adapter handles a participant.
type ProviderKind string

const (
	ProviderGoogle      ProviderKind = "google"
	ProviderMistral     ProviderKind = "mistral"
	ProviderCohere      ProviderKind = "cohere"
	ProviderHuggingFace ProviderKind = "huggingface"
	ProviderLocal       ProviderKind = "local"
)

// RequiresKey reports whether the provider needs an API credential.
// Local backends (self-hosted, e.g. Ollama) are the only credential-free kind.
func (k ProviderKind) RequiresKey() bool {
	return k != ProviderLocal
}

// Message origins. A message either comes from the user, from a specific
// participant (origin holds the participant id), or is a system notice.
const (
	OriginUser   = "user"
	OriginSystem = "system"
)

// Message is one turn in a conversation transcript. Array order is
// authoritative for sequencing; the timestamp is for display only.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Origin    string    `json:"origin"`
	IsError   bool      `json:"is_error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(content string) Message {
	return newMessage(OriginUser, content)
}

// NewParticipantMessage creates a message attributed to a participant.
func NewParticipantMessage(participantID, content string) Message {
	return newMessage(participantID, content)
}

// NewParticipantError creates an error notice attributed to a participant.
// Error notices appear in the transcript like any other message but are
// never replayed to providers as model-authored turns.
func NewParticipantError(participantID, content string) Message {
	msg := newMessage(participantID, content)
	msg.IsError = true
	return msg
}

// NewSystemMessage creates a system notice message.
func NewSystemMessage(content string) Message {
	return newMessage(OriginSystem, content)
}

func newMessage(origin, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

// GenerationParams are sampling parameters passed to a provider. Zero values
// fall back to the shared policy defaults.
type GenerationParams struct {
	Temperature float64 `json:"temperature,omitempty" koanf:"temperature"`
	TopP        float64 `json:"top_p,omitempty" koanf:"top_p"`
	MaxTokens   int     `json:"max_tokens,omitempty" koanf:"max_tokens"`
}

// Policy defaults held constant across providers where their schemas allow.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 1000
)

// WithDefaults fills unset fields with the policy defaults.
func (p GenerationParams) WithDefaults() GenerationParams {
	if p.Temperature == 0 {
		p.Temperature = DefaultTemperature
	}
	if p.TopP == 0 {
		p.TopP = DefaultTopP
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	return p
}

// Participant is a configured AI backend attached to a conversation.
// ID must be unique within a conversation's roster, not globally.
type Participant struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name"`
	Provider    ProviderKind     `json:"provider"`
	Model       string           `json:"model"`
	IsAvailable bool             `json:"is_available"`
	IsPaid      bool             `json:"is_paid"`
	BaseURL     string           `json:"base_url,omitempty"`
	Params      GenerationParams `json:"params,omitempty"`
}

// Conversation is a named thread with an append-only transcript and a
// participant roster. Roster insertion order is preserved so mention
// matching and display stay deterministic.
type Conversation struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Messages     []Message     `json:"messages"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
