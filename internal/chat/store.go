package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store errors
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrEmptyRoster          = errors.New("conversation needs at least one participant")
)

// Store holds conversations in memory for the lifetime of the process.
// Transcripts are append-only: messages are never reordered or mutated
// after append, and the only write path is Append.
type Store struct {
	mu    sync.RWMutex
	order []string
	chats map[string]*Conversation
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{
		chats: make(map[string]*Conversation),
	}
}

// Create starts a new conversation with a non-empty initial roster.
// Participant ids must be unique within the roster.
func (s *Store) Create(name string, participants []Participant) (*Conversation, error) {
	if len(participants) == 0 {
		return nil, ErrEmptyRoster
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate participant id %q in roster", p.ID)
		}
		seen[p.ID] = true
	}

	now := time.Now()
	conv := &Conversation{
		ID:           uuid.NewString(),
		Name:         name,
		Messages:     []Message{},
		Participants: append([]Participant(nil), participants...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[conv.ID] = conv
	s.order = append(s.order, conv.ID)

	return copyConversation(conv), nil
}

// Get returns a snapshot of a conversation. The returned value is a copy;
// mutating it does not affect the store.
func (s *Store) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.chats[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return copyConversation(conv), nil
}

// List returns snapshots of all conversations in creation order.
func (s *Store) List() []*Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyConversation(s.chats[id]))
	}
	return out
}

// Delete removes a conversation and discards its messages.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.chats, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rename changes a conversation's user-editable name.
func (s *Store) Rename(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Name = name
	conv.UpdatedAt = time.Now()
	return nil
}

// Append adds a message to the end of a conversation's transcript.
func (s *Store) Append(id string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()
	return nil
}

// AddParticipant appends a participant to the roster, preserving insertion
// order. The id must not collide with an existing roster entry.
func (s *Store) AddParticipant(id string, p Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[id]
	if !ok {
		return ErrConversationNotFound
	}
	for _, existing := range conv.Participants {
		if existing.ID == p.ID {
			return fmt.Errorf("participant %q already in roster", p.ID)
		}
	}
	conv.Participants = append(conv.Participants, p)
	conv.UpdatedAt = time.Now()
	return nil
}

// RemoveParticipant drops a participant from the roster. The transcript
// keeps any messages the participant already produced.
func (s *Store) RemoveParticipant(id, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[id]
	if !ok {
		return ErrConversationNotFound
	}
	for i, existing := range conv.Participants {
		if existing.ID == participantID {
			conv.Participants = append(conv.Participants[:i], conv.Participants[i+1:]...)
			conv.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrParticipantNotFound
}

func copyConversation(conv *Conversation) *Conversation {
	out := *conv
	out.Messages = append([]Message(nil), conv.Messages...)
	out.Participants = append([]Participant(nil), conv.Participants...)
	return &out
}
