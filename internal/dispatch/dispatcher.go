// Package dispatch runs one conversation turn: append the user's message,
// resolve mention targets, fan the message out to every targeted provider
// adapter concurrently, and fold each result or failure back into the
// transcript.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
	"github.com/aethernet/internal/mention"
)

// Dispatcher coordinates turns against a conversation store and an adapter
// registry. It is an explicitly constructed dependency, not a global:
// callers inject one instance wherever turns are run.
type Dispatcher struct {
	store    *chat.Store
	registry *ai.Registry

	mu    sync.Mutex
	turns map[string]*sync.Mutex
}

// New creates a dispatcher over the given store and registry.
func New(store *chat.Store, registry *ai.Registry) *Dispatcher {
	return &Dispatcher{
		store:    store,
		registry: registry,
		turns:    make(map[string]*sync.Mutex),
	}
}

// turnLock returns the per-conversation lock. Overlapping turns on the same
// conversation are serialized rather than interleaved: a second user message
// waits until the first turn's responses have all landed.
func (d *Dispatcher) turnLock(conversationID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.turns[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		d.turns[conversationID] = lock
	}
	return lock
}

// DispatchTurn runs a full turn for text on the given conversation and
// returns the appended messages: the user message first, then one response
// (or error) message per targeted participant in completion order. A failed
// participant never blocks or invalidates the others, and a turn never
// hangs: every adapter call resolves within its own timeout.
func (d *Dispatcher) DispatchTurn(ctx context.Context, conversationID, text string) ([]chat.Message, error) {
	lock := d.turnLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	// Pre-turn snapshot: the history sent to providers excludes the message
	// being dispatched.
	snapshot, err := d.store.Get(conversationID)
	if err != nil {
		return nil, err
	}
	history := ai.HistoryTurns(snapshot.Messages)

	// The user's own message lands before any network call begins.
	userMsg := chat.NewUserMessage(text)
	if err := d.store.Append(conversationID, userMsg); err != nil {
		return nil, err
	}
	appended := []chat.Message{userMsg}

	targets := mention.Resolve(text, snapshot.Participants)

	log.Debug().
		Str("chat_id", conversationID).
		Int("participants", len(snapshot.Participants)).
		Int("targets", len(targets)).
		Msg("Dispatching turn")

	// Fan out: every target launched before any result is awaited, results
	// collected as an all-settled batch. No short-circuit on first failure.
	results := make(chan chat.Message, len(targets))
	for _, target := range targets {
		go func(p chat.Participant) {
			results <- d.callParticipant(ctx, text, p, history)
		}(target)
	}

	for range targets {
		msg := <-results
		if err := d.store.Append(conversationID, msg); err != nil {
			// Conversation deleted mid-turn; nothing left to append to.
			log.Warn().Err(err).Str("chat_id", conversationID).Msg("Dropping turn result")
			continue
		}
		appended = append(appended, msg)
	}

	return appended, nil
}

// callParticipant invokes one adapter and converts any failure into a
// participant-attributed error message. Exactly one message comes back per
// participant, success or not; there is no retry at this layer.
func (d *Dispatcher) callParticipant(ctx context.Context, text string, p chat.Participant, history []ai.Turn) chat.Message {
	started := time.Now()

	adapter, err := d.registry.Get(p.Provider)
	if err != nil {
		return chat.NewParticipantError(p.ID, fmt.Sprintf("%s is not supported by this relay", p.DisplayName))
	}

	content, err := adapter.Send(ctx, text, p, history)
	if err != nil {
		log.Warn().
			Err(err).
			Str("provider", string(p.Provider)).
			Str("participant", p.ID).
			Dur("elapsed", time.Since(started)).
			Msg("Participant call failed")
		return chat.NewParticipantError(p.ID, errorText(p, err))
	}

	log.Debug().
		Str("provider", string(p.Provider)).
		Str("participant", p.ID).
		Dur("elapsed", time.Since(started)).
		Msg("Participant responded")
	return chat.NewParticipantMessage(p.ID, content)
}

// errorText renders an adapter failure as a human-readable transcript
// message attributed to the participant.
func errorText(p chat.Participant, err error) string {
	aerr, ok := ai.AsAdapterError(err)
	if !ok {
		return fmt.Sprintf("%s is currently unavailable: %v", p.DisplayName, err)
	}

	switch aerr.Kind {
	case ai.ErrMissingCredential:
		return fmt.Sprintf("%s is not configured: no API key set for %s.", p.DisplayName, p.Provider)
	case ai.ErrUnauthorized:
		return fmt.Sprintf("%s rejected the configured API key. Check the key in settings.", p.DisplayName)
	case ai.ErrNotFound:
		return fmt.Sprintf("%s does not recognize model %q.", p.DisplayName, p.Model)
	case ai.ErrRateLimited:
		return fmt.Sprintf("%s is rate limited right now. Try again in a few seconds.", p.DisplayName)
	case ai.ErrTimeout:
		return fmt.Sprintf("%s did not respond in time.", p.DisplayName)
	case ai.ErrEmptyResponse:
		return fmt.Sprintf("%s returned an empty response.", p.DisplayName)
	default:
		return fmt.Sprintf("%s is currently unavailable: %s.", p.DisplayName, aerr.Message)
	}
}
