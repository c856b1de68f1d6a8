// Package credentials holds per-provider API keys for the lifetime of the
// process. Keys are seeded from configuration at startup and may be replaced
// at runtime through the API; they are only ever read by the adapter that
// matches the provider.
package credentials

import (
	"sync"

	"github.com/aethernet/internal/chat"
)

// Store is an in-memory credential store keyed by provider kind.
// Writes are full-replacement and user-triggered; adapters only read.
type Store struct {
	mu   sync.RWMutex
	keys map[chat.ProviderKind]string
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{
		keys: make(map[chat.ProviderKind]string),
	}
}

// Set stores or replaces the key for a provider. An empty key removes it.
func (s *Store) Set(kind chat.ProviderKind, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		delete(s.keys, kind)
		return
	}
	s.keys[kind] = key
}

// Get returns the key for a provider and whether one is configured.
func (s *Store) Get(kind chat.ProviderKind) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kind]
	return key, ok
}

// Configured lists the providers that currently have a key.
func (s *Store) Configured() []chat.ProviderKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.ProviderKind, 0, len(s.keys))
	for kind := range s.keys {
		out = append(out, kind)
	}
	return out
}

// Mask returns a redacted version of a key safe for logs and API responses.
func Mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
