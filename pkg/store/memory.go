package store

import (
	"context"
	"sync"

	"github.com/mydocta/docta/pkg/chat"
)

// MemoryStorer is an in-memory Storer used when no database path is
// configured and in tests.
type MemoryStorer struct {
	mu    sync.RWMutex
	slots map[string][]chat.Message
}

// NewMemoryStorer creates an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{slots: make(map[string][]chat.Message)}
}

// Save overwrites the slot with a copy of msgs.
func (s *MemoryStorer) Save(_ context.Context, slot string, msgs []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)
	s.slots[slot] = copied

	return nil
}

// Load returns a copy of the slot's messages.
func (s *MemoryStorer) Load(_ context.Context, slot string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.slots[slot]
	if !ok {
		return nil, nil
	}

	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)

	return copied, nil
}

// Clear erases the slot.
func (s *MemoryStorer) Clear(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, slot)

	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStorer) Close() error {
	return nil
}
