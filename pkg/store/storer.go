// Package store persists conversation snapshots keyed by a named slot.
// Each slot holds the serialized message array verbatim and is overwritten
// whole on every mutation; the only other operation is a bulk clear.
package store

import (
	"context"

	"github.com/mydocta/docta/pkg/chat"
)

// DefaultSlot is the single conversation slot used by the gateway.
const DefaultSlot = "mydocta-chat-history"

// Storer defines the interface for persisting and retrieving conversation
// snapshots from a storage backend.
type Storer interface {
	// Save overwrites the slot with the given message array.
	Save(ctx context.Context, slot string, msgs []chat.Message) error

	// Load returns the messages stored in the slot, in insertion order.
	// A missing slot is an empty conversation, not an error.
	Load(ctx context.Context, slot string) ([]chat.Message, error)

	// Clear erases the slot entirely.
	Clear(ctx context.Context, slot string) error

	// Close closes the store and releases any resources.
	Close() error
}
