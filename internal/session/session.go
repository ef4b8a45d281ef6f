// Package session remembers the display identity of disconnected clients so
// that a reconnect carrying the former connection id can take it back.
package session

import (
	"context"
	"time"
)

// Snapshot is the identity parked when a connection closes.
type Snapshot struct {
	Token   string    `json:"token"` // former connection id
	Name    string    `json:"name"`
	Color   string    `json:"color"`
	SavedAt time.Time `json:"saved_at"`
}

// Store keeps snapshots addressable by token and by display name.
type Store interface {
	// Save parks a snapshot. An older snapshot under the same name is replaced.
	Save(ctx context.Context, snap Snapshot) error

	// Restore returns and removes the snapshot stored under token.
	Restore(ctx context.Context, token string) (Snapshot, bool, error)

	// TokenForName returns the token of the snapshot parked under name.
	TokenForName(ctx context.Context, name string) (string, bool, error)

	// Forget drops the snapshot parked under name, if any.
	Forget(ctx context.Context, name string) error

	// Close releases background resources.
	Close() error
}
