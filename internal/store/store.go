// Package store provides the shared key/value document storage that all game
// state lives in. It knows nothing about game semantics: values are opaque
// JSON documents addressed by a game id and a sub-key.
package store

import "context"

// Tx gives a transition function access to the documents of a single game.
// Keys are sub-keys scoped to the game id the transaction was opened for.
type Tx interface {
	// Get returns the value stored under key, or ok=false if absent.
	Get(key string) (value []byte, ok bool, err error)

	// Set stages value under key. Inside Update, staged writes commit
	// together when the transition function returns nil and are discarded
	// when it returns an error.
	Set(key string, value []byte) error
}

// Store is the persistence contract the engine depends on.
//
// Update is the load-bearing primitive: it guarantees fn observes a fresh
// read of the game's documents and that its writes are committed before any
// other Update for the same game id begins. Without this, concurrent
// requests for the same game lose hand updates and duplicate turn advances.
type Store interface {
	// View runs fn against a read-only snapshot. A recent snapshot is
	// acceptable; View takes no game lock.
	View(ctx context.Context, gameID string, fn func(Tx) error) error

	// Update runs fn under the per-game lock: read, transition, commit.
	// The lock is scoped to gameID, so unrelated games proceed in parallel.
	Update(ctx context.Context, gameID string, fn func(Tx) error) error

	// Delete removes every document belonging to gameID.
	Delete(ctx context.Context, gameID string) error

	Close() error
}

// ErrReadOnly is returned by Set on a View transaction.
type ErrReadOnly struct{}

func (e *ErrReadOnly) Error() string {
	return "store: cannot write inside a read-only transaction"
}
