package store

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store. It backs tests and single-process spawn
// mode; every worker in the process shares the one instance.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]map[string][]byte
	locks map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]map[string][]byte),
		locks: make(map[string]*sync.Mutex),
	}
}

// gameLock returns the mutex serialising Updates for one game, creating it
// on first use.
func (m *MemoryStore) gameLock(gameID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[gameID] = lock
	}
	return lock
}

func (m *MemoryStore) View(ctx context.Context, gameID string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{store: m, gameID: gameID, readOnly: true})
}

func (m *MemoryStore) Update(ctx context.Context, gameID string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := m.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{
		store:   m,
		gameID:  gameID,
		pending: make(map[string][]byte),
	}
	if err := fn(tx); err != nil {
		// Staged writes are discarded: a rejected transition has no
		// side effects.
		return err
	}
	tx.commit()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := m.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	delete(m.games, gameID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// memTx reads through to the live map and stages writes until commit.
type memTx struct {
	store    *MemoryStore
	gameID   string
	readOnly bool
	pending  map[string][]byte
}

func (t *memTx) Get(key string) ([]byte, bool, error) {
	if value, ok := t.pending[key]; ok {
		return cloneBytes(value), true, nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	game, ok := t.store.games[t.gameID]
	if !ok {
		return nil, false, nil
	}
	value, ok := game[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(value), true, nil
}

func (t *memTx) Set(key string, value []byte) error {
	if t.readOnly {
		return &ErrReadOnly{}
	}
	t.pending[key] = cloneBytes(value)
	return nil
}

func (t *memTx) commit() {
	if len(t.pending) == 0 {
		return
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	game, ok := t.store.games[t.gameID]
	if !ok {
		game = make(map[string][]byte)
		t.store.games[t.gameID] = game
	}
	for key, value := range t.pending {
		game[key] = value
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
