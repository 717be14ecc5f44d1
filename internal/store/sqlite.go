package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	game_id TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   BLOB NOT NULL,
	PRIMARY KEY (game_id, key)
);
`

// SQLiteStore persists documents in a shared SQLite file so that stateless
// worker processes can point at the same database. BEGIN IMMEDIATE
// transactions serialise writers across processes; the in-process per-game
// mutex keeps one worker's Updates for the same game strictly ordered
// without burning busy-timeout retries.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSQLiteStore opens (and if necessary bootstraps) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &SQLiteStore{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *SQLiteStore) gameLock(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[gameID] = lock
	}
	return lock
}

func (s *SQLiteStore) View(ctx context.Context, gameID string, fn func(Tx) error) error {
	return fn(&sqliteTx{ctx: ctx, q: s.db, gameID: gameID, readOnly: true})
}

func (s *SQLiteStore) Update(ctx context.Context, gameID string, fn func(Tx) error) error {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	// _txlock=immediate makes this a write transaction from the start: the
	// database lock is taken before fn's first read, so an Update in another
	// process waits on the busy timeout instead of failing mid-transaction.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&sqliteTx{ctx: ctx, q: tx, gameID: gameID}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, gameID string) error {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete game documents: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqliteTx struct {
	ctx      context.Context
	q        querier
	gameID   string
	readOnly bool
}

func (t *sqliteTx) Get(key string) ([]byte, bool, error) {
	var value []byte
	row := t.q.QueryRowContext(t.ctx,
		`SELECT value FROM documents WHERE game_id = ? AND key = ?`, t.gameID, key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scan document %q: %w", key, err)
	}
	return value, true, nil
}

func (t *sqliteTx) Set(key string, value []byte) error {
	if t.readOnly {
		return &ErrReadOnly{}
	}
	if _, err := t.q.ExecContext(t.ctx,
		`INSERT OR REPLACE INTO documents (game_id, key, value) VALUES (?, ?, ?)`,
		t.gameID, key, value); err != nil {
		return fmt.Errorf("write document %q: %w", key, err)
	}
	return nil
}
