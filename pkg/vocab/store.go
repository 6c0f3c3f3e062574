package vocab

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/japaniel/wordlens/pkg/db"
)

// ErrNotFound is returned when deleting a word that is not stored.
var ErrNotFound = errors.New("word not found")

// LoadFrom reads the dictionary through ex. A missing key yields an empty map.
func LoadFrom(ex db.DBExecutor) (Vocab, error) {
	raw, ok, err := db.GetValue(ex, StorageKey)
	if err != nil {
		return nil, err
	}
	v := Vocab{}
	if !ok || raw == "" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", StorageKey, err)
	}
	if v == nil {
		v = Vocab{}
	}
	return v, nil
}

// SaveTo writes the whole dictionary through ex.
func SaveTo(ex db.DBExecutor, v Vocab) error {
	if v == nil {
		v = Vocab{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", StorageKey, err)
	}
	return db.SetValue(ex, StorageKey, string(raw))
}

// ApplyCounts re-reads the dictionary through ex, adds tally and writes it
// back if anything changed. Use it inside a transaction.
func ApplyCounts(ex db.DBExecutor, tally map[string]int) (Vocab, []string, error) {
	v, err := LoadFrom(ex)
	if err != nil {
		return nil, nil, err
	}
	changed := v.AddCounts(tally)
	if len(changed) == 0 {
		return v, nil, nil
	}
	if err := SaveTo(ex, v); err != nil {
		return nil, nil, err
	}
	return v, changed, nil
}

// Store persists the dictionary as one JSON value in SQLite.
type Store struct {
	conn *sql.DB
}

// NewStore wraps an initialized database connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// DB exposes the underlying connection for callers batching their own writes.
func (s *Store) DB() *sql.DB { return s.conn }

// Load returns the current dictionary.
func (s *Store) Load(ctx context.Context) (Vocab, error) {
	return LoadFrom(conn{ctx: ctx, db: s.conn})
}

// Save replaces the stored dictionary with v.
func (s *Store) Save(ctx context.Context, v Vocab) error {
	return SaveTo(conn{ctx: ctx, db: s.conn}, v)
}

// Update runs fn on a freshly read dictionary inside a transaction and
// writes the result when fn reports a change.
func (s *Store) Update(ctx context.Context, fn func(v Vocab) (bool, error)) (Vocab, error) {
	var out Vocab
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		v, err := LoadFrom(tx)
		if err != nil {
			return err
		}
		changed, err := fn(v)
		if err != nil {
			return err
		}
		if changed {
			if err := SaveTo(tx, v); err != nil {
				return err
			}
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddCounts adds tally to the stored counts and returns the updated
// dictionary together with the words whose count changed.
func (s *Store) AddCounts(ctx context.Context, tally map[string]int) (Vocab, []string, error) {
	var (
		out     Vocab
		changed []string
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, changed, err = ApplyCounts(tx, tally)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, changed, nil
}

// Delete removes one word. It returns ErrNotFound if the word is not stored.
func (s *Store) Delete(ctx context.Context, word string) (Vocab, error) {
	var found bool
	v, err := s.Update(ctx, func(v Vocab) (bool, error) {
		if _, ok := v[word]; !ok {
			return false, nil
		}
		delete(v, word)
		found = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return v, ErrNotFound
	}
	return v, nil
}

// Clear replaces the dictionary with an empty mapping.
func (s *Store) Clear(ctx context.Context) error {
	return s.Save(ctx, Vocab{})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// conn binds a context to *sql.DB so it satisfies db.DBExecutor while still
// honoring cancellation.
type conn struct {
	ctx context.Context
	db  *sql.DB
}

func (c conn) Exec(query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(c.ctx, query, args...)
}

func (c conn) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(c.ctx, query, args...)
}

func (c conn) QueryRow(query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(c.ctx, query, args...)
}
