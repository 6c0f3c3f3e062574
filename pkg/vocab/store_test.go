package vocab

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/japaniel/wordlens/pkg/db"
	_ "github.com/mattn/go-sqlite3"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := db.InitDB(conn); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn)
}

func TestLoadEmptyStore(t *testing.T) {
	s := setupStore(t)
	v, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v == nil || len(v) != 0 {
		t.Fatalf("expected empty non-nil vocab, got %#v", v)
	}
}

func TestSaveLoadKeepsEntry(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	added := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, Vocab{"apple": {Translation: "苹果", PartOfSpeech: "noun", AddedAt: added}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	v, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, ok := v["apple"]
	if !ok {
		t.Fatal("apple missing after save")
	}
	if e.Translation != "苹果" || e.PartOfSpeech != "noun" || e.Count != 0 || !e.AddedAt.Equal(added) {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestUpdateOnlyWritesOnChange(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, func(v Vocab) (bool, error) {
		v["apple"] = Entry{Translation: "x"}
		return false, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, _ := s.Load(ctx)
	if _, ok := v["apple"]; ok {
		t.Fatal("unchanged update must not persist")
	}

	boom := errors.New("boom")
	if _, err := s.Update(ctx, func(v Vocab) (bool, error) { return true, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Vocab{"apple": {}, "pear": {}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	v, err := s.Delete(ctx, "apple")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := v["apple"]; ok {
		t.Fatal("apple still present in returned vocab")
	}
	stored, _ := s.Load(ctx)
	if _, ok := stored["apple"]; ok || len(stored) != 1 {
		t.Fatalf("unexpected stored vocab after delete: %v", stored)
	}

	if _, err := s.Delete(ctx, "apple"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stored, _ = s.Load(ctx)
	if len(stored) != 0 {
		t.Fatalf("expected empty vocab after clear, got %v", stored)
	}
	raw, ok, err := db.GetValue(s.DB(), StorageKey)
	if err != nil || !ok || raw != "{}" {
		t.Fatalf("clear must store an empty mapping, got %q ok=%v err=%v", raw, ok, err)
	}
}

func TestAddCountsAccumulates(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Vocab{"apple": {Count: 0}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, _, err := s.AddCounts(ctx, map[string]int{"apple": 3}); err != nil {
			t.Fatalf("AddCounts: %v", err)
		}
	}
	v, _ := s.Load(ctx)
	if v["apple"].Count != 6 {
		t.Fatalf("expected count 6 after two loads of 3, got %d", v["apple"].Count)
	}
}

func TestAddCountsConcurrentWriters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Vocab{"apple": {}, "pear": {}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.AddCounts(ctx, map[string]int{"apple": 1, "pear": 2}); err != nil {
				t.Errorf("AddCounts: %v", err)
			}
		}()
	}
	wg.Wait()

	v, _ := s.Load(ctx)
	if v["apple"].Count != n || v["pear"].Count != 2*n {
		t.Fatalf("lost updates: apple=%d pear=%d", v["apple"].Count, v["pear"].Count)
	}
}

func TestAddCountsSkipsDeletedWords(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Vocab{"pear": {}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, changed, err := s.AddCounts(ctx, map[string]int{"apple": 2})
	if err != nil {
		t.Fatalf("AddCounts: %v", err)
	}
	if len(changed) != 0 {
		t.Fatalf("expected no changes, got %v", changed)
	}
	v, _ := s.Load(ctx)
	if _, ok := v["apple"]; ok {
		t.Fatal("a word deleted elsewhere must not be resurrected by counts")
	}
}

func TestLoadCorruptValue(t *testing.T) {
	s := setupStore(t)
	if err := db.SetValue(s.DB(), StorageKey, "not json"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
