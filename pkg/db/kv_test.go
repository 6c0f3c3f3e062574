package db

import (
	"testing"
)

func TestGetValueMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	v, ok, err := GetValue(db, "vocab")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("expected missing key, got %q (ok=%v)", v, ok)
	}
}

func TestSetValueOverwrites(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := SetValue(db, "vocab", `{"a":1}`); err != nil {
		t.Fatalf("set 1: %v", err)
	}
	if err := SetValue(db, "vocab", `{"b":2}`); err != nil {
		t.Fatalf("set 2: %v", err)
	}
	v, ok, err := GetValue(db, "vocab")
	if err != nil || !ok {
		t.Fatalf("GetValue: %v (ok=%v)", err, ok)
	}
	if v != `{"b":2}` {
		t.Fatalf("expected overwritten value, got %q", v)
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 kv row, got %d", rows)
	}
}

func TestDeleteValue(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := SetValue(db, "vocab", "{}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := DeleteValue(db, "vocab"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteValue(db, "vocab"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, ok, _ := GetValue(db, "vocab"); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := SetValue(db, " ", "x"); err == nil {
		t.Error("expected error for empty key on set")
	}
	if _, _, err := GetValue(db, ""); err == nil {
		t.Error("expected error for empty key on get")
	}
}
