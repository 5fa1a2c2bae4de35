package store

import (
	"path/filepath"
	"testing"

	"github.com/AbdusM/lux-story/logging"
)

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	s, err := NewSQLiteStore(path, logging.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Read("missing"); ok || err != nil {
		t.Errorf("Read(missing) = ok=%v err=%v", ok, err)
	}

	if err := s.Write("k", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Read("k")
	if err != nil || !ok || string(v) != "v1" {
		t.Errorf("Read(k) = %q ok=%v err=%v", v, ok, err)
	}

	// Upsert.
	if err := s.Write("k", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	v, _, _ = s.Read("k")
	if string(v) != "v2" {
		t.Errorf("Read(k) after upsert = %q", v)
	}

	// Nil clears to empty rather than failing the NOT NULL constraint.
	if err := s.Write("k", nil); err != nil {
		t.Fatalf("Write(nil) error = %v", err)
	}
	v, ok, _ = s.Read("k")
	if !ok || len(v) != 0 {
		t.Errorf("Read(k) after clear = %q ok=%v", v, ok)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	log := logging.NewNop()

	s, err := NewSQLiteStore(path, log)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write("echo_queue", []byte(`[{"flag":"f1"}]`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := NewSQLiteStore(path, log)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, ok, err := s2.Read("echo_queue")
	if err != nil || !ok || string(v) != `[{"flag":"f1"}]` {
		t.Errorf("Read after reopen = %q ok=%v err=%v", v, ok, err)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore("", logging.NewNop()); err == nil {
		t.Error("empty path accepted")
	}
}
