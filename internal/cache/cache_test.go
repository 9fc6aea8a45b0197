package cache

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put("mypkg", 3, KindTypeSnapshot, "h1", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get("mypkg", 3, KindTypeSnapshot, "h1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit")
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want %q", got, "payload")
	}
}

func TestGetMissOnHashMismatch(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put("mypkg", 1, KindDeclSnapshot, "h1", []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, ok, err := s.Get("mypkg", 1, KindDeclSnapshot, "h2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss when the stored content hash differs")
	}
}

func TestClearBySourceRemovesAllKinds(t *testing.T) {
	s := openTestStore(t)
	s.Put("mypkg", 5, KindTypeSnapshot, "h", []byte("t"))
	s.Put("mypkg", 5, KindDeclSnapshot, "h", []byte("d"))
	if err := s.ClearBySource("mypkg", 5); err != nil {
		t.Fatalf("ClearBySource: %v", err)
	}
	if _, ok, _ := s.Get("mypkg", 5, KindTypeSnapshot, "h"); ok {
		t.Fatalf("expected type snapshot to be cleared")
	}
	if _, ok, _ := s.Get("mypkg", 5, KindDeclSnapshot, "h"); ok {
		t.Fatalf("expected decl snapshot to be cleared")
	}
}

func TestClearBySourceIsScopedToSource(t *testing.T) {
	s := openTestStore(t)
	s.Put("mypkg", 1, KindTypeSnapshot, "h", []byte("keep"))
	s.Put("mypkg", 2, KindTypeSnapshot, "h", []byte("drop"))
	s.ClearBySource("mypkg", 2)
	got, ok, _ := s.Get("mypkg", 1, KindTypeSnapshot, "h")
	if !ok || string(got) != "keep" {
		t.Fatalf("clearing source 2 must not affect source 1's entry")
	}
}
