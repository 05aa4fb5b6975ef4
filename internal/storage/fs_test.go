package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestFSSetAndGet(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	if err := s.Set(ctx, "accessToken", "abc.def.ghi"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "accessToken")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "abc.def.ghi" {
		t.Errorf("Get = %q, %v", got, ok)
	}
}

func TestFSGetMissing(t *testing.T) {
	s := tempFS(t)
	_, ok, err := s.Get(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected missing key")
	}
}

func TestFSRemove(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	_ = s.Set(ctx, "k", "v")
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("key should be gone")
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Errorf("second Remove should be a no-op: %v", err)
	}
}

func TestFSInvalidKeys(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	for _, k := range []string{"", "../escape", "a/b", "..", tmpPrefix + "x"} {
		if err := s.Set(ctx, k, "x"); err == nil {
			t.Errorf("expected error for key %q", k)
		}
		if _, _, err := s.Get(ctx, k); err == nil {
			t.Errorf("expected error reading key %q", k)
		}
	}
}

func TestFSAtomicOverwrite(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	_ = s.Set(ctx, "mindmaps", "[]")
	if err := s.Set(ctx, "mindmaps", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ := s.Get(ctx, "mindmaps")
	if got != `[{"id":"a"}]` {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/mindatlas-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "mindatlas-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
