package storage

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// providers returns every backend under test, each freshly initialised.
func providers(t *testing.T) map[string]Provider {
	t.Helper()

	dbFile, err := os.CreateTemp("", "mindatlas-kv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	sqlite, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	mr := miniredis.RunT(t)
	rds, err := OpenRedis("redis://"+mr.Addr(), "test:")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}

	ps := map[string]Provider{
		"file":   tempFS(t),
		"sqlite": sqlite,
		"redis":  rds,
		"memory": NewMemory(),
	}
	for _, p := range ps {
		p := p
		t.Cleanup(func() { p.Close() })
	}
	return ps
}

func TestProviderContract(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := p.Get(ctx, "accessToken"); err != nil || ok {
				t.Fatalf("fresh Get = %v, %v", ok, err)
			}
			if err := p.Set(ctx, "accessToken", "one"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := p.Set(ctx, "accessToken", "two"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, ok, err := p.Get(ctx, "accessToken")
			if err != nil || !ok || v != "two" {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}
			if err := p.Remove(ctx, "accessToken"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, ok, _ := p.Get(ctx, "accessToken"); ok {
				t.Error("key should be removed")
			}
			if err := p.Remove(ctx, "accessToken"); err != nil {
				t.Errorf("removing absent key: %v", err)
			}
			if err := p.Set(ctx, "bad/key", "x"); err == nil {
				t.Error("expected invalid key error")
			}
		})
	}
}

func TestRedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rds, err := OpenRedis("redis://"+mr.Addr(), "mindatlas:")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer rds.Close()

	if err := rds.Set(context.Background(), "mindmaps", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if mr.Exists("mindmaps") {
		t.Error("unprefixed key should not exist")
	}
	if v, err := mr.Get("mindatlas:mindmaps"); err != nil || v != "[]" {
		t.Errorf("prefixed value = %q, %v", v, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "etcd"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpenFileCreatesDir(t *testing.T) {
	dir := t.TempDir() + "/nested/data"
	p, err := Open(Options{Driver: DriverFile, Path: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}
