package storage

import (
	"fmt"
	"os"
)

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	RedisURL    string
	RedisPrefix string
}

// Open builds the Provider named by opts.Driver.
func Open(opts Options) (Provider, error) {
	switch opts.Driver {
	case DriverFile, "":
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
		return NewFS(opts.Path)
	case DriverSQLite:
		return OpenSQLite(opts.Path)
	case DriverRedis:
		return OpenRedis(opts.RedisURL, opts.RedisPrefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
