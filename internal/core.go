package internal

import (
	"fmt"
	"log/slog"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/backend"
	"github.com/starford/mindatlas/internal/mindmap"
	"github.com/starford/mindatlas/internal/session"
	"github.com/starford/mindatlas/internal/storage"
	"github.com/starford/mindatlas/internal/token"
)

// core holds the components shared by every entry point. It is built once
// by the application root and passed down explicitly.
type core struct {
	store    storage.Provider
	sessions *session.Store
	codec    *token.Codec
	gate     *authgate.Gate
	repo     *mindmap.KVRepository
	backend  *backend.Client
}

// newCore opens storage and wires the session and document components.
// watched asks for a cached session slot; it is only honoured for the file
// driver, whose changes storage.Watch reports. Other drivers are read on
// every access so writes from other processes are never masked.
func newCore(cfg *Config, logger *slog.Logger, watched bool) (*core, error) {
	store, err := storage.Open(cfg.Storage.Options())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var sessOpts []session.Option
	if _, isFS := store.(*storage.FS); isFS && watched {
		sessOpts = append(sessOpts, session.WithMemo())
	}
	sessions := session.NewStore(store, sessOpts...)
	codec := token.NewCodec(cfg.Auth.VerifySecret)
	if !codec.Verifying() {
		logger.Debug("token signatures are not verified; trusting the backend")
	}

	return &core{
		store:    store,
		sessions: sessions,
		codec:    codec,
		gate:     authgate.New(sessions, codec, cfg.Auth.LoginPath, authgate.WithLogger(logger)),
		repo:     mindmap.NewKVRepository(store),
		backend:  backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout),
	}, nil
}

func (c *core) Close() error {
	return c.store.Close()
}
