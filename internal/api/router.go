package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/backend"
	"github.com/starford/mindatlas/internal/guard"
	"github.com/starford/mindatlas/internal/mindmap"
	"github.com/starford/mindatlas/internal/session"
	"github.com/starford/mindatlas/internal/token"
)

// Authenticator is the subset of the backend client the API forwards to.
type Authenticator interface {
	Login(ctx context.Context, cred backend.Credentials) (backend.LoginResponse, error)
	Register(ctx context.Context, reg backend.Registration) (string, error)
}

// SessionNotifier is told about logins and logouts.
type SessionNotifier interface {
	PublishSessionEvent(authenticated bool)
}

// Deps are the collaborators the router needs. Events, Backend and
// LoginLimiter may be nil.
type Deps struct {
	Gate         *authgate.Gate
	Sessions     *session.Store
	Codec        *token.Codec
	Backend      Authenticator
	MindMaps     *mindmap.Service
	Events       SessionNotifier
	Paths        guard.Paths
	LoginLimiter *rate.Limiter
	SSE          http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	sh := NewSessionHandler(d)
	mh := NewMindMapHandler(d.MindMaps)

	r := chi.NewRouter()

	r.Route("/session", func(r chi.Router) {
		r.Get("/", sh.Show)
		r.Post("/", sh.Store)
		r.Post("/logout", sh.Logout)
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(d.LoginLimiter))
			r.Post("/login", sh.Login)
			r.Post("/register", sh.Register)
		})
	})

	r.Get("/subjects", mh.Subjects)

	// Non-admin area.
	r.Route("/mindmaps", func(r chi.Router) {
		r.Use(GuardMiddleware(d.Gate, guard.UserArea, d.Paths))
		r.Get("/", mh.List)
		r.Post("/", mh.Create)
		r.Get("/{id}", mh.Get)
		r.Put("/{id}", mh.Update)
		r.Patch("/{id}", mh.Update)
		r.Delete("/{id}", mh.Delete)
	})

	// Admin area.
	r.Route("/admin", func(r chi.Router) {
		r.Use(GuardMiddleware(d.Gate, guard.AdminArea, d.Paths))
		r.Get("/overview", mh.AdminOverview)
	})

	if d.SSE != nil {
		r.Get("/events", d.SSE.ServeHTTP)
	}

	return r
}
