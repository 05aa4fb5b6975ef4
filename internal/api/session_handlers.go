package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/backend"
	"github.com/starford/mindatlas/internal/token"
)

// SessionHandler serves the session routes.
type SessionHandler struct {
	d   Deps
	now func() time.Time
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(d Deps) *SessionHandler {
	return &SessionHandler{d: d, now: time.Now}
}

func (h *SessionHandler) notify(authenticated bool) {
	if h.d.Events != nil {
		h.d.Events.PublishSessionEvent(authenticated)
	}
}

func rejectedToken(err error) bool {
	return errors.Is(err, token.ErrMalformedToken) || errors.Is(err, token.ErrInvalidSignature)
}

// Show handles GET /api/session.
func (h *SessionHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := h.d.Gate.Snapshot(r.Context())
	if err != nil {
		if !rejectedToken(err) {
			slog.Error("session snapshot failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		// The corrupt token has already been purged.
		h.notify(false)
	}
	writeJSON(w, http.StatusOK, SessionResponse{Identity: id})
}

// Store handles POST /api/session with an already issued token.
func (h *SessionHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req StoreTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.persist(w, r, req.Token, "")
}

// Login handles POST /api/session/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.d.Backend == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("backend not configured"))
		return
	}
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	resp, err := h.d.Backend.Login(r.Context(), backend.Credentials{Mail: req.Mail, Password: req.Password})
	if err != nil {
		writeBackendError(w, "login", err)
		return
	}
	h.persist(w, r, resp.AccessToken, resp.TokenType)
}

func (h *SessionHandler) persist(w http.ResponseWriter, r *http.Request, raw, tokenType string) {
	claims, err := h.d.Codec.Decode(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("token rejected: "+err.Error()))
		return
	}
	if claims.Expired(h.now()) {
		writeJSON(w, http.StatusUnauthorized, errorBody("token expired"))
		return
	}
	if err := h.d.Sessions.Persist(r.Context(), raw); err != nil {
		slog.Error("persist session failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	slog.Info("session started", slog.String("email", claims.Email()), slog.String("role", claims.Role().String()))
	h.notify(true)

	writeJSON(w, http.StatusOK, SessionResponse{
		Identity: authgate.Identity{
			Authenticated: true,
			Role:          claims.Role(),
			Email:         claims.Email(),
			UserID:        claims.UserID,
		},
		TokenType: tokenType,
	})
}

// Register handles POST /api/session/register.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.d.Backend == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("backend not configured"))
		return
	}
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Role == "" {
		req.Role = "ROLE_USER"
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	msg, err := h.d.Backend.Register(r.Context(), backend.Registration{
		Mail:     req.Mail,
		FullName: req.FullName,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeBackendError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

// Logout handles POST /api/session/logout. The client is sent to the login
// entry point with 303 and is expected to perform a full reload.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	loc, err := h.d.Gate.Logout(r.Context())
	if err != nil {
		slog.Error("logout failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	h.notify(false)
	w.Header().Set("Location", loc)
	writeJSON(w, http.StatusSeeOther, RedirectResponse{Redirect: loc})
}

func writeBackendError(w http.ResponseWriter, op string, err error) {
	var be *backend.Error
	if errors.As(err, &be) {
		status := be.Status
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorBody(be.Message))
		return
	}
	slog.Error("backend call failed", slog.String("op", op), slog.String("error", err.Error()))
	writeJSON(w, http.StatusBadGateway, errorBody("backend unavailable"))
}
