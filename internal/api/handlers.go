package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mindatlas/internal/apperr"
	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/mindmap"
	"github.com/starford/mindatlas/internal/models"
)

// MindMapHandler serves the document routes.
type MindMapHandler struct {
	svc *mindmap.Service
}

// NewMindMapHandler creates a MindMapHandler.
func NewMindMapHandler(svc *mindmap.Service) *MindMapHandler {
	return &MindMapHandler{svc: svc}
}

func setETag(w http.ResponseWriter, m models.MindMap) {
	if tag := mindmap.ETag(m); tag != "" {
		w.Header().Set("ETag", `"`+tag+`"`)
	}
}

// ifMatchTag extracts the entity tag from an If-Match header. Weak tags
// compare by their opaque value. "*" and an absent header yield "", which
// skips the precondition.
func ifMatchTag(h string) string {
	h = strings.TrimSpace(h)
	if h == "*" {
		return ""
	}
	h = strings.TrimPrefix(h, "W/")
	return strings.Trim(h, `"`)
}

// Subjects handles GET /api/subjects.
func (h *MindMapHandler) Subjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SubjectsResponse{Subjects: models.Subjects})
}

// List handles GET /api/mindmaps.
func (h *MindMapHandler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.svc.List(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		slog.Error("list mindmaps failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, MindMapListResponse{MindMaps: maps, Total: len(maps)})
}

// Get handles GET /api/mindmaps/{id}.
func (h *MindMapHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get mindmap failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	setETag(w, m)
	writeJSON(w, http.StatusOK, m)
}

// Create handles POST /api/mindmaps.
func (h *MindMapHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	m, err := h.svc.Create(r.Context(), d)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			slog.Error("create mindmap failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	setETag(w, m)
	writeJSON(w, http.StatusCreated, m)
}

// Update handles PUT and PATCH /api/mindmaps/{id}; both merge the given
// fields. If-Match enables optimistic concurrency.
func (h *MindMapHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p models.Patch
	if err := decodeJSON(w, r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	ifMatch := ifMatchTag(r.Header.Get("If-Match"))

	m, found, err := h.svc.Update(r.Context(), id, p, ifMatch)
	switch {
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusPreconditionFailed, errorBody("etag mismatch"))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case err != nil:
		slog.Error("update mindmap failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	case !found:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		setETag(w, m)
		writeJSON(w, http.StatusOK, m)
	}
}

// Delete handles DELETE /api/mindmaps/{id}. Deleting a missing id succeeds.
func (h *MindMapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Delete(r.Context(), id); err != nil {
		slog.Error("delete mindmap failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminOverview handles GET /api/admin/overview.
func (h *MindMapHandler) AdminOverview(w http.ResponseWriter, r *http.Request) {
	id, _ := authgate.FromContext(r.Context())
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("library stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, AdminOverviewResponse{Identity: id, Library: st, Subjects: models.Subjects})
}
