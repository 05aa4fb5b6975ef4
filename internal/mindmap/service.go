package mindmap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/starford/mindatlas/internal/apperr"
	"github.com/starford/mindatlas/internal/checksum"
	"github.com/starford/mindatlas/internal/models"
)

// Event kinds passed to a Publisher.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Publisher receives document change notifications.
type Publisher interface {
	PublishDocumentEvent(kind, id string)
}

// Stats summarizes the library for the admin overview.
type Stats struct {
	Total       int            `json:"total"`
	BySubject   map[string]int `json:"by_subject"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
}

// Service validates input, enforces optimistic concurrency and announces
// changes on top of a Repository.
type Service struct {
	repo   Repository
	events Publisher

	// mu serializes check-then-write sequences (If-Match).
	mu sync.Mutex
}

// NewService creates a service. events may be nil.
func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events}
}

// ETag returns the entity tag of m.
func ETag(m models.MindMap) string {
	tag, err := checksum.Of(m)
	if err != nil {
		return ""
	}
	return tag
}

func (s *Service) publish(kind, id string) {
	if s.events != nil {
		s.events.PublishDocumentEvent(kind, id)
	}
}

// List returns all mind maps, optionally restricted to one subject.
func (s *Service) List(ctx context.Context, subject string) ([]models.MindMap, error) {
	maps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return maps, nil
	}
	out := make([]models.MindMap, 0, len(maps))
	for _, m := range maps {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out, nil
}

// Get returns the map with the given id or apperr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (models.MindMap, error) {
	m, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.MindMap{}, err
	}
	if !ok {
		return models.MindMap{}, apperr.ErrNotFound
	}
	return m, nil
}

// Create validates d and stores it as a new mind map.
func (s *Service) Create(ctx context.Context, d models.Draft) (models.MindMap, error) {
	d = normalizeDraft(d)
	if err := validate(models.MindMap{Title: d.Title, Subject: d.Subject, Nodes: d.Nodes, Edges: d.Edges}); err != nil {
		return models.MindMap{}, err
	}
	m, err := s.repo.Create(ctx, d)
	if err != nil {
		return models.MindMap{}, err
	}
	s.publish(EventCreated, m.ID)
	return m, nil
}

// Update merges p into the map with the given id. When ifMatch is non-empty
// it must equal the current ETag. found is false when no such map exists.
func (s *Service) Update(ctx context.Context, id string, p models.Patch, ifMatch string) (m models.MindMap, found bool, err error) {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.repo.Get(ctx, id)
	if err != nil || !ok {
		return models.MindMap{}, false, err
	}
	if ifMatch != "" && ifMatch != ETag(current) {
		return models.MindMap{}, true, apperr.ErrConflict
	}
	if err := validate(p.Apply(current)); err != nil {
		return models.MindMap{}, true, err
	}

	m, found, err = s.repo.Update(ctx, id, p)
	if err != nil || !found {
		return m, found, err
	}
	s.publish(EventUpdated, id)
	return m, true, nil
}

// Delete removes the map with the given id. Deleting a missing map is a
// no-op that reports found=false.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	if found {
		s.publish(EventDeleted, id)
	}
	return found, nil
}

// Stats counts maps per catalog subject.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	maps, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(maps), BySubject: make(map[string]int, len(models.Subjects))}
	for _, sub := range models.Subjects {
		st.BySubject[sub.ID] = 0
	}
	for _, m := range maps {
		st.BySubject[m.Subject]++
		if st.LastUpdated == nil || m.UpdatedAt.After(*st.LastUpdated) {
			t := m.UpdatedAt
			st.LastUpdated = &t
		}
	}
	return st, nil
}
