// Package mindmap stores and manages user-authored mind maps.
package mindmap

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/starford/mindatlas/internal/models"
	"github.com/starford/mindatlas/internal/storage"
)

// Key is the storage key holding the serialized collection.
const Key = "mindmaps"

// Repository is the document store. Misses on Update and Delete are
// idempotent: they report found=false with a nil error.
type Repository interface {
	List(ctx context.Context) ([]models.MindMap, error)
	Get(ctx context.Context, id string) (models.MindMap, bool, error)
	Create(ctx context.Context, d models.Draft) (models.MindMap, error)
	Update(ctx context.Context, id string, p models.Patch) (models.MindMap, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// KVRepository keeps the whole collection as one JSON value and rewrites
// it on every mutation.
type KVRepository struct {
	kv    storage.Provider
	now   func() time.Time
	newID func() (string, error)
	seed  func(newID func() (string, error)) ([]models.MindMap, error)

	mu sync.Mutex
}

var _ Repository = (*KVRepository)(nil)

// RepoOption configures a KVRepository.
type RepoOption func(*KVRepository)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) RepoOption {
	return func(r *KVRepository) { r.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() (string, error)) RepoOption {
	return func(r *KVRepository) { r.newID = fn }
}

// WithoutSeed starts new collections empty instead of with the sample library.
func WithoutSeed() RepoOption {
	return func(r *KVRepository) {
		r.seed = func(func() (string, error)) ([]models.MindMap, error) { return []models.MindMap{}, nil }
	}
}

// NewKVRepository creates a repository over kv.
func NewKVRepository(kv storage.Provider, opts ...RepoOption) *KVRepository {
	r := &KVRepository{
		kv:    kv,
		now:   time.Now,
		newID: func() (string, error) { return gonanoid.New() },
		seed:  SampleLibrary,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// load reads the collection, seeding and persisting it on first access.
// Callers must hold r.mu.
func (r *KVRepository) load(ctx context.Context) ([]models.MindMap, error) {
	raw, ok, err := r.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("mindmap: load: %w", err)
	}
	if !ok {
		maps, err := r.seed(r.newID)
		if err != nil {
			return nil, fmt.Errorf("mindmap: seed: %w", err)
		}
		if err := r.save(ctx, maps); err != nil {
			return nil, err
		}
		return maps, nil
	}
	var maps []models.MindMap
	if err := json.Unmarshal([]byte(raw), &maps); err != nil {
		return nil, fmt.Errorf("mindmap: decode collection: %w", err)
	}
	return maps, nil
}

func (r *KVRepository) save(ctx context.Context, maps []models.MindMap) error {
	if maps == nil {
		maps = []models.MindMap{}
	}
	data, err := json.Marshal(maps)
	if err != nil {
		return fmt.Errorf("mindmap: encode collection: %w", err)
	}
	if err := r.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("mindmap: save: %w", err)
	}
	return nil
}

// tick returns a timestamp strictly after prev.
func (r *KVRepository) tick(prev time.Time) time.Time {
	now := r.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// List returns every mind map, newest first.
func (r *KVRepository) List(ctx context.Context) ([]models.MindMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Get finds a mind map by id.
func (r *KVRepository) Get(ctx context.Context, id string) (models.MindMap, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps, err := r.load(ctx)
	if err != nil {
		return models.MindMap{}, false, err
	}
	for _, m := range maps {
		if m.ID == id {
			return m, true, nil
		}
	}
	return models.MindMap{}, false, nil
}

// Create assigns an id and timestamps and prepends the new map.
func (r *KVRepository) Create(ctx context.Context, d models.Draft) (models.MindMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps, err := r.load(ctx)
	if err != nil {
		return models.MindMap{}, err
	}
	id, err := r.newID()
	if err != nil {
		return models.MindMap{}, fmt.Errorf("mindmap: generate id: %w", err)
	}
	now := r.tick(time.Time{})
	m := models.MindMap{
		ID:        id,
		Title:     d.Title,
		Subject:   d.Subject,
		Nodes:     nonNilSlice(d.Nodes),
		Edges:     nonNilSlice(d.Edges),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.save(ctx, append([]models.MindMap{m}, maps...)); err != nil {
		return models.MindMap{}, err
	}
	return m, nil
}

// Update merges p into the map with the given id and refreshes UpdatedAt.
func (r *KVRepository) Update(ctx context.Context, id string, p models.Patch) (models.MindMap, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps, err := r.load(ctx)
	if err != nil {
		return models.MindMap{}, false, err
	}
	for i, m := range maps {
		if m.ID != id {
			continue
		}
		merged := p.Apply(m)
		merged.ID = m.ID
		merged.CreatedAt = m.CreatedAt
		merged.Nodes = nonNilSlice(merged.Nodes)
		merged.Edges = nonNilSlice(merged.Edges)
		merged.UpdatedAt = r.tick(m.UpdatedAt)
		maps[i] = merged
		if err := r.save(ctx, maps); err != nil {
			return models.MindMap{}, false, err
		}
		return merged, true, nil
	}
	return models.MindMap{}, false, nil
}

// Delete removes the map with the given id.
func (r *KVRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	kept := maps[:0]
	found := false
	for _, m := range maps {
		if m.ID == id {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return false, nil
	}
	if err := r.save(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
