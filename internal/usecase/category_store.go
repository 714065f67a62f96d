package usecase

import (
	"context"
	"sync"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

// CategoryStore is the single-writer, in-memory mirror of the backend's
// category list. Reads get snapshots; a refresh replaces the whole list or,
// on failure, clears it and records the message. There is no partial or
// stale retention.
type CategoryStore struct {
	api domain.CatalogAPI

	mu      sync.RWMutex
	items   []domain.Category
	lastErr string
	loaded  bool
}

func NewCategoryStore(api domain.CatalogAPI) *CategoryStore {
	return &CategoryStore{api: api}
}

func (s *CategoryStore) Refresh(ctx context.Context) error {
	list, err := s.api.ListCategories(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.items = nil
		s.loaded = false
		s.lastErr = err.Error()
		return err
	}
	s.items = list
	s.loaded = true
	s.lastErr = ""
	return nil
}

// EnsureLoaded fetches once if the store has never successfully loaded.
func (s *CategoryStore) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	ok := s.loaded
	s.mu.RUnlock()
	if ok {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *CategoryStore) All() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, len(s.items))
	copy(out, s.items)
	return out
}

// Lookup is a linear scan; category lists are small.
func (s *CategoryStore) Lookup(id string) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.items {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *CategoryStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Create forwards to the backend and, on success, prepends the canonical
// record. On failure the list is left untouched and the message recorded.
func (s *CategoryStore) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	created, err := s.api.CreateCategory(ctx, c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return domain.Category{}, err
	}
	s.items = append([]domain.Category{created}, s.items...)
	s.lastErr = ""
	return created, nil
}

func (s *CategoryStore) Update(ctx context.Context, id string, c domain.Category) (domain.Category, error) {
	updated, err := s.api.UpdateCategory(ctx, id, c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return domain.Category{}, err
	}
	replaced := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append(s.items, updated)
	}
	s.lastErr = ""
	return updated, nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteCategory(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	kept := s.items[:0:0]
	for _, c := range s.items {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.items = kept
	s.lastErr = ""
	return nil
}
