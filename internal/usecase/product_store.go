package usecase

import (
	"context"
	"sync"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

// ProductStore mirrors the backend's product list with the same
// replace-or-clear refresh semantics as CategoryStore. Mutations reconcile
// the local list with the server's returned record instead of refetching.
type ProductStore struct {
	api domain.CatalogAPI

	mu      sync.RWMutex
	items   []domain.Product
	lastErr string
	loaded  bool
}

func NewProductStore(api domain.CatalogAPI) *ProductStore {
	return &ProductStore{api: api}
}

func (s *ProductStore) Refresh(ctx context.Context) error {
	list, err := s.api.ListProducts(ctx)
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

func (s *ProductStore) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	ok := s.loaded
	s.mu.RUnlock()
	if ok {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *ProductStore) All() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, len(s.items))
	copy(out, s.items)
	return out
}

func (s *ProductStore) Lookup(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// ByCategory returns products whose category reference resolves to the given
// id, whichever shape the backend sent it in. A positive limit truncates the
// result after filtering; original order is preserved either way.
func (s *ProductStore) ByCategory(categoryID string, limit int) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Product{}
	for _, p := range s.items {
		if p.CategoryID.Key() != categoryID {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// CountByCategory backs the derived Category.ProductCount field.
func (s *ProductStore) CountByCategory(categoryID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.items {
		if p.CategoryID.Key() == categoryID {
			n++
		}
	}
	return n
}

func (s *ProductStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *ProductStore) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	created, err := s.api.CreateProduct(ctx, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return domain.Product{}, err
	}
	s.items = append([]domain.Product{created}, s.items...)
	s.lastErr = ""
	return created, nil
}

func (s *ProductStore) Update(ctx context.Context, id string, p domain.Product) (domain.Product, error) {
	updated, err := s.api.UpdateProduct(ctx, id, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return domain.Product{}, err
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

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	err := s.api.DeleteProduct(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	kept := s.items[:0:0]
	for _, p := range s.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.items = kept
	s.lastErr = ""
	return nil
}
