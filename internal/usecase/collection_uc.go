package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

type CollectionUC struct {
	Collections domain.CollectionRepo
	Products    *ProductStore
}

// ErrSlugTaken is returned when a save would reuse another collection's slug.
var ErrSlugTaken = errors.New("slug already in use")

// ResolveProducts computes the display set for a collection: the assigned
// products in curated order, then tag matches when enabled, deduplicated by
// id keeping the first occurrence. Unknown product ids are skipped; curated
// lists and the catalog drift independently and that is not an error.
func ResolveProducts(c domain.FestivalCollection, catalog []domain.Product) []domain.Product {
	assigned := map[string]bool{}
	out := []domain.Product{}
	for _, id := range c.AssignedProducts {
		assigned[id] = true
		for _, p := range catalog {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	if c.ShowAllTaggedProducts && len(c.Tags) > 0 {
		for _, p := range catalog {
			if assigned[p.ID] {
				continue
			}
			if tagsIntersect(p.Tags, c.Tags) {
				out = append(out, p)
			}
		}
	}
	// Final dedup is a safety net against inconsistent curated data; the
	// exclusion above should already keep ids unique.
	seen := map[string]bool{}
	deduped := out[:0:0]
	for _, p := range out {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		deduped = append(deduped, p)
	}
	return deduped
}

func tagsIntersect(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// PackSavings is what the bundle saves against buying its items separately:
// max(0, sum(unitPrice*qty) - pack price). Items referencing products
// missing from the catalog contribute zero; a pack never reports negative
// savings even when misconfigured.
func PackSavings(p domain.ProductPack, lookup func(id string) (domain.Product, bool)) float64 {
	total := 0.0
	for _, it := range p.Items {
		if prod, ok := lookup(it.ProductID); ok {
			total += prod.Price * float64(it.Quantity)
		}
	}
	savings := total - p.Price
	if savings < 0 {
		return 0
	}
	return savings
}

// SearchCollections filters active collections by a case-insensitive
// substring match against title, description, and tags. Input order is
// preserved, which the repo guarantees to be sort_order ascending with ties
// in original fetch order.
func SearchCollections(list []domain.FestivalCollection, query string) []domain.FestivalCollection {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []domain.FestivalCollection{}
	for _, c := range list {
		if !c.IsActive {
			continue
		}
		if q == "" || collectionMatches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func collectionMatches(c domain.FestivalCollection, q string) bool {
	if strings.Contains(strings.ToLower(c.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Description), q) {
		return true
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (uc *CollectionUC) List(ctx context.Context, activeOnly bool) ([]domain.FestivalCollection, error) {
	return uc.Collections.List(ctx, activeOnly)
}

func (uc *CollectionUC) GetBySlug(ctx context.Context, s string) (*domain.FestivalCollection, error) {
	if s == "" {
		return nil, errors.New("empty slug")
	}
	return uc.Collections.FindBySlug(ctx, s)
}

func (uc *CollectionUC) Search(ctx context.Context, query string) ([]domain.FestivalCollection, error) {
	list, err := uc.Collections.List(ctx, true)
	if err != nil {
		return nil, err
	}
	return SearchCollections(list, query), nil
}

// Resolve loads the catalog snapshot and computes the collection's display set.
func (uc *CollectionUC) Resolve(c domain.FestivalCollection) []domain.Product {
	return ResolveProducts(c, uc.Products.All())
}

func (uc *CollectionUC) Create(ctx context.Context, c *domain.FestivalCollection) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s, err := uc.uniqueSlug(ctx, c.Title, c.ID)
	if err != nil {
		return err
	}
	c.Slug = s
	return uc.Collections.Save(ctx, c)
}

func (uc *CollectionUC) Update(ctx context.Context, c *domain.FestivalCollection) error {
	if c.ID == uuid.Nil {
		return errors.New("collection id")
	}
	if c.Slug == "" {
		s, err := uc.uniqueSlug(ctx, c.Title, c.ID)
		if err != nil {
			return err
		}
		c.Slug = s
	} else {
		existing, err := uc.Collections.FindBySlug(ctx, c.Slug)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err == nil && existing.ID != c.ID {
			return ErrSlugTaken
		}
	}
	return uc.Collections.Save(ctx, c)
}

func (uc *CollectionUC) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("collection id")
	}
	return uc.Collections.Delete(ctx, id)
}

// uniqueSlug derives a URL-safe slug from the title, suffixing a counter
// when another collection already owns it.
func (uc *CollectionUC) uniqueSlug(ctx context.Context, title string, self uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = self.String()[:8]
	}
	candidate := base
	for i := 2; ; i++ {
		existing, err := uc.Collections.FindBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if existing.ID == self {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// --- Packs ---

// ActivePacks returns the collection's active packs in stored order.
func (uc *CollectionUC) ActivePacks(c domain.FestivalCollection) []domain.ProductPack {
	out := []domain.ProductPack{}
	for _, p := range c.CustomPacks {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// PackByID is a direct scan over the collection's packs.
func (uc *CollectionUC) PackByID(c domain.FestivalCollection, packID uuid.UUID) (domain.ProductPack, bool) {
	for _, p := range c.CustomPacks {
		if p.ID == packID {
			return p, true
		}
	}
	return domain.ProductPack{}, false
}

func (uc *CollectionUC) SavePack(ctx context.Context, collectionID uuid.UUID, p *domain.ProductPack) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CollectionID = collectionID
	for _, it := range p.Items {
		if it.Quantity <= 0 {
			return errors.New("pack item quantity must be positive")
		}
	}
	return uc.Collections.SavePack(ctx, p)
}

func (uc *CollectionUC) DeletePack(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("pack id")
	}
	return uc.Collections.DeletePack(ctx, id)
}
