package usecase

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

// FilterProducts reduces the full product list to what one page renders.
// The stages are independent and commutative; the order below only matters
// for early exit. Sorting is stable throughout since no secondary key is
// defined.
func FilterProducts(list []domain.Product, f domain.ProductFilter) []domain.Product {
	out := make([]domain.Product, 0, len(list))
	for _, p := range list {
		if f.Category != "" && p.CategoryID.Key() != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.SoundLevel != "" && p.SoundLevel != f.SoundLevel {
			continue
		}
		if f.MinRating != nil && p.Rating < *f.MinRating {
			continue
		}
		if f.Query != "" && !matchesQuery(p, f.Query) {
			continue
		}
		out = append(out, p)
	}
	SortProducts(out, f.Sort)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// matchesQuery is a case-insensitive substring match against name,
// description, and tags. Substring, not token match.
func matchesQuery(p domain.Product, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// SortProducts orders list in place by the given key. Unknown or empty keys
// leave the input order alone. "newest" sorts only by the IsNewArrival flag;
// there is no timestamp on products, so all new arrivals rank as equals and
// everything else keeps its relative order.
func SortProducts(list []domain.Product, key string) {
	switch key {
	case domain.SortPriceLowHigh:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
	case domain.SortPriceHighLow:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price > list[j].Price })
	case domain.SortRating:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Rating > list[j].Rating })
	case domain.SortName:
		c := collate.New(language.English)
		sort.SliceStable(list, func(i, j int) bool { return c.CompareString(list[i].Name, list[j].Name) < 0 })
	case domain.SortNewest:
		sort.SliceStable(list, func(i, j int) bool { return list[i].IsNewArrival && !list[j].IsNewArrival })
	}
}
