package usecase

import (
	"testing"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

func fp(v float64) *float64 { return &v }

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Golden Sparkler", Description: "handheld sparkler", Price: 50, Rating: 4.5, SoundLevel: domain.SoundLow, CategoryID: domain.CategoryRef{ID: "cat-spark"}, Tags: []string{"kids"}, Stock: 10},
		{ID: "p2", Name: "Thunder King", Description: "loud cracker", Price: 250, Rating: 4.0, SoundLevel: domain.SoundHigh, CategoryID: domain.CategoryRef{ID: "cat-bomb"}, Tags: []string{"diwali"}, Stock: 5},
		{ID: "p3", Name: "Color Fountain", Description: "silent color fountain", Price: 150, Rating: 3.5, SoundLevel: domain.SoundLow, CategoryID: domain.CategoryRef{ID: "cat-fount"}, Tags: []string{"diwali", "kids"}, Stock: 0},
		{ID: "p4", Name: "Sky Rocket", Description: "aerial shell", Price: 250, Rating: 4.8, SoundLevel: domain.SoundMedium, CategoryID: domain.CategoryRef{ID: "cat-bomb"}, IsNewArrival: true, Stock: 2},
	}
}

func ids(list []domain.Product) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterProducts(t *testing.T) {
	cases := []struct {
		name string
		f    domain.ProductFilter
		want []string
	}{
		{"no filter keeps order", domain.ProductFilter{}, []string{"p1", "p2", "p3", "p4"}},
		{"category", domain.ProductFilter{Category: "cat-bomb"}, []string{"p2", "p4"}},
		{"min price inclusive", domain.ProductFilter{MinPrice: fp(150)}, []string{"p2", "p3", "p4"}},
		{"max price inclusive", domain.ProductFilter{MaxPrice: fp(150)}, []string{"p1", "p3"}},
		{"price band", domain.ProductFilter{MinPrice: fp(100), MaxPrice: fp(200)}, []string{"p3"}},
		{"sound level", domain.ProductFilter{SoundLevel: domain.SoundLow}, []string{"p1", "p3"}},
		{"min rating", domain.ProductFilter{MinRating: fp(4.0)}, []string{"p1", "p2", "p4"}},
		{"query case-insensitive name", domain.ProductFilter{Query: "SPARK"}, []string{"p1"}},
		{"query matches description", domain.ProductFilter{Query: "aerial"}, []string{"p4"}},
		{"query matches tags", domain.ProductFilter{Query: "diwali"}, []string{"p2", "p3"}},
		{"composed", domain.ProductFilter{Category: "cat-bomb", MinRating: fp(4.5)}, []string{"p4"}},
		{"limit truncates after filtering", domain.ProductFilter{SoundLevel: domain.SoundLow, Limit: 1}, []string{"p1"}},
		{"limit larger than result", domain.ProductFilter{Category: "cat-bomb", Limit: 10}, []string{"p2", "p4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterProducts(sampleProducts(), tc.f)
			if !equalIDs(ids(got), tc.want) {
				t.Errorf("got %v, want %v", ids(got), tc.want)
			}
		})
	}
}

// Stage order must not matter: filtering by A then B equals filtering by both.
func TestFilterStagesCommute(t *testing.T) {
	list := sampleProducts()
	byCat := FilterProducts(list, domain.ProductFilter{Category: "cat-bomb"})
	both := FilterProducts(byCat, domain.ProductFilter{MinRating: fp(4.5)})
	direct := FilterProducts(list, domain.ProductFilter{Category: "cat-bomb", MinRating: fp(4.5)})
	if !equalIDs(ids(both), ids(direct)) {
		t.Errorf("staged %v != combined %v", ids(both), ids(direct))
	}
}

func TestSortProducts(t *testing.T) {
	cases := []struct {
		name string
		key  string
		want []string
	}{
		{"price low-high", domain.SortPriceLowHigh, []string{"p1", "p3", "p2", "p4"}},
		{"price high-low stable on ties", domain.SortPriceHighLow, []string{"p2", "p4", "p3", "p1"}},
		{"rating", domain.SortRating, []string{"p4", "p1", "p2", "p3"}},
		{"name", domain.SortName, []string{"p3", "p1", "p4", "p2"}},
		{"newest ranks flag first", domain.SortNewest, []string{"p4", "p1", "p2", "p3"}},
		{"unknown key preserves order", "bogus", []string{"p1", "p2", "p3", "p4"}},
		{"empty key preserves order", "", []string{"p1", "p2", "p3", "p4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list := sampleProducts()
			SortProducts(list, tc.key)
			if !equalIDs(ids(list), tc.want) {
				t.Errorf("got %v, want %v", ids(list), tc.want)
			}
		})
	}
}

// p2 and p4 share a price; stable sorting must keep their input order even
// when the input lists p4's duplicate-price entry first.
func TestSortStabilityOnEqualKeys(t *testing.T) {
	list := []domain.Product{
		{ID: "b", Price: 100},
		{ID: "a", Price: 100},
		{ID: "c", Price: 50},
	}
	SortProducts(list, domain.SortPriceLowHigh)
	if !equalIDs(ids(list), []string{"c", "b", "a"}) {
		t.Errorf("got %v, want [c b a]", ids(list))
	}
}
