package domain

import "encoding/json"

type SoundLevel string

const (
	SoundLow    SoundLevel = "Low"
	SoundMedium SoundLevel = "Medium"
	SoundHigh   SoundLevel = "High"
	SoundMixed  SoundLevel = "Mixed"
)

// CategoryRef is a category reference as the backend sends it: either the
// bare id string or, when the endpoint populates the relation, an embedded
// object carrying the id. Both shapes normalize to the same key here so no
// caller ever branches on the representation again.
type CategoryRef struct {
	ID   string
	Name string
}

// Key returns the canonical category id regardless of which shape arrived.
func (r CategoryRef) Key() string { return r.ID }

func (r *CategoryRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.ID = s
		r.Name = ""
		return nil
	}
	var obj struct {
		OID  string `json:"_id"`
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.ID = obj.OID
	if r.ID == "" {
		r.ID = obj.ID
	}
	r.Name = obj.Name
	return nil
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if r.Name == "" {
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}{ID: r.ID, Name: r.Name})
}

type Product struct {
	ID               string            `json:"id"`
	CategoryID       CategoryRef       `json:"categoryId"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"shortDescription"`
	Images           []string          `json:"images"`
	MRP              float64           `json:"mrp"`
	Price            float64           `json:"price"`
	Rating           float64           `json:"rating"`
	ReviewCount      int               `json:"reviewCount"`
	SoundLevel       SoundLevel        `json:"soundLevel"`
	BurnTime         string            `json:"burnTime"`
	Stock            int               `json:"stock"`
	Features         []string          `json:"features"`
	Specifications   map[string]string `json:"specifications"`
	Tags             []string          `json:"tags"`
	IsBestSeller     bool              `json:"isBestSeller,omitempty"`
	IsOnSale         bool              `json:"isOnSale,omitempty"`
	IsNewArrival     bool              `json:"isNewArrival,omitempty"`
}

// InStock reports whether the product can be added to a cart.
func (p Product) InStock() bool { return p.Stock > 0 }

// HasTag does a case-sensitive membership check; tags are stored as the
// backend sends them.
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Sort keys accepted by the filter pipeline.
const (
	SortPriceLowHigh = "price-low-high"
	SortPriceHighLow = "price-high-low"
	SortRating       = "rating"
	SortName         = "name"
	SortNewest       = "newest"
)

// ProductFilter narrows the full product list down to one page's view.
// Nil pointer fields mean "no constraint". Price bounds are inclusive.
type ProductFilter struct {
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	SoundLevel SoundLevel
	MinRating  *float64
	Query      string
	Sort       string
	Limit      int
}
