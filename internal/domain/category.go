package domain

// Category is a catalog category as served by the upstream backend. The
// backend's _id is normalized to ID at ingestion and never surfaces again.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	HeroImage   string `json:"heroImage"`

	// ProductCount is derived by counting matching products. It is never
	// persisted and never comes from the backend.
	ProductCount int `json:"productCount,omitempty"`
}
