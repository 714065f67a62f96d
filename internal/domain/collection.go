package domain

import (
	"time"

	"github.com/google/uuid"
)

// FestivalCollection is an admin-curated storefront section ("Diwali Special").
// Unlike products and categories it is owned by this service, not the upstream
// catalog backend.
type FestivalCollection struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title                 string        `gorm:"size:180" json:"title"`
	Description           string        `gorm:"type:text" json:"description"`
	Slug                  string        `gorm:"uniqueIndex;size:140" json:"slug"`
	Color                 string        `gorm:"size:80" json:"color"`
	Image                 string        `gorm:"size:255" json:"image"`
	IsActive              bool          `gorm:"default:true;index" json:"isActive"`
	SortOrder             int           `gorm:"default:0;index" json:"sortOrder"`
	Tags                  []string      `gorm:"type:jsonb;serializer:json" json:"tags"`
	AssignedProducts      []string      `gorm:"type:jsonb;serializer:json" json:"assignedProducts"`
	ShowAllTaggedProducts bool          `gorm:"default:false" json:"showAllTaggedProducts"`
	CustomPacks           []ProductPack `gorm:"foreignKey:CollectionID" json:"customPacks"`
	CreatedAt             time.Time     `json:"-"`
	UpdatedAt             time.Time     `json:"-"`
}

// ProductPack is a fixed bundle of specific products sold as one line item at
// a bundle price. Items are a snapshot, not a live query.
type ProductPack struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CollectionID uuid.UUID  `gorm:"type:uuid;index" json:"collectionId"`
	Name         string     `gorm:"size:180" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Price        float64    `gorm:"type:decimal(12,2)" json:"price"`
	MRP          float64    `gorm:"type:decimal(12,2)" json:"mrp"`
	Image        string     `gorm:"size:255" json:"image"`
	Items        []PackItem `gorm:"type:jsonb;serializer:json" json:"products"`
	IsActive     bool       `gorm:"default:true;index" json:"isActive"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

type PackItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
