package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CatalogAPI is the upstream REST backend that owns products and categories.
// Implementations normalize _id to ID before returning anything.
type CatalogAPI interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, id string, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CollectionRepo interface {
	List(ctx context.Context, activeOnly bool) ([]FestivalCollection, error)
	FindByID(ctx context.Context, id uuid.UUID) (*FestivalCollection, error)
	FindBySlug(ctx context.Context, slug string) (*FestivalCollection, error)
	Save(ctx context.Context, c *FestivalCollection) error
	Delete(ctx context.Context, id uuid.UUID) error

	SavePack(ctx context.Context, p *ProductPack) error
	DeletePack(ctx context.Context, id uuid.UUID) error
}

type OrderRepo interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, status *OrderStatus, page, pageSize int) ([]Order, int64, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]Order, error)
}

type CustomerRepo interface {
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}
