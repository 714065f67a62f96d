package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/akashffjdn/Crackers-sub000/internal/domain"
)

type CollectionRepo struct{ db *gorm.DB }

func NewCollectionRepo(db *gorm.DB) *CollectionRepo { return &CollectionRepo{db: db} }

// List returns collections ordered by sort_order ascending, ties broken by
// creation time so repeated fetches keep a stable order.
func (r *CollectionRepo) List(ctx context.Context, activeOnly bool) ([]domain.FestivalCollection, error) {
	var list []domain.FestivalCollection
	q := r.db.WithContext(ctx).Model(&domain.FestivalCollection{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("sort_order asc").Order("created_at asc").
		Preload("CustomPacks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CollectionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.FestivalCollection, error) {
	var c domain.FestivalCollection
	err := r.db.WithContext(ctx).
		Preload("CustomPacks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CollectionRepo) FindBySlug(ctx context.Context, slug string) (*domain.FestivalCollection, error) {
	var c domain.FestivalCollection
	err := r.db.WithContext(ctx).
		Preload("CustomPacks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&c, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CollectionRepo) Save(ctx context.Context, c *domain.FestivalCollection) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CollectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&domain.ProductPack{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.FestivalCollection{}, "id = ?", id).Error
	})
}

func (r *CollectionRepo) SavePack(ctx context.Context, p *domain.ProductPack) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *CollectionRepo) DeletePack(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.ProductPack{}, "id = ?", id).Error
}
