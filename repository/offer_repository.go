package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
)

// Validity predicate shared by every active-offer query: active, inside the
// validity window, and under the usage cap. Open bounds are NULL.
const offerValidity = "is_active = TRUE" +
	" AND (starts_at IS NULL OR starts_at <= ?)" +
	" AND (ends_at IS NULL OR ends_at >= ?)" +
	" AND (max_uses IS NULL OR used_count < max_uses)"

// OfferRepository defines the interface for offer data access.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	// FindActive returns every currently-valid offer.
	FindActive(ctx context.Context, now time.Time) ([]models.Offer, error)
	// FindApplicable returns currently-valid offers whose scope touches the
	// given product or category, including store-wide offers.
	FindApplicable(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID, now time.Time) ([]models.Offer, error)
	IncrementUsedCount(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// GormOfferRepository implements OfferRepository using GORM.
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository.
func NewGormOfferRepository(db *gorm.DB) OfferRepository {
	return &GormOfferRepository{db: db}
}

func (r *GormOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *GormOfferRepository) FindActive(ctx context.Context, now time.Time) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where(offerValidity, now, now).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *GormOfferRepository) FindApplicable(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID, now time.Time) ([]models.Offer, error) {
	query := r.db.WithContext(ctx).Where(offerValidity, now, now)

	if categoryID != nil {
		query = query.Where(
			"(product_id = ? OR category_id = ? OR (product_id IS NULL AND category_id IS NULL))",
			productID, *categoryID,
		)
	} else {
		query = query.Where(
			"(product_id = ? OR (product_id IS NULL AND category_id IS NULL))",
			productID,
		)
	}

	var offers []models.Offer
	if err := query.Order("discount_percent DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *GormOfferRepository) IncrementUsedCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).
		Error
}

func (r *GormOfferRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
