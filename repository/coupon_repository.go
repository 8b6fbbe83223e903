package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/daniilbelik94/online-shop-sub002/models"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	// FindByCode retrieves an active coupon by its code, case-insensitively.
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
	Deactivate(ctx context.Context, code string) error
	// RecordUsage inserts a usage row for (coupon, user, order) and bumps
	// used_count, but only once per triple: a repeated call is a no-op and
	// reports applied=false.
	RecordUsage(ctx context.Context, usage *models.CouponUsage) (applied bool, err error)
	HasUsed(ctx context.Context, couponID, userID uuid.UUID) (bool, error)
}

// GormCouponRepository implements CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) CouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ? AND is_active = ?", strings.ToLower(code), true).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCouponRepository) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

func (r *GormCouponRepository) Deactivate(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormCouponRepository) RecordUsage(ctx context.Context, usage *models.CouponUsage) (bool, error) {
	var applied bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "coupon_id"}, {Name: "user_id"}, {Name: "order_id"}},
			DoNothing: true,
		}).Create(usage)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Same triple already recorded; used_count must not move again.
			return nil
		}
		applied = true
		return tx.Model(&models.Coupon{}).
			Where("id = ?", usage.CouponID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1")).
			Error
	})
	return applied, err
}

func (r *GormCouponRepository) HasUsed(ctx context.Context, couponID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count > 0, err
}
