package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

// CouponService defines the interface for coupon business logic.
type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	// ValidateCoupon evaluates a coupon against an order context. An
	// inapplicable coupon yields a Valid=false response, never an error.
	ValidateCoupon(ctx context.Context, userID *uuid.UUID, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError)
	// EvaluateCoupon is the order-workflow entry point. When the coupon does
	// not apply it returns (nil, reason, nil); hard failures return a
	// ServiceError.
	EvaluateCoupon(ctx context.Context, userID *uuid.UUID, code string, orderAmount float64, productIDs, categoryIDs []uuid.UUID) (*models.Coupon, string, *ServiceError)
	// ComputeDiscount computes the discount a valid coupon grants for the
	// given subtotal. Free-shipping coupons discount the shipping cost,
	// which the caller supplies.
	ComputeDiscount(coupon *models.Coupon, subtotal, shippingCost float64) float64
	// RecordUsage records one application of the coupon to an order,
	// idempotently per (coupon, user, order).
	RecordUsage(ctx context.Context, coupon *models.Coupon, userID, orderID uuid.UUID, discount float64) error
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo      repository.CouponRepository
	orderRepo repository.OrderRepository
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(
	repo repository.CouponRepository,
	orderRepo repository.OrderRepository,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) CouponService {
	return &couponServiceImpl{
		repo:      repo,
		orderRepo: orderRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		return nil, &ServiceError{StatusCode: 400, Message: "Percentage discount cannot exceed 100"}
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, &ServiceError{StatusCode: 400, Message: "Validity window end must be after start"}
	}
	if req.EndsAt != nil && req.EndsAt.Before(time.Now()) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be in the future"}
	}

	coupon := &models.Coupon{
		Code:                 strings.ToUpper(req.Code),
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 req.Type,
		Value:                req.Value,
		MinOrderAmount:       req.MinOrderAmount,
		MaxDiscountAmount:    req.MaxDiscountAmount,
		IsActive:             true,
		SingleUse:            req.SingleUse,
		MaxUses:              req.MaxUses,
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		FirstTimeOnly:        req.FirstTimeOnly,
		ApplicableProducts:   models.UUIDList(req.ApplicableProducts),
		ExcludedProducts:     models.UUIDList(req.ExcludedProducts),
		ApplicableCategories: models.UUIDList(req.ApplicableCategories),
		ExcludedCategories:   models.UUIDList(req.ExcludedCategories),
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, &ServiceError{StatusCode: 409, Message: "Coupon code already exists"}
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create coupon"}
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

func (s *couponServiceImpl) ValidateCoupon(ctx context.Context, userID *uuid.UUID, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError) {
	coupon, reason, svcErr := s.EvaluateCoupon(ctx, userID, req.Code, req.OrderAmount, req.ProductIDs, req.CategoryIDs)
	if svcErr != nil {
		return nil, svcErr
	}
	if coupon == nil {
		return &models.ValidateCouponResponse{
			Valid:   false,
			Code:    strings.ToUpper(req.Code),
			Message: reason,
		}, nil
	}

	// Shipping is unknown at validation time, so a free-shipping coupon
	// previews as zero discount.
	discount := s.ComputeDiscount(coupon, req.OrderAmount, 0)
	return &models.ValidateCouponResponse{
		Valid:          true,
		Code:           coupon.Code,
		Type:           coupon.Type,
		DiscountAmount: discount,
		Message:        "Coupon applied successfully",
	}, nil
}

func (s *couponServiceImpl) EvaluateCoupon(ctx context.Context, userID *uuid.UUID, code string, orderAmount float64, productIDs, categoryIDs []uuid.UUID) (*models.Coupon, string, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		// FindByCode only surfaces active coupons; anything else is unknown.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "Coupon not found or inactive", nil
		}
		s.logger.Error("Failed to look up coupon", zap.String("code", code), zap.Error(err))
		return nil, "", &ServiceError{StatusCode: 500, Message: "Failed to validate coupon"}
	}

	if !coupon.IsWithinWindow(time.Now()) {
		return nil, "Coupon is not currently valid", nil
	}
	if coupon.IsExhausted() {
		return nil, "Coupon usage limit reached", nil
	}
	if orderAmount < coupon.MinOrderAmount {
		return nil, fmt.Sprintf("Minimum order amount of %.2f required", coupon.MinOrderAmount), nil
	}

	if !scopeEligible(coupon, productIDs, categoryIDs) {
		return nil, "Coupon does not apply to these items", nil
	}

	if userID != nil {
		if coupon.SingleUse {
			used, err := s.repo.HasUsed(ctx, coupon.ID, *userID)
			if err != nil {
				s.logger.Error("Failed to check coupon usage", zap.Error(err))
				return nil, "", &ServiceError{StatusCode: 500, Message: "Failed to validate coupon"}
			}
			if used {
				return nil, "Coupon already used", nil
			}
		}
		if coupon.FirstTimeOnly {
			count, err := s.orderRepo.CountByUser(ctx, *userID)
			if err != nil {
				s.logger.Error("Failed to count user orders", zap.Error(err))
				return nil, "", &ServiceError{StatusCode: 500, Message: "Failed to validate coupon"}
			}
			if count > 0 {
				return nil, "Coupon is for first-time customers only", nil
			}
		}
	} else if coupon.SingleUse || coupon.FirstTimeOnly {
		return nil, "Coupon requires a registered account", nil
	}

	return coupon, "", nil
}

// scopeEligible applies the coupon scope rule: any excluded item disqualifies
// the whole order; when an applicable list is non-empty, at least one item
// must match it.
func scopeEligible(coupon *models.Coupon, productIDs, categoryIDs []uuid.UUID) bool {
	for _, pid := range productIDs {
		if coupon.ExcludedProducts.Contains(pid) {
			return false
		}
	}
	for _, cid := range categoryIDs {
		if coupon.ExcludedCategories.Contains(cid) {
			return false
		}
	}

	if len(coupon.ApplicableProducts) == 0 && len(coupon.ApplicableCategories) == 0 {
		return true
	}
	for _, pid := range productIDs {
		if coupon.ApplicableProducts.Contains(pid) {
			return true
		}
	}
	for _, cid := range categoryIDs {
		if coupon.ApplicableCategories.Contains(cid) {
			return true
		}
	}
	return false
}

func (s *couponServiceImpl) ComputeDiscount(coupon *models.Coupon, subtotal, shippingCost float64) float64 {
	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = subtotal * coupon.Value / 100
		if coupon.MaxDiscountAmount != nil && discount > *coupon.MaxDiscountAmount {
			discount = *coupon.MaxDiscountAmount
		}
	case models.CouponTypeFixed:
		discount = coupon.Value
		if discount > subtotal {
			discount = subtotal
		}
	case models.CouponTypeFreeShipping:
		discount = shippingCost
	}
	return round2(discount)
}

func (s *couponServiceImpl) RecordUsage(ctx context.Context, coupon *models.Coupon, userID, orderID uuid.UUID, discount float64) error {
	applied, err := s.repo.RecordUsage(ctx, &models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
	})
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Info("Coupon usage already recorded",
			zap.String("code", coupon.Code),
			zap.String("order_id", orderID.String()),
		)
		return nil
	}

	s.logger.Info("Coupon applied",
		zap.String("code", coupon.Code),
		zap.String("order_id", orderID.String()),
		zap.Float64("discount", discount),
	)
	if s.metrics != nil {
		go s.metrics.RecordCount(context.Background(), awspkg.MetricCouponsApplied, nil)
	}
	return nil
}

func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Coupon not found"}
		}
		s.logger.Error("Failed to look up coupon", zap.String("code", code), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to get coupon"}
	}
	return coupon, nil
}

func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Coupon not found"}
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate coupon"}
	}

	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list coupons"}
	}
	return coupons, total, nil
}
