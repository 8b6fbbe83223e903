package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

// OfferService defines the interface for automatically-applied promotions.
type OfferService interface {
	CreateOffer(ctx context.Context, req *models.CreateOfferRequest) (*models.Offer, *ServiceError)
	ListActiveOffers(ctx context.Context) ([]models.Offer, *ServiceError)
	// GetApplicableOffers returns every currently-valid offer touching the
	// given product, including store-wide offers.
	GetApplicableOffers(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID) ([]models.Offer, *ServiceError)
	// BestLineDiscount evaluates offers per line item and returns the
	// discount from the single best offer, with that offer, or (0, nil)
	// when nothing applies.
	BestLineDiscount(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID, lineAmount float64) (float64, *models.Offer, *ServiceError)
	RecordOfferUse(ctx context.Context, offerID uuid.UUID)
	DeactivateOffer(ctx context.Context, id uuid.UUID) *ServiceError
}

type offerServiceImpl struct {
	repo   repository.OfferRepository
	logger *zap.Logger
}

// NewOfferService creates a new OfferService.
func NewOfferService(repo repository.OfferRepository, logger *zap.Logger) OfferService {
	return &offerServiceImpl{repo: repo, logger: logger}
}

func (s *offerServiceImpl) CreateOffer(ctx context.Context, req *models.CreateOfferRequest) (*models.Offer, *ServiceError) {
	if req.ProductID != nil && req.CategoryID != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Offer may target a product or a category, not both"}
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, &ServiceError{StatusCode: 400, Message: "Validity window end must be after start"}
	}

	offer := &models.Offer{
		Name:            req.Name,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		ProductID:       req.ProductID,
		CategoryID:      req.CategoryID,
		IsActive:        true,
		MaxUses:         req.MaxUses,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Conditions:      req.Conditions,
		ImageURL:        req.ImageURL,
		BannerText:      req.BannerText,
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		s.logger.Error("Failed to create offer", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create offer"}
	}

	s.logger.Info("Offer created", zap.String("id", offer.ID.String()), zap.String("name", offer.Name))
	return offer, nil
}

func (s *offerServiceImpl) ListActiveOffers(ctx context.Context) ([]models.Offer, *ServiceError) {
	offers, err := s.repo.FindActive(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to list offers", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to list offers"}
	}
	return offers, nil
}

func (s *offerServiceImpl) GetApplicableOffers(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID) ([]models.Offer, *ServiceError) {
	offers, err := s.repo.FindApplicable(ctx, productID, categoryID, time.Now())
	if err != nil {
		s.logger.Error("Failed to find applicable offers",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to find offers"}
	}
	return offers, nil
}

func (s *offerServiceImpl) BestLineDiscount(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID, lineAmount float64) (float64, *models.Offer, *ServiceError) {
	offers, svcErr := s.GetApplicableOffers(ctx, productID, categoryID)
	if svcErr != nil {
		return 0, nil, svcErr
	}

	var best *models.Offer
	for i := range offers {
		if !offers[i].AppliesTo(productID, categoryID) {
			continue
		}
		if best == nil || offers[i].DiscountPercent > best.DiscountPercent {
			best = &offers[i]
		}
	}
	if best == nil {
		return 0, nil, nil
	}
	return round2(lineAmount * best.DiscountPercent / 100), best, nil
}

// RecordOfferUse bumps the usage counter. Best-effort: a failure here never
// blocks the order.
func (s *offerServiceImpl) RecordOfferUse(ctx context.Context, offerID uuid.UUID) {
	if err := s.repo.IncrementUsedCount(ctx, offerID); err != nil {
		s.logger.Error("Failed to record offer use",
			zap.String("offer_id", offerID.String()),
			zap.Error(err),
		)
	}
}

func (s *offerServiceImpl) DeactivateOffer(ctx context.Context, id uuid.UUID) *ServiceError {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Offer not found"}
		}
		s.logger.Error("Failed to deactivate offer", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate offer"}
	}
	return nil
}
