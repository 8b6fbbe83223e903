package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

// ProductService defines the interface for catalog and inventory logic.
type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, *ServiceError)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, *ServiceError)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *ServiceError)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, *ServiceError)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, *ServiceError)
	ListLowStock(ctx context.Context) ([]models.Product, *ServiceError)
	// AdjustStock applies a signed delta to a product's stock. Negative
	// deltas respect the conditional decrement and fail when they would
	// drive stock below zero.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, *ServiceError)
	DeactivateProduct(ctx context.Context, id uuid.UUID) *ServiceError
}

type productServiceImpl struct {
	repo    repository.ProductRepository
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repository.ProductRepository, metrics *awspkg.MetricsClient, logger *zap.Logger) ProductService {
	return &productServiceImpl{repo: repo, metrics: metrics, logger: logger}
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, *ServiceError) {
	product := &models.Product{
		Name:              req.Name,
		Slug:              req.Slug,
		SKU:               req.SKU,
		Description:       req.Description,
		Price:             req.Price,
		ComparePrice:      req.ComparePrice,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          true,
		CategoryID:        req.CategoryID,
		Brand:             req.Brand,
		Images:            models.StringList(req.Images),
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if product.LowStockThreshold == 0 {
		product.LowStockThreshold = 5
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, &ServiceError{StatusCode: 409, Message: "Product slug or SKU already exists"}
		}
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create product"}
	}

	s.logger.Info("Product created",
		zap.String("id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	return product, nil
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, *ServiceError) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to load product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update product"}
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.ComparePrice != nil {
		product.ComparePrice = req.ComparePrice
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Images != nil {
		product.Images = models.StringList(req.Images)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", zap.String("id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update product"}
	}
	return product, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, *ServiceError) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to load product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load product"}
	}
	return product, nil
}

func (s *productServiceImpl) GetProductBySlug(ctx context.Context, slug string) (*models.Product, *ServiceError) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to load product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load product"}
	}
	return product, nil
}

func (s *productServiceImpl) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, *ServiceError) {
	products, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list products"}
	}
	return products, total, nil
}

func (s *productServiceImpl) ListLowStock(ctx context.Context) ([]models.Product, *ServiceError) {
	products, err := s.repo.FindLowStock(ctx)
	if err != nil {
		s.logger.Error("Failed to list low-stock products", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to list low-stock products"}
	}
	return products, nil
}

func (s *productServiceImpl) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, *ServiceError) {
	if delta == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Delta must be non-zero"}
	}

	var err error
	if delta > 0 {
		err = s.repo.RestoreStock(ctx, id, delta)
	} else {
		err = s.repo.DecrementStock(ctx, id, -delta)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, &ServiceError{StatusCode: 409, Message: "Insufficient stock for adjustment"}
		}
		s.logger.Error("Failed to adjust stock", zap.String("id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to adjust stock"}
	}

	product, findErr := s.repo.FindByID(ctx, id)
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to reload product", zap.Error(findErr))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to adjust stock"}
	}

	if product.IsLowStock() {
		s.logger.Warn("Product stock low",
			zap.String("sku", product.SKU),
			zap.Int("stock", product.StockQuantity),
		)
		if s.metrics != nil {
			go s.metrics.RecordCount(context.Background(), awspkg.MetricInventoryLow, nil)
		}
	}

	s.logger.Info("Stock adjusted",
		zap.String("sku", product.SKU),
		zap.Int("delta", delta),
		zap.Int("stock", product.StockQuantity),
	)
	return product, nil
}

func (s *productServiceImpl) DeactivateProduct(ctx context.Context, id uuid.UUID) *ServiceError {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to load product", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate product"}
	}

	product.IsActive = false
	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Failed to deactivate product", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate product"}
	}
	return nil
}
