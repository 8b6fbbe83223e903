package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

// CartService defines the interface for cart business logic.
type CartService interface {
	// GetCart is a pure read: it never creates a cart for an owner that has
	// none, it just returns an empty view.
	GetCart(ctx context.Context, owner models.CartOwner) (*models.CartResponse, *ServiceError)
	AddItem(ctx context.Context, owner models.CartOwner, req *models.AddCartItemRequest) (*models.CartResponse, *ServiceError)
	UpdateItem(ctx context.Context, owner models.CartOwner, itemID uuid.UUID, quantity int) (*models.CartResponse, *ServiceError)
	RemoveItem(ctx context.Context, owner models.CartOwner, itemID uuid.UUID) (*models.CartResponse, *ServiceError)
	ClearCart(ctx context.Context, owner models.CartOwner) *ServiceError
	// MergeCarts folds the anonymous session cart into the user's cart on
	// login, summing quantities for shared products.
	MergeCarts(ctx context.Context, sessionID string, userID uuid.UUID) (*models.CartResponse, *ServiceError)
}

type cartServiceImpl struct {
	repo        repository.CartRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(repo repository.CartRepository, productRepo repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartServiceImpl{repo: repo, productRepo: productRepo, logger: logger}
}

func (s *cartServiceImpl) GetCart(ctx context.Context, owner models.CartOwner) (*models.CartResponse, *ServiceError) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	return cartResponse(cart), nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, owner models.CartOwner, req *models.AddCartItemRequest) (*models.CartResponse, *ServiceError) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
		}
		s.logger.Error("Failed to load product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to add item"}
	}
	if !product.IsActive {
		return nil, &ServiceError{StatusCode: 400, Message: "Product is not available"}
	}

	cart, err := s.repo.FindOrCreate(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to add item"}
	}

	// The stock check covers what is already in the cart plus the new
	// quantity, so repeated adds cannot overshoot.
	existing := 0
	var existingItem *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			existing = cart.Items[i].Quantity
			existingItem = &cart.Items[i]
			break
		}
	}
	if existing+req.Quantity > product.StockQuantity {
		return nil, &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Only %d in stock", product.StockQuantity),
		}
	}

	if existingItem != nil {
		// Unit price stays as captured on the first add.
		if err := s.repo.UpdateItemQuantity(ctx, existingItem.ID, existing+req.Quantity); err != nil {
			s.logger.Error("Failed to update cart item", zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to add item"}
		}
	} else {
		item := &models.CartItem{
			CartID:    cart.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		}
		if err := s.repo.UpsertItem(ctx, item); err != nil {
			s.logger.Error("Failed to add cart item", zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to add item"}
		}
	}

	return s.reload(ctx, owner)
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, owner models.CartOwner, itemID uuid.UUID, quantity int) (*models.CartResponse, *ServiceError) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update item"}
	}
	if cart == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Cart item not found"}
	}

	var item *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			item = &cart.Items[i]
			break
		}
	}
	if item == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Cart item not found"}
	}

	if quantity <= 0 {
		if err := s.repo.RemoveItem(ctx, cart.ID, itemID); err != nil {
			s.logger.Error("Failed to remove cart item", zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to update item"}
		}
		return s.reload(ctx, owner)
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		s.logger.Error("Failed to load product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update item"}
	}
	if quantity > product.StockQuantity {
		return nil, &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Only %d in stock", product.StockQuantity),
		}
	}

	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		s.logger.Error("Failed to update cart item", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update item"}
	}
	return s.reload(ctx, owner)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, owner models.CartOwner, itemID uuid.UUID) (*models.CartResponse, *ServiceError) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to remove item"}
	}
	if cart == nil {
		// Removing from a nonexistent cart is a no-op.
		return cartResponse(nil), nil
	}

	if err := s.repo.RemoveItem(ctx, cart.ID, itemID); err != nil {
		s.logger.Error("Failed to remove cart item", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to remove item"}
	}
	return s.reload(ctx, owner)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, owner models.CartOwner) *ServiceError {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to clear cart"}
	}
	if cart == nil {
		return nil
	}

	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		s.logger.Error("Failed to clear cart", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to clear cart"}
	}
	return nil
}

func (s *cartServiceImpl) MergeCarts(ctx context.Context, sessionID string, userID uuid.UUID) (*models.CartResponse, *ServiceError) {
	if err := s.repo.Merge(ctx, sessionID, userID); err != nil {
		s.logger.Error("Failed to merge carts",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to merge carts"}
	}
	return s.reload(ctx, models.OwnerForUser(userID))
}

func (s *cartServiceImpl) reload(ctx context.Context, owner models.CartOwner) (*models.CartResponse, *ServiceError) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("Failed to reload cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	return cartResponse(cart), nil
}

func cartResponse(cart *models.Cart) *models.CartResponse {
	if cart == nil {
		return &models.CartResponse{Items: []models.CartItem{}}
	}
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &models.CartResponse{
		ID:       &cart.ID,
		Items:    items,
		Subtotal: round2(cart.Subtotal()),
		Count:    cart.ItemCount(),
	}
}
