package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
)

// StockDecrement describes one product decrement applied atomically with an
// order insert.
type StockDecrement struct {
	ProductID uuid.UUID
	Quantity  int
}

// Columns permitted in ORDER BY clauses for order listings.
var orderSortColumns = map[string]bool{
	"created_at":   true,
	"total_amount": true,
	"order_number": true,
	"status":       true,
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateWithStockDecrements persists the order header and item snapshots,
	// applies every stock decrement conditionally, and optionally clears the
	// source cart — all in one transaction. If any product has insufficient
	// stock the whole transaction rolls back and ErrInsufficientStock is
	// returned.
	CreateWithStockDecrements(ctx context.Context, order *models.Order, decrements []StockDecrement, clearCartID *uuid.UUID) error
	// CancelWithStockRestore flips the order to cancelled and restores every
	// line's stock in one transaction.
	CancelWithStockRestore(ctx context.Context, order *models.Order, restores []StockDecrement) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindWithFilter(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteWithItems is the admin-only hard delete path.
	DeleteWithItems(ctx context.Context, id uuid.UUID) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) CreateWithStockDecrements(ctx context.Context, order *models.Order, decrements []StockDecrement, clearCartID *uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range decrements {
			if err := decrementStock(tx, d.ProductID, d.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if clearCartID != nil {
			if err := tx.Where("cart_id = ?", *clearCartID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) CancelWithStockRestore(ctx context.Context, order *models.Order, restores []StockDecrement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		for _, d := range restores {
			if err := restoreStock(tx, d.ProductID, d.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindWithFilter(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR shipping_address ILIKE ?", like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if !orderSortColumns[sortBy] {
		sortBy = "created_at"
	}
	dir := "DESC"
	if filter.SortDir == "asc" {
		dir = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(filter.Limit).
		Order(sortBy + " " + dir).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *GormOrderRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *GormOrderRepository) DeleteWithItems(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&models.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
