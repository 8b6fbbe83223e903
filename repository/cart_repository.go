package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
)

// CartRepository defines the interface for cart data access. A cart row is
// created lazily: reads never create one.
type CartRepository interface {
	// FindByOwner returns the owner's cart with items, or (nil, nil) if the
	// owner has no cart yet.
	FindByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	// FindOrCreate returns the owner's cart, creating an empty one first if
	// needed. Used only by mutating operations.
	FindOrCreate(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	Delete(ctx context.Context, cartID uuid.UUID) error
	// Merge moves every line from the session cart into the user cart in one
	// transaction, summing quantities on product conflicts, then deletes the
	// session cart.
	Merge(ctx context.Context, sessionID string, userID uuid.UUID) error
}

// GormCartRepository implements CartRepository using GORM.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository.
func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func ownerQuery(db *gorm.DB, owner models.CartOwner) *gorm.DB {
	if owner.UserID != nil {
		return db.Where("user_id = ?", *owner.UserID)
	}
	return db.Where("session_id = ?", *owner.SessionID)
}

func (r *GormCartRepository) FindByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	err := ownerQuery(r.db.WithContext(ctx).Preload("Items"), owner).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormCartRepository) FindOrCreate(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{UserID: owner.UserID, SessionID: owner.SessionID}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		// Lost a create race with a concurrent request; re-read.
		if IsUniqueViolation(err) {
			return r.FindByOwner(ctx, owner)
		}
		return nil, err
	}
	return cart, nil
}

func (r *GormCartRepository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *GormCartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity", quantity).
		Error
}

func (r *GormCartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).
		Error
}

func (r *GormCartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).
		Error
}

func (r *GormCartRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Cart{}, "id = ?", cartID).Error
	})
}

func (r *GormCartRepository) Merge(ctx context.Context, sessionID string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sessionCart models.Cart
		err := tx.Preload("Items").Where("session_id = ?", sessionID).First(&sessionCart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // nothing to merge
		}
		if err != nil {
			return err
		}

		var userCart models.Cart
		err = tx.Where("user_id = ?", userID).First(&userCart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			userCart = models.Cart{UserID: &userID}
			if err := tx.Create(&userCart).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for _, item := range sessionCart.Items {
			var existing models.CartItem
			err := tx.Where("cart_id = ? AND product_id = ?", userCart.ID, item.ProductID).
				First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				moved := models.CartItem{
					CartID:    userCart.ID,
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					UnitPrice: item.UnitPrice,
				}
				if err := tx.Create(&moved).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := tx.Model(&existing).
					UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity)).
					Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Where("cart_id = ?", sessionCart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Cart{}, "id = ?", sessionCart.ID).Error
	})
}
