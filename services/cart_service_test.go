package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

// ---- mock cart repository ----

type mockCartRepo struct {
	findByOwnerCart *models.Cart
	findByOwnerErr  error

	upserted        *models.CartItem
	upsertErr       error
	updatedItemID   uuid.UUID
	updatedQuantity int
	updateErr       error
	removedItemID   uuid.UUID
	removeErr       error
	clearedCartID   uuid.UUID
	clearErr        error
	mergedSession   string
	mergeErr        error
}

func (m *mockCartRepo) FindByOwner(_ context.Context, _ models.CartOwner) (*models.Cart, error) {
	return m.findByOwnerCart, m.findByOwnerErr
}

func (m *mockCartRepo) FindOrCreate(_ context.Context, owner models.CartOwner) (*models.Cart, error) {
	if m.findByOwnerErr != nil {
		return nil, m.findByOwnerErr
	}
	if m.findByOwnerCart != nil {
		return m.findByOwnerCart, nil
	}
	return &models.Cart{ID: uuid.New(), UserID: owner.UserID, SessionID: owner.SessionID}, nil
}

func (m *mockCartRepo) UpsertItem(_ context.Context, item *models.CartItem) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = item
	return nil
}

func (m *mockCartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedItemID = itemID
	m.updatedQuantity = quantity
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, _, itemID uuid.UUID) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removedItemID = itemID
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, cartID uuid.UUID) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.clearedCartID = cartID
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (m *mockCartRepo) Merge(_ context.Context, sessionID string, _ uuid.UUID) error {
	if m.mergeErr != nil {
		return m.mergeErr
	}
	m.mergedSession = sessionID
	return nil
}

// ---- helpers ----

func newTestCartService(repo *mockCartRepo, productRepo *mockProductRepo) services.CartService {
	logger, _ := zap.NewDevelopment()
	return services.NewCartService(repo, productRepo, logger)
}

func cartWith(items ...models.CartItem) *models.Cart {
	userID := uuid.New()
	return &models.Cart{ID: uuid.New(), UserID: &userID, Items: items}
}

// ---- tests ----

func TestGetCart_NoCartReturnsEmptyView(t *testing.T) {
	svc := newTestCartService(&mockCartRepo{}, &mockProductRepo{})

	resp, svcErr := svc.GetCart(context.Background(), models.OwnerForUser(uuid.New()))

	assert.Nil(t, svcErr)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0.00, resp.Subtotal)
	assert.Equal(t, 0, resp.Count)
}

func TestAddItem_NewLineUsesCurrentPrice(t *testing.T) {
	product := testProduct(19.99, 10)
	repo := &mockCartRepo{}
	svc := newTestCartService(repo, &mockProductRepo{findByID: &product})

	_, svcErr := svc.AddItem(context.Background(), models.OwnerForUser(uuid.New()), &models.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	})

	assert.Nil(t, svcErr)
	if assert.NotNil(t, repo.upserted) {
		assert.Equal(t, product.ID, repo.upserted.ProductID)
		assert.Equal(t, 2, repo.upserted.Quantity)
		assert.Equal(t, 19.99, repo.upserted.UnitPrice)
	}
}

func TestAddItem_ExceedsStock(t *testing.T) {
	product := testProduct(19.99, 2)
	repo := &mockCartRepo{}
	svc := newTestCartService(repo, &mockProductRepo{findByID: &product})

	_, svcErr := svc.AddItem(context.Background(), models.OwnerForUser(uuid.New()), &models.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  3,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, "Only 2 in stock", svcErr.Message)
	assert.Nil(t, repo.upserted)
}

func TestAddItem_RepeatedAddsCannotOvershoot(t *testing.T) {
	product := testProduct(19.99, 5)
	existing := models.CartItem{ID: uuid.New(), ProductID: product.ID, Quantity: 4, UnitPrice: 19.99}
	repo := &mockCartRepo{findByOwnerCart: cartWith(existing)}
	svc := newTestCartService(repo, &mockProductRepo{findByID: &product})

	_, svcErr := svc.AddItem(context.Background(), models.OwnerForUser(uuid.New()), &models.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  2,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
}

func TestAddItem_ExistingLineAccumulates(t *testing.T) {
	product := testProduct(19.99, 10)
	existing := models.CartItem{ID: uuid.New(), ProductID: product.ID, Quantity: 2, UnitPrice: 15.00}
	repo := &mockCartRepo{findByOwnerCart: cartWith(existing)}
	svc := newTestCartService(repo, &mockProductRepo{findByID: &product})

	_, svcErr := svc.AddItem(context.Background(), models.OwnerForUser(uuid.New()), &models.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  3,
	})

	assert.Nil(t, svcErr)
	assert.Equal(t, existing.ID, repo.updatedItemID)
	assert.Equal(t, 5, repo.updatedQuantity)
	// The original unit price stands; no new line is written.
	assert.Nil(t, repo.upserted)
}

func TestAddItem_InactiveProduct(t *testing.T) {
	product := testProduct(19.99, 10)
	product.IsActive = false
	svc := newTestCartService(&mockCartRepo{}, &mockProductRepo{findByID: &product})

	_, svcErr := svc.AddItem(context.Background(), models.OwnerForUser(uuid.New()), &models.AddCartItemRequest{
		ProductID: product.ID,
		Quantity:  1,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc := newTestCartService(&mockCartRepo{}, &mockProductRepo{findByIDErr: gorm.ErrRecordNotFound})

	_, svcErr := svc.AddItem(context.Background(), models.OwnerForUser(uuid.New()), &models.AddCartItemRequest{
		ProductID: uuid.New(),
		Quantity:  1,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestUpdateItem_ZeroQuantityRemovesLine(t *testing.T) {
	product := testProduct(19.99, 10)
	item := models.CartItem{ID: uuid.New(), ProductID: product.ID, Quantity: 2, UnitPrice: 19.99}
	repo := &mockCartRepo{findByOwnerCart: cartWith(item)}
	svc := newTestCartService(repo, &mockProductRepo{findByID: &product})

	_, svcErr := svc.UpdateItem(context.Background(), models.OwnerForUser(uuid.New()), item.ID, 0)

	assert.Nil(t, svcErr)
	assert.Equal(t, item.ID, repo.removedItemID)
	assert.Equal(t, 0, repo.updatedQuantity)
}

func TestUpdateItem_ExceedsStock(t *testing.T) {
	product := testProduct(19.99, 3)
	item := models.CartItem{ID: uuid.New(), ProductID: product.ID, Quantity: 2, UnitPrice: 19.99}
	repo := &mockCartRepo{findByOwnerCart: cartWith(item)}
	svc := newTestCartService(repo, &mockProductRepo{findByID: &product})

	_, svcErr := svc.UpdateItem(context.Background(), models.OwnerForUser(uuid.New()), item.ID, 4)

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
}

func TestUpdateItem_UnknownLine(t *testing.T) {
	repo := &mockCartRepo{findByOwnerCart: cartWith()}
	svc := newTestCartService(repo, &mockProductRepo{})

	_, svcErr := svc.UpdateItem(context.Background(), models.OwnerForUser(uuid.New()), uuid.New(), 1)

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestRemoveItem_NoCartIsNoOp(t *testing.T) {
	repo := &mockCartRepo{}
	svc := newTestCartService(repo, &mockProductRepo{})

	resp, svcErr := svc.RemoveItem(context.Background(), models.OwnerForUser(uuid.New()), uuid.New())

	assert.Nil(t, svcErr)
	assert.Empty(t, resp.Items)
	assert.Equal(t, uuid.Nil, repo.removedItemID)
}

func TestClearCart_NoCartIsNoOp(t *testing.T) {
	repo := &mockCartRepo{}
	svc := newTestCartService(repo, &mockProductRepo{})

	svcErr := svc.ClearCart(context.Background(), models.OwnerForUser(uuid.New()))

	assert.Nil(t, svcErr)
	assert.Equal(t, uuid.Nil, repo.clearedCartID)
}

func TestClearCart_ClearsExistingCart(t *testing.T) {
	cart := cartWith(models.CartItem{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: 5})
	repo := &mockCartRepo{findByOwnerCart: cart}
	svc := newTestCartService(repo, &mockProductRepo{})

	svcErr := svc.ClearCart(context.Background(), models.OwnerForUser(uuid.New()))

	assert.Nil(t, svcErr)
	assert.Equal(t, cart.ID, repo.clearedCartID)
}

func TestMergeCarts_ReturnsUserCart(t *testing.T) {
	userID := uuid.New()
	merged := &models.Cart{
		ID:     uuid.New(),
		UserID: &userID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 3, UnitPrice: 10.00},
		},
	}
	repo := &mockCartRepo{findByOwnerCart: merged}
	svc := newTestCartService(repo, &mockProductRepo{})

	resp, svcErr := svc.MergeCarts(context.Background(), "sess-42", userID)

	assert.Nil(t, svcErr)
	assert.Equal(t, "sess-42", repo.mergedSession)
	assert.Equal(t, 30.00, resp.Subtotal)
	assert.Equal(t, 3, resp.Count)
}
