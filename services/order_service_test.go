package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/repository"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

// ---- mock order repository ----

type mockOrderRepo struct {
	createErrs    []error
	createCalls   int
	created       *models.Order
	decrements    []repository.StockDecrement
	clearedCartID *uuid.UUID

	cancelErr error
	cancelled *models.Order
	restores  []repository.StockDecrement

	findByIDOrder *models.Order
	findByIDErr   error
	findScoped    *models.Order
	findScopedErr error

	updateErr   error
	updateCalls int

	orders      []models.Order
	ordersTotal int64
	findErr     error

	userOrderCount int64
	countErr       error

	deleteErr error
}

func (m *mockOrderRepo) CreateWithStockDecrements(_ context.Context, order *models.Order, decrements []repository.StockDecrement, clearCartID *uuid.UUID) error {
	m.createCalls++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.created = order
	m.decrements = decrements
	m.clearedCartID = clearCartID
	return nil
}

func (m *mockOrderRepo) CancelWithStockRestore(_ context.Context, order *models.Order, restores []repository.StockDecrement) error {
	if m.cancelErr != nil {
		return m.cancelErr
	}
	m.cancelled = order
	m.restores = restores
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return m.findByIDOrder, m.findByIDErr
}

func (m *mockOrderRepo) FindByIDAndUserID(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	return m.findScoped, m.findScopedErr
}

func (m *mockOrderRepo) FindWithFilter(_ context.Context, _ models.OrderFilter) ([]models.Order, int64, error) {
	return m.orders, m.ordersTotal, m.findErr
}

func (m *mockOrderRepo) Update(_ context.Context, _ *models.Order) error {
	m.updateCalls++
	return m.updateErr
}

func (m *mockOrderRepo) CountByUser(_ context.Context, _ uuid.UUID) (int64, error) {
	return m.userOrderCount, m.countErr
}

func (m *mockOrderRepo) DeleteWithItems(_ context.Context, _ uuid.UUID) error {
	return m.deleteErr
}

// ---- mock product repository ----

type mockProductRepo struct {
	products      []models.Product
	findByIDsErr  error
	findByID      *models.Product
	findByIDErr   error
	createErr     error
	updateErr     error
	decrementErr  error
	restoreErr    error
	lowStock      []models.Product
	lowStockErr   error
	restoredQty   int
	decrementedID uuid.UUID
}

func (m *mockProductRepo) Create(_ context.Context, _ *models.Product) error { return m.createErr }
func (m *mockProductRepo) Update(_ context.Context, _ *models.Product) error { return m.updateErr }

func (m *mockProductRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	return m.findByID, m.findByIDErr
}

func (m *mockProductRepo) FindBySlug(_ context.Context, _ string) (*models.Product, error) {
	return m.findByID, m.findByIDErr
}

func (m *mockProductRepo) FindByIDs(_ context.Context, _ []uuid.UUID) ([]models.Product, error) {
	return m.products, m.findByIDsErr
}

func (m *mockProductRepo) FindAll(_ context.Context, _ repository.ProductFilter) ([]models.Product, int64, error) {
	return m.products, int64(len(m.products)), nil
}

func (m *mockProductRepo) FindLowStock(_ context.Context) ([]models.Product, error) {
	return m.lowStock, m.lowStockErr
}

func (m *mockProductRepo) DecrementStock(_ context.Context, id uuid.UUID, _ int) error {
	m.decrementedID = id
	return m.decrementErr
}

func (m *mockProductRepo) RestoreStock(_ context.Context, _ uuid.UUID, quantity int) error {
	m.restoredQty += quantity
	return m.restoreErr
}

// ---- mock user repository ----

type mockUserRepo struct {
	createErr     error
	findByIDUser  *models.User
	findByIDErr   error
	findByEmail   *models.User
	findByEmlErr  error
	updateErr     error
	lastLoginErr  error
	lastLoginAt   time.Time
	lastLoginUser uuid.UUID
}

func (m *mockUserRepo) Create(_ context.Context, _ *models.User) error { return m.createErr }

func (m *mockUserRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return m.findByIDUser, m.findByIDErr
}

func (m *mockUserRepo) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return m.findByEmail, m.findByEmlErr
}

func (m *mockUserRepo) Update(_ context.Context, _ *models.User) error { return m.updateErr }

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.lastLoginUser = id
	m.lastLoginAt = at
	return m.lastLoginErr
}

// ---- mock coupon service ----

type mockCouponService struct {
	evalCoupon       *models.Coupon
	evalReason       string
	evalErr          *services.ServiceError
	discount         float64
	recordUsageErr   error
	recordUsageCalls int
}

func (m *mockCouponService) CreateCoupon(_ context.Context, _ *models.CreateCouponRequest) (*models.Coupon, *services.ServiceError) {
	return nil, nil
}

func (m *mockCouponService) ValidateCoupon(_ context.Context, _ *uuid.UUID, _ *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *services.ServiceError) {
	return nil, nil
}

func (m *mockCouponService) EvaluateCoupon(_ context.Context, _ *uuid.UUID, _ string, _ float64, _, _ []uuid.UUID) (*models.Coupon, string, *services.ServiceError) {
	return m.evalCoupon, m.evalReason, m.evalErr
}

func (m *mockCouponService) ComputeDiscount(_ *models.Coupon, _, _ float64) float64 {
	return m.discount
}

func (m *mockCouponService) RecordUsage(_ context.Context, _ *models.Coupon, _, _ uuid.UUID, _ float64) error {
	m.recordUsageCalls++
	return m.recordUsageErr
}

func (m *mockCouponService) GetCoupon(_ context.Context, _ string) (*models.Coupon, *services.ServiceError) {
	return nil, nil
}

func (m *mockCouponService) DeactivateCoupon(_ context.Context, _ string) *services.ServiceError {
	return nil
}

func (m *mockCouponService) ListCoupons(_ context.Context, _, _ int) ([]models.Coupon, int64, *services.ServiceError) {
	return nil, 0, nil
}

// ---- mock offer service ----

type mockOfferService struct {
	lineDiscount   float64
	bestOffer      *models.Offer
	bestErr        *services.ServiceError
	recordedOffers []uuid.UUID
}

func (m *mockOfferService) CreateOffer(_ context.Context, _ *models.CreateOfferRequest) (*models.Offer, *services.ServiceError) {
	return nil, nil
}

func (m *mockOfferService) ListActiveOffers(_ context.Context) ([]models.Offer, *services.ServiceError) {
	return nil, nil
}

func (m *mockOfferService) GetApplicableOffers(_ context.Context, _ uuid.UUID, _ *uuid.UUID) ([]models.Offer, *services.ServiceError) {
	return nil, nil
}

func (m *mockOfferService) BestLineDiscount(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ float64) (float64, *models.Offer, *services.ServiceError) {
	return m.lineDiscount, m.bestOffer, m.bestErr
}

func (m *mockOfferService) RecordOfferUse(_ context.Context, offerID uuid.UUID) {
	m.recordedOffers = append(m.recordedOffers, offerID)
}

func (m *mockOfferService) DeactivateOffer(_ context.Context, _ uuid.UUID) *services.ServiceError {
	return nil
}

// ---- helpers ----

func newTestOrderService(repo *mockOrderRepo, productRepo *mockProductRepo, cartRepo *mockCartRepo, coupons *mockCouponService, offers *mockOfferService) services.OrderService {
	logger, _ := zap.NewDevelopment()
	return services.NewOrderService(repo, productRepo, cartRepo, &mockUserRepo{}, coupons, offers, nil, nil, nil, logger)
}

func testProduct(price float64, stock int) models.Product {
	return models.Product{
		ID:            uuid.New(),
		Name:          "Mechanical Keyboard",
		SKU:           "KB-100",
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func itemsRequest(product models.Product, quantity int, shippingCost float64) *models.CreateOrderFromItemsRequest {
	return &models.CreateOrderFromItemsRequest{
		Items:           []models.OrderItemInput{{ProductID: product.ID, Quantity: quantity}},
		ShippingAddress: "1 Main St, Springfield",
		PaymentMethod:   "card",
		ShippingCost:    shippingCost,
	}
}

// ---- tests ----

func TestCreateFromItems_Totals(t *testing.T) {
	product := testProduct(50.00, 10)
	repo := &mockOrderRepo{}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 2, 10.00), "")

	assert.Nil(t, svcErr)
	assert.NotNil(t, order)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 8.50, order.TaxAmount)
	assert.Equal(t, 0.00, order.DiscountAmount)
	assert.Equal(t, 118.50, order.TotalAmount)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-"))

	if assert.Len(t, repo.decrements, 1) {
		assert.Equal(t, product.ID, repo.decrements[0].ProductID)
		assert.Equal(t, 2, repo.decrements[0].Quantity)
	}
	if assert.Len(t, order.OrderItems, 1) {
		assert.Equal(t, "Mechanical Keyboard", order.OrderItems[0].ProductName)
		assert.Equal(t, "KB-100", order.OrderItems[0].ProductSKU)
		assert.Equal(t, 50.00, order.OrderItems[0].UnitPrice)
	}
}

func TestCreateFromCart_EmptyCart(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	req := &models.CreateOrderRequest{ShippingAddress: "1 Main St", PaymentMethod: "card"}
	_, svcErr := svc.CreateFromCart(context.Background(), uuid.New(), req, "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, "Cart is empty", svcErr.Message)
}

func TestCreateFromCart_ClearsCartAndSnapshotsPrice(t *testing.T) {
	product := testProduct(25.00, 10)
	userID := uuid.New()
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: &userID,
		Items: []models.CartItem{
			// Stale unit price in the cart; the order snapshots the current
			// product price instead.
			{ID: uuid.New(), ProductID: product.ID, Quantity: 2, UnitPrice: 19.99},
		},
	}
	repo := &mockOrderRepo{}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{findByOwnerCart: cart}, &mockCouponService{}, &mockOfferService{})

	req := &models.CreateOrderRequest{ShippingAddress: "1 Main St", PaymentMethod: "card"}
	order, svcErr := svc.CreateFromCart(context.Background(), userID, req, "")

	assert.Nil(t, svcErr)
	if assert.NotNil(t, repo.clearedCartID) {
		assert.Equal(t, cart.ID, *repo.clearedCartID)
	}
	assert.Equal(t, 25.00, order.OrderItems[0].UnitPrice)
	// 50 subtotal + 4.25 tax
	assert.Equal(t, 54.25, order.TotalAmount)
}

func TestCreateFromItems_InsufficientStockPrecheck(t *testing.T) {
	product := testProduct(50.00, 1)
	repo := &mockOrderRepo{}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 2, 0), "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, 0, repo.createCalls)
}

func TestCreateFromItems_InsufficientStockAtCommit(t *testing.T) {
	product := testProduct(50.00, 5)
	repo := &mockOrderRepo{createErrs: []error{repository.ErrInsufficientStock}}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 2, 0), "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, "Insufficient stock", svcErr.Message)
}

func TestCreateFromItems_OrderNumberCollisionRetries(t *testing.T) {
	product := testProduct(50.00, 5)
	repo := &mockOrderRepo{
		createErrs: []error{errors.New(`duplicate key value violates unique constraint "idx_orders_order_number"`)},
	}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 1, 0), "")

	assert.Nil(t, svcErr)
	assert.NotNil(t, order)
	assert.Equal(t, 2, repo.createCalls)
}

func TestCreateFromItems_ProductNotFound(t *testing.T) {
	product := testProduct(50.00, 5)
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 1, 0), "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}

func TestCreateFromItems_InactiveProduct(t *testing.T) {
	product := testProduct(50.00, 5)
	product.IsActive = false
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 1, 0), "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCreateFromItems_CouponApplied(t *testing.T) {
	product := testProduct(50.00, 10)
	coupon := &models.Coupon{ID: uuid.New(), Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10}
	coupons := &mockCouponService{evalCoupon: coupon, discount: 10.00}
	repo := &mockOrderRepo{}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, coupons, &mockOfferService{})

	req := itemsRequest(product, 2, 10.00)
	req.CouponCode = "SAVE10"
	order, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), req, "")

	assert.Nil(t, svcErr)
	assert.Equal(t, "SAVE10", order.CouponCode)
	assert.Equal(t, 10.00, order.DiscountAmount)
	// 100 - 10 + 10 shipping + 8.50 tax
	assert.Equal(t, 108.50, order.TotalAmount)
	assert.Equal(t, 1, coupons.recordUsageCalls)
}

func TestCreateFromItems_CouponRejected(t *testing.T) {
	product := testProduct(50.00, 10)
	coupons := &mockCouponService{evalReason: "Minimum order amount of 500.00 required"}
	repo := &mockOrderRepo{}
	svc := newTestOrderService(repo, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, coupons, &mockOfferService{})

	req := itemsRequest(product, 1, 0)
	req.CouponCode = "BIGSPEND"
	_, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), req, "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, "Minimum order amount of 500.00 required", svcErr.Message)
	assert.Equal(t, 0, repo.createCalls)
}

func TestCreateFromItems_RecordUsageFailureDoesNotFailOrder(t *testing.T) {
	product := testProduct(50.00, 10)
	coupon := &models.Coupon{ID: uuid.New(), Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10}
	coupons := &mockCouponService{evalCoupon: coupon, discount: 5.00, recordUsageErr: errors.New("db down")}
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, coupons, &mockOfferService{})

	req := itemsRequest(product, 1, 0)
	req.CouponCode = "SAVE10"
	order, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), req, "")

	assert.Nil(t, svcErr)
	assert.NotNil(t, order)
}

func TestCreateFromItems_OfferDiscount(t *testing.T) {
	product := testProduct(100.00, 10)
	offer := &models.Offer{ID: uuid.New(), Name: "Summer Sale", DiscountPercent: 20}
	offers := &mockOfferService{lineDiscount: 20.00, bestOffer: offer}
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, &mockCouponService{}, offers)

	order, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), itemsRequest(product, 1, 0), "")

	assert.Nil(t, svcErr)
	assert.Equal(t, 20.00, order.DiscountAmount)
	// 100 - 20 + 8.50 tax
	assert.Equal(t, 88.50, order.TotalAmount)
	if assert.Len(t, offers.recordedOffers, 1) {
		assert.Equal(t, offer.ID, offers.recordedOffers[0])
	}
}

func TestCreateFromItems_DiscountCappedAtOrderValue(t *testing.T) {
	product := testProduct(10.00, 10)
	coupon := &models.Coupon{ID: uuid.New(), Code: "MEGA", Type: models.CouponTypeFixed, Value: 500}
	coupons := &mockCouponService{evalCoupon: coupon, discount: 500.00}
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{products: []models.Product{product}}, &mockCartRepo{}, coupons, &mockOfferService{})

	req := itemsRequest(product, 1, 5.00)
	req.CouponCode = "MEGA"
	order, svcErr := svc.CreateFromItems(context.Background(), uuid.New(), req, "")

	assert.Nil(t, svcErr)
	assert.Equal(t, 15.00, order.DiscountAmount)
	// Subtotal and shipping are fully discounted; only tax remains.
	assert.Equal(t, 0.85, order.TotalAmount)
}

func TestUpdateStatus_ForwardTransition(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{ID: uuid.New(), OrderNumber: "ORD-2026-000001", Status: models.OrderStatusPending, UserID: uuid.New()},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.UpdateStatus(context.Background(), repo.findByIDOrder.ID, models.OrderStatusProcessing)

	assert.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestUpdateStatus_SkippedTransition(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{ID: uuid.New(), Status: models.OrderStatusPending},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.UpdateStatus(context.Background(), repo.findByIDOrder.ID, models.OrderStatusShipped)

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatus_CancelledGoesThroughCancel(t *testing.T) {
	svc := newTestOrderService(&mockOrderRepo{}, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.UpdateStatus(context.Background(), uuid.New(), models.OrderStatusCancelled)

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{ID: uuid.New(), Status: models.OrderStatusProcessing},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.UpdateStatus(context.Background(), repo.findByIDOrder.ID, models.OrderStatusProcessing)

	assert.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatus_ShippedSetsTimestamp(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{ID: uuid.New(), Status: models.OrderStatusProcessing},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.UpdateStatus(context.Background(), repo.findByIDOrder.ID, models.OrderStatusShipped)

	assert.Nil(t, svcErr)
	assert.NotNil(t, order.ShippedAt)
}

func TestCancel_PendingRestoresStock(t *testing.T) {
	productID := uuid.New()
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{
			ID:     uuid.New(),
			Status: models.OrderStatusPending,
			OrderItems: []models.OrderItem{
				{ProductID: productID, Quantity: 2},
			},
		},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.Cancel(context.Background(), repo.findByIDOrder.ID, nil, "changed my mind")

	assert.Nil(t, svcErr)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.NotNil(t, order.CanceledAt)
	assert.Contains(t, order.CustomerNotes, "Cancelled: changed my mind")
	if assert.Len(t, repo.restores, 1) {
		assert.Equal(t, productID, repo.restores[0].ProductID)
		assert.Equal(t, 2, repo.restores[0].Quantity)
	}
}

func TestCancel_ShippedRejected(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{ID: uuid.New(), Status: models.OrderStatusShipped},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.Cancel(context.Background(), repo.findByIDOrder.ID, nil, "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Nil(t, repo.cancelled)
}

func TestCancel_AlreadyCancelledRejected(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{ID: uuid.New(), Status: models.OrderStatusCancelled},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.Cancel(context.Background(), repo.findByIDOrder.ID, nil, "")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
}

func TestCancel_PaidOrderIsRefunded(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{
			ID:            uuid.New(),
			Status:        models.OrderStatusProcessing,
			PaymentStatus: models.PaymentStatusPaid,
		},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.Cancel(context.Background(), repo.findByIDOrder.ID, nil, "")

	assert.Nil(t, svcErr)
	assert.Equal(t, models.PaymentStatusRefunded, order.PaymentStatus)
}

func TestUpdatePaymentStatus_PaidMovesOrderToProcessing(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{
			ID:            uuid.New(),
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
		},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.UpdatePaymentStatus(context.Background(), repo.findByIDOrder.ID, models.PaymentStatusPaid)

	assert.Nil(t, svcErr)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
}

func TestUpdatePaymentStatus_FailedCannotBecomePaid(t *testing.T) {
	repo := &mockOrderRepo{
		findByIDOrder: &models.Order{
			ID:            uuid.New(),
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusFailed,
		},
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	_, svcErr := svc.UpdatePaymentStatus(context.Background(), repo.findByIDOrder.ID, models.PaymentStatusPaid)

	assert.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
}

func TestGetOrder_ScopedToUser(t *testing.T) {
	userID := uuid.New()
	repo := &mockOrderRepo{
		findScoped:  &models.Order{ID: uuid.New(), UserID: userID},
		findByIDErr: errors.New("FindByID must not be used for scoped reads"),
	}
	svc := newTestOrderService(repo, &mockProductRepo{}, &mockCartRepo{}, &mockCouponService{}, &mockOfferService{})

	order, svcErr := svc.GetOrder(context.Background(), repo.findScoped.ID, &userID)

	assert.Nil(t, svcErr)
	assert.Equal(t, userID, order.UserID)
}
