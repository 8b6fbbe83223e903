package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daniilbelik94/online-shop-sub002/models"
	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
	"github.com/daniilbelik94/online-shop-sub002/repository"
)

// Sales tax is charged at a flat rate on the item subtotal.
const taxRate = 0.085

// Attempts to find a free order number before giving up.
const orderNumberAttempts = 5

const idempotencyTTL = 24 * time.Hour

// OrderService defines the interface for the order workflow.
type OrderService interface {
	// CreateFromCart converts the user's cart into an order, decrementing
	// stock and clearing the cart in one transaction. idempotencyKey may be
	// empty; when set, a repeated call with the same key returns the
	// already-created order.
	CreateFromCart(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest, idempotencyKey string) (*models.Order, *ServiceError)
	// CreateFromItems builds an order from an explicit item list instead of
	// the stored cart.
	CreateFromItems(ctx context.Context, userID uuid.UUID, req *models.CreateOrderFromItemsRequest, idempotencyKey string) (*models.Order, *ServiceError)
	GetOrder(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.Order, *ServiceError)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, *ServiceError)
	// UpdateStatus moves the order along pending → processing → shipped →
	// delivered. Cancellation goes through Cancel, never through here.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, *ServiceError)
	// Cancel cancels a pending or processing order and restores stock.
	Cancel(ctx context.Context, id uuid.UUID, userID *uuid.UUID, reason string) (*models.Order, *ServiceError)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) (*models.Order, *ServiceError)
	// DeleteOrder is the admin-only hard delete path.
	DeleteOrder(ctx context.Context, id uuid.UUID) *ServiceError
}

// Forward transitions permitted through UpdateStatus.
var orderStatusTransitions = map[string]string{
	models.OrderStatusPending:    models.OrderStatusProcessing,
	models.OrderStatusProcessing: models.OrderStatusShipped,
	models.OrderStatusShipped:    models.OrderStatusDelivered,
}

type orderServiceImpl struct {
	repo          repository.OrderRepository
	productRepo   repository.ProductRepository
	cartRepo      repository.CartRepository
	userRepo      repository.UserRepository
	couponService CouponService
	offerService  OfferService
	notifications NotificationService
	redisClient   *redis.Client
	metrics       *awspkg.MetricsClient
	logger        *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	repo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	couponService CouponService,
	offerService OfferService,
	notifications NotificationService,
	redisClient *redis.Client,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		repo:          repo,
		productRepo:   productRepo,
		cartRepo:      cartRepo,
		userRepo:      userRepo,
		couponService: couponService,
		offerService:  offerService,
		notifications: notifications,
		redisClient:   redisClient,
		metrics:       metrics,
		logger:        logger,
	}
}

// orderLine is one validated line ready for snapshotting.
type orderLine struct {
	product  *models.Product
	quantity int
}

func (s *orderServiceImpl) CreateFromCart(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest, idempotencyKey string) (*models.Order, *ServiceError) {
	if order, svcErr := s.replayIdempotent(ctx, userID, idempotencyKey); order != nil || svcErr != nil {
		return order, svcErr
	}

	cart, err := s.cartRepo.FindByOwner(ctx, models.OwnerForUser(userID))
	if err != nil {
		s.logger.Error("Failed to load cart", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	inputs := make([]models.OrderItemInput, 0, len(cart.Items))
	for _, item := range cart.Items {
		inputs = append(inputs, models.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, svcErr := s.createOrder(ctx, userID, inputs, orderParams{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		ShippingCost:    req.ShippingCost,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	}, &cart.ID)
	if svcErr != nil {
		return nil, svcErr
	}

	s.storeIdempotent(ctx, userID, idempotencyKey, order.ID)
	return order, nil
}

func (s *orderServiceImpl) CreateFromItems(ctx context.Context, userID uuid.UUID, req *models.CreateOrderFromItemsRequest, idempotencyKey string) (*models.Order, *ServiceError) {
	if order, svcErr := s.replayIdempotent(ctx, userID, idempotencyKey); order != nil || svcErr != nil {
		return order, svcErr
	}

	order, svcErr := s.createOrder(ctx, userID, req.Items, orderParams{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		ShippingCost:    req.ShippingCost,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	}, nil)
	if svcErr != nil {
		return nil, svcErr
	}

	s.storeIdempotent(ctx, userID, idempotencyKey, order.ID)
	return order, nil
}

type orderParams struct {
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
	ShippingMethod  string
	ShippingCost    float64
	CouponCode      string
	Notes           string
}

func (s *orderServiceImpl) createOrder(ctx context.Context, userID uuid.UUID, items []models.OrderItemInput, params orderParams, clearCartID *uuid.UUID) (*models.Order, *ServiceError) {
	lines, svcErr := s.validateLines(ctx, items)
	if svcErr != nil {
		return nil, svcErr
	}

	var subtotal float64
	orderItems := make([]models.OrderItem, 0, len(lines))
	decrements := make([]repository.StockDecrement, 0, len(lines))
	productIDs := make([]uuid.UUID, 0, len(lines))
	categoryIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		lineTotal := line.product.Price * float64(line.quantity)
		subtotal += lineTotal
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			ProductSKU:  line.product.SKU,
			Quantity:    line.quantity,
			UnitPrice:   line.product.Price,
		})
		decrements = append(decrements, repository.StockDecrement{
			ProductID: line.product.ID,
			Quantity:  line.quantity,
		})
		productIDs = append(productIDs, line.product.ID)
		if line.product.CategoryID != nil {
			categoryIDs = append(categoryIDs, *line.product.CategoryID)
		}
	}
	subtotal = round2(subtotal)

	// Offers apply automatically, per line, taking the best offer for each.
	var offerDiscount float64
	usedOffers := make(map[uuid.UUID]bool)
	for _, line := range lines {
		lineTotal := line.product.Price * float64(line.quantity)
		d, offer, svcErr := s.offerService.BestLineDiscount(ctx, line.product.ID, line.product.CategoryID, lineTotal)
		if svcErr != nil {
			return nil, svcErr
		}
		if offer != nil {
			offerDiscount += d
			usedOffers[offer.ID] = true
		}
	}

	var coupon *models.Coupon
	var couponDiscount float64
	if params.CouponCode != "" {
		var reason string
		var svcErr *ServiceError
		coupon, reason, svcErr = s.couponService.EvaluateCoupon(ctx, &userID, params.CouponCode, subtotal, productIDs, categoryIDs)
		if svcErr != nil {
			return nil, svcErr
		}
		if coupon == nil {
			return nil, &ServiceError{StatusCode: 400, Message: reason}
		}
		couponDiscount = s.couponService.ComputeDiscount(coupon, subtotal, params.ShippingCost)
	}

	discount := round2(offerDiscount + couponDiscount)
	if discount > subtotal+params.ShippingCost {
		discount = round2(subtotal + params.ShippingCost)
	}
	tax := round2(subtotal * taxRate)
	total := round2(subtotal - discount + params.ShippingCost + tax)

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   params.PaymentMethod,
		ShippingMethod:  params.ShippingMethod,
		ShippingCost:    params.ShippingCost,
		TaxAmount:       tax,
		DiscountAmount:  discount,
		TotalAmount:     total,
		ShippingAddress: params.ShippingAddress,
		BillingAddress:  params.BillingAddress,
		CustomerNotes:   params.Notes,
		OrderItems:      orderItems,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	// The order number has a small random suffix; on a collision we roll a
	// new one and retry the whole transaction.
	var createErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber()
		createErr = s.repo.CreateWithStockDecrements(ctx, order, decrements, clearCartID)
		if createErr == nil || !repository.IsUniqueViolation(createErr) {
			break
		}
		s.logger.Warn("Order number collision, retrying", zap.String("order_number", order.OrderNumber))
	}
	if createErr != nil {
		if errors.Is(createErr, repository.ErrInsufficientStock) {
			if s.metrics != nil {
				go s.metrics.RecordCount(context.Background(), awspkg.MetricOrdersFailed, nil)
			}
			return nil, &ServiceError{StatusCode: 409, Message: "Insufficient stock"}
		}
		s.logger.Error("Failed to create order", zap.Error(createErr))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}

	// Everything past the commit is best-effort and must not fail the order.
	if coupon != nil {
		if err := s.couponService.RecordUsage(ctx, coupon, userID, order.ID, couponDiscount); err != nil {
			s.logger.Error("Failed to record coupon usage",
				zap.String("code", coupon.Code),
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
	for offerID := range usedOffers {
		s.offerService.RecordOfferUse(ctx, offerID)
	}

	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalAmount),
	)
	if s.metrics != nil {
		go s.metrics.RecordCount(context.Background(), awspkg.MetricOrdersCreated, nil)
	}

	s.notifyAsync(userID, func(ctx context.Context, user *models.User) {
		s.notifications.NotifyOrderCreated(ctx, user, order)
	})
	return order, nil
}

func (s *orderServiceImpl) validateLines(ctx context.Context, items []models.OrderItemInput) ([]orderLine, *ServiceError) {
	if len(items) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Order has no items"}
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, &ServiceError{StatusCode: 400, Message: "Quantity must be positive"}
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load products", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create order"}
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]orderLine, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, &ServiceError{StatusCode: 404, Message: fmt.Sprintf("Product %s not found", item.ProductID)}
		}
		if !product.IsActive {
			return nil, &ServiceError{StatusCode: 400, Message: fmt.Sprintf("Product %s is not available", product.Name)}
		}
		// Pre-check only; the transaction's conditional decrement is the
		// authoritative stock gate.
		if product.StockQuantity < item.Quantity {
			return nil, &ServiceError{StatusCode: 409, Message: fmt.Sprintf("Insufficient stock for %s", product.Name)}
		}
		lines = append(lines, orderLine{product: product, quantity: item.Quantity})
	}
	return lines, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.Order, *ServiceError) {
	var order *models.Order
	var err error
	if userID != nil {
		order, err = s.repo.FindByIDAndUserID(ctx, id, *userID)
	} else {
		order, err = s.repo.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to load order", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load order"}
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, *ServiceError) {
	orders, total, err := s.repo.FindWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list orders"}
	}
	return orders, total, nil
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, *ServiceError) {
	if !models.ValidOrderStatus(status) {
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown order status"}
	}
	if status == models.OrderStatusCancelled {
		return nil, &ServiceError{StatusCode: 400, Message: "Use the cancellation endpoint to cancel an order"}
	}

	order, svcErr := s.GetOrder(ctx, id, nil)
	if svcErr != nil {
		return nil, svcErr
	}
	if order.Status == status {
		return order, nil
	}
	if orderStatusTransitions[order.Status] != status {
		return nil, &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Cannot move order from %s to %s", order.Status, status),
		}
	}

	now := time.Now()
	order.Status = status
	switch status {
	case models.OrderStatusShipped:
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	}

	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to update order status", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order status"}
	}

	s.logger.Info("Order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", status),
	)
	s.notifyAsync(order.UserID, func(ctx context.Context, user *models.User) {
		s.notifications.NotifyOrderStatus(ctx, user, order)
	})
	return order, nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, id uuid.UUID, userID *uuid.UUID, reason string) (*models.Order, *ServiceError) {
	order, svcErr := s.GetOrder(ctx, id, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	if !order.CanBeCancelled() {
		return nil, &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Order in status %s cannot be cancelled", order.Status),
		}
	}

	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CanceledAt = &now
	if order.PaymentStatus == models.PaymentStatusPaid {
		order.PaymentStatus = models.PaymentStatusRefunded
	}
	if reason != "" {
		note := "Cancelled: " + reason
		if order.CustomerNotes != "" {
			order.CustomerNotes = order.CustomerNotes + "\n" + note
		} else {
			order.CustomerNotes = note
		}
	}

	restores := make([]repository.StockDecrement, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		restores = append(restores, repository.StockDecrement{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.repo.CancelWithStockRestore(ctx, order, restores); err != nil {
		s.logger.Error("Failed to cancel order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to cancel order"}
	}

	s.logger.Info("Order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", reason),
	)
	if s.metrics != nil {
		go s.metrics.RecordCount(context.Background(), awspkg.MetricOrdersCancelled, nil)
	}
	s.notifyAsync(order.UserID, func(ctx context.Context, user *models.User) {
		s.notifications.NotifyOrderCancelled(ctx, user, order, reason)
	})
	return order, nil
}

func (s *orderServiceImpl) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) (*models.Order, *ServiceError) {
	if !models.ValidPaymentStatus(paymentStatus) {
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown payment status"}
	}

	order, svcErr := s.GetOrder(ctx, id, nil)
	if svcErr != nil {
		return nil, svcErr
	}
	if order.PaymentStatus == paymentStatus {
		return order, nil
	}

	allowed := false
	switch order.PaymentStatus {
	case models.PaymentStatusPending:
		allowed = paymentStatus == models.PaymentStatusPaid || paymentStatus == models.PaymentStatusFailed
	case models.PaymentStatusPaid:
		allowed = paymentStatus == models.PaymentStatusRefunded
	}
	if !allowed {
		return nil, &ServiceError{
			StatusCode: 409,
			Message:    fmt.Sprintf("Cannot move payment from %s to %s", order.PaymentStatus, paymentStatus),
		}
	}

	order.PaymentStatus = paymentStatus
	if paymentStatus == models.PaymentStatusPaid && order.Status == models.OrderStatusPending {
		order.Status = models.OrderStatusProcessing
	}

	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to update payment status", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update payment status"}
	}

	s.logger.Info("Payment status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_status", paymentStatus),
	)
	if paymentStatus == models.PaymentStatusPaid {
		s.notifyAsync(order.UserID, func(ctx context.Context, user *models.User) {
			s.notifications.NotifyPaymentConfirmed(ctx, user, order)
		})
	}
	return order, nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, id uuid.UUID) *ServiceError {
	if err := s.repo.DeleteWithItems(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to delete order", zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to delete order"}
	}
	s.logger.Info("Order deleted", zap.String("id", id.String()))
	return nil
}

// notifyAsync loads the user and runs the notification off the request path.
func (s *orderServiceImpl) notifyAsync(userID uuid.UUID, fn func(ctx context.Context, user *models.User)) {
	if s.notifications == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			s.logger.Error("Failed to load user for notification",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			return
		}
		fn(ctx, user)
	}()
}

func (s *orderServiceImpl) replayIdempotent(ctx context.Context, userID uuid.UUID, key string) (*models.Order, *ServiceError) {
	if s.redisClient == nil || key == "" {
		return nil, nil
	}

	val, err := s.redisClient.Get(ctx, idempotencyRedisKey(userID, key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		}
		return nil, nil
	}

	orderID, parseErr := uuid.Parse(val)
	if parseErr != nil {
		return nil, nil
	}
	order, findErr := s.repo.FindByID(ctx, orderID)
	if findErr != nil {
		return nil, nil
	}
	s.logger.Info("Replaying idempotent order creation",
		zap.String("order_number", order.OrderNumber),
	)
	return order, nil
}

func (s *orderServiceImpl) storeIdempotent(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) {
	if s.redisClient == nil || key == "" {
		return
	}
	if err := s.redisClient.Set(ctx, idempotencyRedisKey(userID, key), orderID.String(), idempotencyTTL).Err(); err != nil {
		s.logger.Warn("Failed to store idempotency key", zap.Error(err))
	}
}

func idempotencyRedisKey(userID uuid.UUID, key string) string {
	return strings.Join([]string{"order", "idem", userID.String(), key}, ":")
}

// generateOrderNumber builds a human-readable order number with a random
// six-digit suffix. Uniqueness is enforced by the database.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%06d", time.Now().Year(), rand.Intn(1000000))
}
