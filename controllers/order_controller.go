package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daniilbelik94/online-shop-sub002/middleware"
	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

// OrderController handles HTTP requests for the order workflow.
type OrderController struct {
	orderService  services.OrderService
	stripeService *services.StripeService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService services.OrderService, stripeService *services.StripeService) *OrderController {
	return &OrderController{orderService: orderService, stripeService: stripeService}
}

// CreateOrder handles POST /orders: converts the caller's cart into an
// order. Honors the Idempotency-Key header.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.CreateFromCart(ctx.Request.Context(), userID, &req, ctx.GetHeader("Idempotency-Key"))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	oc.respondWithOrder(ctx, order)
}

// CreateOrderFromItems handles POST /orders/items: builds an order from an
// explicit item list instead of the stored cart.
func (oc *OrderController) CreateOrderFromItems(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateOrderFromItemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.CreateFromItems(ctx.Request.Context(), userID, &req, ctx.GetHeader("Idempotency-Key"))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	oc.respondWithOrder(ctx, order)
}

// respondWithOrder attaches a Stripe client secret for card payments when
// Stripe is configured.
func (oc *OrderController) respondWithOrder(ctx *gin.Context, order *models.Order) {
	resp := gin.H{"order": order}
	if oc.stripeService != nil && order.PaymentMethod == "card" && order.PaymentStatus == models.PaymentStatusPending {
		amount := services.Cents(order.TotalAmount)
		if _, clientSecret, err := oc.stripeService.CreatePaymentIntent(amount, "usd", order.OrderNumber); err == nil {
			resp["client_secret"] = clientSecret
		}
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetOrder handles GET /orders/:id. Non-admin callers only see their own
// orders.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	_, scope, ok := callerScope(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), id, scope)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders handles GET /orders. Admins see all orders and may filter by
// status, payment status, search term, and date range.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	_, scope, ok := callerScope(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)
	filter := models.OrderFilter{
		UserID:        scope,
		Status:        ctx.Query("status"),
		PaymentStatus: ctx.Query("payment_status"),
		Search:        ctx.Query("search"),
		SortBy:        ctx.Query("sort_by"),
		SortDir:       ctx.Query("sort_dir"),
		Page:          page,
		Limit:         limit,
	}
	if raw := ctx.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if raw := ctx.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &t
		}
	}

	orders, total, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), filter)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"meta":   paginationMeta(page, limit, total),
	})
}

// CancelOrder handles POST /orders/:id/cancel.
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	_, scope, ok := callerScope(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CancelOrderRequest
	_ = ctx.ShouldBindJSON(&req)

	order, svcErr := oc.orderService.Cancel(ctx.Request.Context(), id, scope, req.Reason)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus handles PATCH /orders/:id/status (admin only).
func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdateStatus(ctx.Request.Context(), id, req.Status)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdatePaymentStatus handles PATCH /orders/:id/payment (admin only).
func (oc *OrderController) UpdatePaymentStatus(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req models.UpdatePaymentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.UpdatePaymentStatus(ctx.Request.Context(), id, req.PaymentStatus)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// DeleteOrder handles DELETE /orders/:id (admin only).
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if svcErr := oc.orderService.DeleteOrder(ctx.Request.Context(), id); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// StripeWebhook handles POST /webhooks/stripe: updates payment status from
// verified Stripe events.
func (oc *OrderController) StripeWebhook(ctx *gin.Context) {
	if oc.stripeService == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments not configured"})
		return
	}

	event, err := oc.stripeService.ParseWebhook(ctx.Request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
		return
	}

	// Only payment intent outcomes matter here; everything else is
	// acknowledged and dropped.
	var status string
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentStatusPaid
	case "payment_intent.payment_failed":
		status = models.PaymentStatusFailed
	default:
		ctx.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	orderID, err := uuid.Parse(ctx.Query("order_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing order_id"})
		return
	}

	if _, svcErr := oc.orderService.UpdatePaymentStatus(ctx.Request.Context(), orderID, status); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

// callerScope returns the caller's user ID plus the scoping pointer for
// queries: nil for admins (all orders), the user's own ID otherwise.
func callerScope(ctx *gin.Context) (uuid.UUID, *uuid.UUID, bool) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		return uuid.Nil, nil, false
	}
	if role, ok := ctx.Get(middleware.RoleContextKey); ok && role == "admin" {
		return userID, nil, true
	}
	scoped := userID
	return userID, &scoped, true
}
