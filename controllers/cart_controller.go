package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daniilbelik94/online-shop-sub002/middleware"
	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

// CartController handles HTTP requests for cart operations. Carts belong to
// either an authenticated user or an anonymous session identified by the
// X-Session-ID header.
type CartController struct {
	cartService services.CartService
}

// NewCartController creates a new CartController.
func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

func cartOwner(ctx *gin.Context) (models.CartOwner, bool) {
	if userID, err := middleware.GetUserID(ctx); err == nil {
		return models.OwnerForUser(userID), true
	}
	if sessionID, ok := middleware.GetSessionID(ctx); ok {
		return models.OwnerForSession(sessionID), true
	}
	return models.CartOwner{}, false
}

// GetCart handles GET /cart.
func (cc *CartController) GetCart(ctx *gin.Context) {
	owner, ok := cartOwner(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Login or provide X-Session-ID"})
		return
	}

	cart, svcErr := cc.cartService.GetCart(ctx.Request.Context(), owner)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// AddItem handles POST /cart/items.
func (cc *CartController) AddItem(ctx *gin.Context) {
	owner, ok := cartOwner(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Login or provide X-Session-ID"})
		return
	}

	var req models.AddCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.AddItem(ctx.Request.Context(), owner, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// UpdateItem handles PATCH /cart/items/:id. A quantity of zero removes the
// line.
func (cc *CartController) UpdateItem(ctx *gin.Context) {
	owner, ok := cartOwner(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Login or provide X-Session-ID"})
		return
	}

	itemID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req models.UpdateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.UpdateItem(ctx.Request.Context(), owner, itemID, req.Quantity)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/:id.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	owner, ok := cartOwner(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Login or provide X-Session-ID"})
		return
	}

	itemID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	cart, svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), owner, itemID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /cart.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	owner, ok := cartOwner(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Login or provide X-Session-ID"})
		return
	}

	if svcErr := cc.cartService.ClearCart(ctx.Request.Context(), owner); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// MergeCart handles POST /cart/merge. Requires login; moves the anonymous
// session cart into the user's cart.
func (cc *CartController) MergeCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessionID := ctx.GetHeader("X-Session-ID")
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID header is required"})
		return
	}

	cart, svcErr := cc.cartService.MergeCarts(ctx.Request.Context(), sessionID, userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}
