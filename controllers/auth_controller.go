package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daniilbelik94/online-shop-sub002/middleware"
	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

// AuthController handles HTTP requests for registration and login.
type AuthController struct {
	authService services.AuthService
	cartService services.CartService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService services.AuthService, cartService services.CartService) *AuthController {
	return &AuthController{authService: authService, cartService: cartService}
}

// Register handles POST /auth/register.
func (ac *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user, svcErr := ac.authService.Register(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login handles POST /auth/login. When the request carries an anonymous
// session ID, that session's cart is folded into the user's cart.
func (ac *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := ac.authService.Login(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	if sessionID := ctx.GetHeader("X-Session-ID"); sessionID != "" {
		if _, mergeErr := ac.cartService.MergeCarts(ctx.Request.Context(), sessionID, resp.User.ID); mergeErr != nil {
			// The login itself succeeded; cart merge failure is not fatal.
			ctx.JSON(http.StatusOK, gin.H{"token": resp.Token, "user": resp.User, "cart_merged": false})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"token": resp.Token, "user": resp.User, "cart_merged": true})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": resp.Token, "user": resp.User})
}

// Me handles GET /auth/me.
func (ac *AuthController) Me(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, svcErr := ac.authService.GetUser(ctx.Request.Context(), userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
