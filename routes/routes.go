package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/daniilbelik94/online-shop-sub002/controllers"
	"github.com/daniilbelik94/online-shop-sub002/middleware"
)

// RegisterAuthRoutes sets up registration and login routes.
func RegisterAuthRoutes(r *gin.Engine, ac *controllers.AuthController) {
	authRoutes := r.Group("/auth")
	authRoutes.POST("/register", ac.Register)
	authRoutes.POST("/login", ac.Login)
	authRoutes.GET("/me", middleware.RequireAuth(), ac.Me)
}

// RegisterProductRoutes sets up catalog routes.
func RegisterProductRoutes(r *gin.Engine, pc *controllers.ProductController) {
	productRoutes := r.Group("/products")

	// Public catalog
	productRoutes.GET("", pc.ListProducts)
	productRoutes.GET("/:id", pc.GetProduct)

	// Admin-only routes
	adminRoutes := productRoutes.Group("")
	adminRoutes.Use(middleware.RequireAuth(), middleware.AdminOnly())
	adminRoutes.POST("", pc.CreateProduct)
	adminRoutes.PATCH("/:id", pc.UpdateProduct)
	adminRoutes.DELETE("/:id", pc.DeleteProduct)
	adminRoutes.POST("/:id/stock", pc.AdjustStock)
	adminRoutes.GET("/low-stock/list", pc.ListLowStock)
}

// RegisterCartRoutes sets up cart routes. Carts work for both logged-in
// users and anonymous sessions, so auth is optional.
func RegisterCartRoutes(r *gin.Engine, cc *controllers.CartController) {
	cartRoutes := r.Group("/cart")
	cartRoutes.Use(middleware.OptionalAuth())
	cartRoutes.GET("", cc.GetCart)
	cartRoutes.DELETE("", cc.ClearCart)
	cartRoutes.POST("/items", cc.AddItem)
	cartRoutes.PATCH("/items/:id", cc.UpdateItem)
	cartRoutes.DELETE("/items/:id", cc.RemoveItem)
	cartRoutes.POST("/merge", cc.MergeCart)
}

// RegisterOrderRoutes sets up order workflow routes.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.RequireAuth())
	orderRoutes.POST("", oc.CreateOrder)
	orderRoutes.POST("/items", oc.CreateOrderFromItems)
	orderRoutes.GET("", oc.ListOrders)
	orderRoutes.GET("/:id", oc.GetOrder)
	orderRoutes.POST("/:id/cancel", oc.CancelOrder)

	// Admin-only routes
	adminRoutes := orderRoutes.Group("")
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.PATCH("/:id/status", oc.UpdateOrderStatus)
	adminRoutes.PATCH("/:id/payment", oc.UpdatePaymentStatus)
	adminRoutes.DELETE("/:id", oc.DeleteOrder)

	// Stripe calls this without a bearer token.
	r.POST("/webhooks/stripe", oc.StripeWebhook)
}

// RegisterCouponRoutes sets up coupon routes.
func RegisterCouponRoutes(r *gin.Engine, cc *controllers.CouponController) {
	couponRoutes := r.Group("/coupons")
	couponRoutes.POST("/validate", middleware.OptionalAuth(), cc.ValidateCoupon)

	// Admin-only routes
	adminRoutes := couponRoutes.Group("")
	adminRoutes.Use(middleware.RequireAuth(), middleware.AdminOnly())
	adminRoutes.POST("", cc.CreateCoupon)
	adminRoutes.GET("", cc.ListCoupons)
	adminRoutes.GET("/:code", cc.GetCoupon)
	adminRoutes.DELETE("/:code", cc.DeactivateCoupon)
}

// RegisterOfferRoutes sets up offer routes.
func RegisterOfferRoutes(r *gin.Engine, oc *controllers.OfferController) {
	offerRoutes := r.Group("/offers")
	offerRoutes.GET("", oc.ListOffers)

	// Admin-only routes
	adminRoutes := offerRoutes.Group("")
	adminRoutes.Use(middleware.RequireAuth(), middleware.AdminOnly())
	adminRoutes.POST("", oc.CreateOffer)
	adminRoutes.DELETE("/:id", oc.DeactivateOffer)
}
