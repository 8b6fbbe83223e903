package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/daniilbelik94/online-shop-sub002/controllers"
	"github.com/daniilbelik94/online-shop-sub002/database"
	"github.com/daniilbelik94/online-shop-sub002/middleware"
	"github.com/daniilbelik94/online-shop-sub002/models"
	awspkg "github.com/daniilbelik94/online-shop-sub002/pkg/aws"
	"github.com/daniilbelik94/online-shop-sub002/repository"
	"github.com/daniilbelik94/online-shop-sub002/routes"
	"github.com/daniilbelik94/online-shop-sub002/sender"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Database ---
	db, err := database.ConnectPostgres(logger,
		&models.Category{},
		&models.Product{},
		&models.User{},
		&models.Cart{},
		&models.CartItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Offer{},
		&models.Order{},
		&models.OrderItem{},
		&models.NotificationLog{},
	)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	redisClient, err := database.ConnectRedis(context.Background())
	if err != nil {
		logger.Warn("Redis unavailable, idempotency keys disabled", zap.Error(err))
	}

	// --- AWS setup ---
	awsCfg, err := awspkg.LoadAWSConfig(context.Background())
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}
	snsClient := awspkg.NewSNSClient(awsCfg)

	// CloudWatch metrics (non-fatal)
	metricsClient, err := awspkg.NewMetricsClient(context.Background())
	if err != nil {
		logger.Warn("CloudWatch metrics client init failed (non-fatal)", zap.Error(err))
	}

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimitMiddleware())

	// CloudWatch HTTP metrics middleware
	r.Use(func(c *gin.Context) {
		if metricsClient == nil || !metricsClient.IsEnabled() {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		go func(path, method string, status int, dur time.Duration) {
			mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dims := map[string]string{"Service": "online-shop", "Method": method, "Path": path}
			_ = metricsClient.RecordCount(mctx, awspkg.MetricHTTPRequests, dims)
			_ = metricsClient.RecordLatency(mctx, awspkg.MetricHTTPLatency, dur, dims)
			if status >= 400 {
				_ = metricsClient.RecordCount(mctx, awspkg.MetricHTTPErrors, dims)
			}
		}(c.Request.URL.Path, c.Request.Method, c.Writer.Status(), time.Since(start))
	})

	// Structured HTTP request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- Dependency injection ---
	productRepo := repository.NewGormProductRepository(db)
	cartRepo := repository.NewGormCartRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	offerRepo := repository.NewGormOfferRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)

	var emailSender sender.EmailSender
	if s, err := sender.NewMailSender(); err != nil {
		logger.Warn("SMTP not configured, emails disabled", zap.Error(err))
	} else {
		emailSender = s
	}

	notificationService, err := services.NewNotificationService(notificationRepo, emailSender, snsClient, cfg.OrderSNSTopicARN, logger)
	if err != nil {
		logger.Fatal("Failed to build notification service", zap.Error(err))
	}

	var stripeService *services.StripeService
	if cfg.StripeSecretKey != "" {
		stripeService = services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookKey)
	} else {
		logger.Warn("Stripe not configured, card payments disabled")
	}

	productService := services.NewProductService(productRepo, metricsClient, logger)
	cartService := services.NewCartService(cartRepo, productRepo, logger)
	couponService := services.NewCouponService(couponRepo, orderRepo, metricsClient, logger)
	offerService := services.NewOfferService(offerRepo, logger)
	orderService := services.NewOrderService(
		orderRepo, productRepo, cartRepo, userRepo,
		couponService, offerService, notificationService,
		redisClient, metricsClient, logger,
	)
	authService := services.NewAuthService(userRepo, notificationService, logger)

	routes.RegisterAuthRoutes(r, controllers.NewAuthController(authService, cartService))
	routes.RegisterProductRoutes(r, controllers.NewProductController(productService, offerService))
	routes.RegisterCartRoutes(r, controllers.NewCartController(cartService))
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(orderService, stripeService))
	routes.RegisterCouponRoutes(r, controllers.NewCouponController(couponService))
	routes.RegisterOfferRoutes(r, controllers.NewOfferController(offerService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "online-shop"})
	})

	// --- Payment event consumer ---
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.PaymentQueueURL != "" {
		sqsConsumer := awspkg.NewSQSConsumer(awsCfg, cfg.PaymentQueueURL)
		paymentConsumer := services.NewPaymentEventConsumer(sqsConsumer, orderService, logger)
		go paymentConsumer.Start(consumerCtx)
	}

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Online shop started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	stopConsumer()
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	log.Println("Online shop stopped gracefully")
}
