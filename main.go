package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/withjoono/grinalda-sub000/awsx"
	"github.com/withjoono/grinalda-sub000/cache"
	"github.com/withjoono/grinalda-sub000/controllers"
	"github.com/withjoono/grinalda-sub000/database"
	"github.com/withjoono/grinalda-sub000/gateway"
	"github.com/withjoono/grinalda-sub000/kafka"
	"github.com/withjoono/grinalda-sub000/models"
	"github.com/withjoono/grinalda-sub000/repository"
	"github.com/withjoono/grinalda-sub000/routes"
	"github.com/withjoono/grinalda-sub000/services"
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
	if err := database.Connect(logger,
		&models.Product{},
		&models.Coupon{},
		&models.Order{},
		&models.Contract{},
		&models.CancelLog{},
	); err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	store := repository.NewGormStore(database.DB)

	// --- Payment gateway ---
	if _, err := url.Parse(cfg.GatewayBaseURL); err != nil {
		logger.Fatal("Invalid gateway base URL", zap.Error(err))
	}
	gatewayClient := gateway.NewClient(
		cfg.GatewayBaseURL,
		cfg.GatewayAPIKey,
		cfg.GatewayAPISecret,
		&http.Client{},
		logger,
	)

	// --- Eventing (all optional) ---
	var producer services.PaymentEventPublisher
	var kafkaProducer *kafka.PaymentEventProducer
	if cfg.KafkaBrokers != "" {
		kafkaProducer = kafka.NewPaymentEventProducer(
			strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger)
		producer = kafkaProducer
		defer kafkaProducer.Close()
	}

	var snsClient awsx.SNSPublisher
	if cfg.CouponSNSTopicARN != "" {
		awsCfg, err := awsx.LoadConfig(context.Background())
		if err != nil {
			logger.Warn("AWS config load failed, coupon events disabled", zap.Error(err))
		} else {
			snsClient = awsx.NewSNSClient(awsCfg)
		}
	}

	var entitlementCache cache.EntitlementCache
	if cfg.RedisAddr != "" {
		entitlementCache = cache.NewRedisEntitlementCache(cfg.RedisAddr, logger)
	}

	// --- Dependency injection ---
	couponService := services.NewCouponService(store, snsClient, cfg.CouponSNSTopicARN, logger)
	contractService := services.NewContractService(store, entitlementCache, logger)
	paymentService := services.NewPaymentService(
		store, gatewayClient, couponService, contractService, producer, logger)

	paymentController := controllers.NewPaymentController(paymentService, logger)
	entitlementController := controllers.NewEntitlementController(contractService, logger)
	couponController := controllers.NewCouponController(couponService)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())

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

	routes.Register(r, cfg.JWTSecret, paymentController, entitlementController, couponController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "contract-engine"})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Contract engine started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	log.Println("Contract engine stopped gracefully")
}
