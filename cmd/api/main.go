package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"product-service/config"
	"product-service/internal/delivery/http/middleware"
	v1 "product-service/internal/delivery/http/v1"
	"product-service/internal/infrastructure/cache"
	"product-service/internal/usecase"
	"product-service/pkg/logger"
	"product-service/pkg/storage"
	"product-service/pkg/utils"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

const serviceName = "product-service"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	store, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open product store")
	}

	// Product reads are cached per id; cleanup every 2x TTL
	memCache := cache.NewMemoryCache(cfg.CacheProductTTL, 2*cfg.CacheProductTTL)
	productUC := usecase.NewProductUsecase(store, memCache, cfg)

	mux := http.NewServeMux()
	protect := middleware.Protect(cfg.AuthEnabled)
	if !cfg.AuthEnabled {
		log.Warn().Msg("AUTH_ENABLED=false: product write routes are public")
	}

	// Products
	v1.NewProductHandler(productUC).Register(mux, protect)

	// Uploads (R2)
	if cfg.R2Enabled() {
		r2Storage, err := storage.NewR2Storage(
			context.Background(),
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		uploadHandler := v1.NewUploadHandler(r2Storage, cfg.MaxUploadSizeMB)
		mux.Handle("POST /products/images", protect(uploadHandler.UploadImage))
	}

	// Health Check
	healthHandler := v1.NewHealthHandler(productUC, cfg.StoreDriver)
	mux.HandleFunc("GET /health", healthHandler.Health)

	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		middleware.Quota{PerSecond: rate.Limit(cfg.RateLimitRPS), Burst: cfg.RateLimitBurst},
		middleware.Quota{PerSecond: rate.Limit(cfg.RateLimitWriteRPS), Burst: cfg.RateLimitWriteBurst},
		time.Minute,   // sweep period
		3*time.Minute, // idle bucket TTL
	)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, cfg.StoreDriver, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	closeStore(ctx)

	logger.ServiceStop(serviceName)
}
