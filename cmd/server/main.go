package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/volund/internal"
	"github.com/dukerupert/volund/internal/billing"
	"github.com/dukerupert/volund/internal/fulfillment"
	"github.com/dukerupert/volund/internal/handler/storefront"
	"github.com/dukerupert/volund/internal/handler/webhook"
	"github.com/dukerupert/volund/internal/jobs"
	"github.com/dukerupert/volund/internal/middleware"
	"github.com/dukerupert/volund/internal/repository"
	"github.com/dukerupert/volund/internal/router"
	"github.com/dukerupert/volund/internal/routes"
	"github.com/dukerupert/volund/internal/service"
	"github.com/dukerupert/volund/internal/session"
	"github.com/dukerupert/volund/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize metrics
	telemetry.InitMetrics("volund")
	httpMetrics := middleware.NewMetrics("volund")

	// Connect to MongoDB
	logger.Info("Connecting to MongoDB...")
	db, err := repository.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("mongo connection failed: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}()
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("index creation failed: %w", err)
	}
	logger.Info("MongoDB connection established")

	orderRepo := repository.NewMongoOrderRepository(db)
	productRepo := repository.NewMongoProductRepository(db)

	// Session store: Redis when configured, in-memory otherwise
	var sessionStore session.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		defer client.Close()
		sessionStore = session.NewRedisStore(client)
		logger.Info("Redis session store initialized", "addr", cfg.Redis.Addr)
	} else {
		sessionStore = session.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, using in-memory session store")
	}

	// Initialize Printful fulfillment provider
	logger.Info("Initializing Printful fulfillment provider...")
	fulfillmentProvider, err := fulfillment.NewPrintfulProvider(fulfillment.PrintfulConfig{
		APIKey: cfg.Printful.APIKey,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Printful provider: %w", err)
	}

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	billingProvider, err := billing.NewStripeProvider(billing.StripeConfig{
		APIKey: cfg.Stripe.SecretKey,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}

	// Initialize services
	cartService := service.NewCartService(sessionStore, productRepo, logger)
	catalogService := service.NewCatalogService(productRepo, fulfillmentProvider, service.CatalogConfig{
		StockWebhookURL: cfg.PublicURL + "/webhooks/printful",
	}, logger)
	checkoutService := service.NewCheckoutService(sessionStore, orderRepo, fulfillmentProvider, billingProvider, service.CheckoutConfig{
		PublicURL: cfg.PublicURL,
	}, logger)
	orderService := service.NewOrderService(orderRepo, fulfillmentProvider, billingProvider, logger)

	// Sync the catalog before taking traffic so the stock webhook is
	// registered and the product list is current.
	logger.Info("Syncing catalog...")
	if result, err := catalogService.Resync(ctx); err != nil {
		logger.Error("initial catalog sync failed, serving stale catalog", "error", err)
	} else {
		logger.Info("catalog synced",
			"products", result.Products,
			"variants", result.Variants,
			"skipped", result.Skipped,
		)
	}

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	secureCookies := cfg.IsProduction()

	storefrontDeps := routes.StorefrontDeps{
		ProductHandler:  storefront.NewProductHandler(catalogService),
		CartHandler:     storefront.NewCartHandler(cartService, secureCookies),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService, cartService, fulfillmentProvider, secureCookies),
	}

	stripeWebhookHandler := webhook.NewStripeHandler(billingProvider, orderService, webhook.StripeWebhookConfig{
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, logger)
	printfulWebhookHandler := webhook.NewPrintfulHandler(catalogService, webhook.PrintfulWebhookConfig{
		WebhookSecret: cfg.Printful.WebhookSecret,
	}, logger)
	webhookDeps := routes.WebhookDeps{
		StripeHandler:   stripeWebhookHandler,
		PrintfulHandler: printfulWebhookHandler,
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	// Metrics endpoint (protect via firewall in production)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)
	routes.RegisterWebhookRoutes(r, webhookDeps)

	// ==========================================================================
	// Start background workers and the server
	// ==========================================================================

	sweeper := jobs.NewSweeper(orderService, jobs.SweeperConfig{
		Interval:  cfg.Sweeper.Interval,
		Retention: cfg.Sweeper.Retention,
	}, logger)
	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweeper stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	// Let in-flight webhook work drain before the Mongo client goes away.
	stripeWebhookHandler.Wait()
	printfulWebhookHandler.Wait()

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
