package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"booking-system/config"
	"booking-system/handlers"
	"booking-system/internal/services/payments/stripe"
	_ "booking-system/migrations"
	"booking-system/monitoring"
	"booking-system/security"
	"booking-system/services"
	"booking-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := stripe.New(ctx, &cfg.Stripe)
	if err != nil {
		return err
	}

	// Initialize services
	store := services.NewReservationStore(app)
	pricingService := services.NewPricingService(redisClient, cfg.QuoteCacheTTL)
	notifier := services.NewPubNubNotifier(pn)
	reconciler := services.NewReconcileService(store, provider, notifier)
	checkoutService := services.NewCheckoutService(store, provider, cfg.FrontendURL)
	sweeper := services.NewSweeper(store, reconciler, cfg.SweepInterval, cfg.PendingSessionTTL)

	// Initialize handlers
	pricingHandler := handlers.NewPricingHandler(pricingService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	reservationHandler := handlers.NewReservationHandler(store, reconciler)
	webhookHandler := handlers.NewWebhookHandler(provider, reconciler)
	limiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go sweeper.Run(ctx)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	if cfg.EnableMetrics {
		monitoring.NewMonitor(app)
		go serveMetrics(cfg.MetricsPort)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		e.Router.BindFunc(limiter.Middleware)

		// Pricing endpoints
		e.Router.POST("/api/calculate-price", pricingHandler.CalculatePrice)
		e.Router.GET("/api/rooms", pricingHandler.ListRooms)

		// Checkout endpoints
		e.Router.POST("/api/create-checkout-session", checkoutHandler.CreateCheckout)

		// Reconciliation endpoints
		e.Router.GET("/api/verify-session/{sessionId}", reservationHandler.VerifySession)
		e.Router.POST("/api/webhook", webhookHandler.HandleWebhook)

		// Reservation endpoints
		e.Router.GET("/api/reservations/{userId}", reservationHandler.ListByUser)

		// Health check
		e.Router.GET("/api/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// serveMetrics exposes the Prometheus registry on its own listener.
func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("serveMetrics: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
