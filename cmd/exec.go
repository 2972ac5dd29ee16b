package cmd

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"concert-stream/config"
	"concert-stream/handlers"
	"concert-stream/internal/access"
	"concert-stream/internal/services/pay"
	"concert-stream/internal/stream"
	_ "concert-stream/migrations"
	"concert-stream/monitoring"
	"concert-stream/security"
	"concert-stream/services"
	"concert-stream/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (optional: stream-status pushes are skipped
	// when no keys are configured)
	var publisher services.Publisher
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		publisher = services.NewPubNubPublisher(pubnub.NewPubNub(pnConfig))
	} else {
		logger.Warn("pubnub keys missing, stream status pushes disabled")
	}

	// Payment processor client (optional: checkout is rejected when
	// no processor is configured)
	var checkout services.CheckoutClient
	if cfg.Pay.BaseURL != "" {
		client, err := pay.New(&cfg.Pay)
		if err != nil {
			return err
		}
		checkout = client
	} else {
		logger.Warn("payment processor not configured, checkout disabled")
	}

	// Initialize services
	store := services.NewStore(app)
	concertService := services.NewConcertService(store, cfg.DefaultLocale)
	ticketService := services.NewTicketService(store, store, checkout, cfg.StreamCurrency, logger)
	presence := services.NewPresence(redisClient)
	notifier := services.NewStreamNotifier(publisher, logger)

	resolver := access.NewResolver(store, store, logger)
	prober := stream.NewProber(cfg.PlaybackURL, cfg.ProbeTimeout, logger)

	// Initialize handlers
	concertHandler := handlers.NewConcertHandler(concertService, store, resolver, prober, presence, notifier, cfg.PlaybackURL)
	checkoutHandler := handlers.NewCheckoutHandler(ticketService)
	webhookHandler := handlers.NewWebhookHandler(ticketService, redisClient, cfg.WebhookSecret, logger)
	supportHandler := handlers.NewSupportHandler(store)
	adminHandler := handlers.NewAdminHandler(store, presence)

	limiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Concert endpoints
		e.Router.GET("/api/concerts", concertHandler.List)
		e.Router.GET("/api/concerts/{id}", concertHandler.Detail).
			BindFunc(limiter.Limit("concerts", 120, time.Minute))

		// Purchase endpoints
		e.Router.POST("/api/checkout", checkoutHandler.Checkout).
			BindFunc(limiter.Limit("checkout", 10, time.Minute))
		e.Router.GET("/api/purchase", checkoutHandler.Purchase)

		// Payment processor callback
		e.Router.POST("/api/payments/webhook", webhookHandler.HandlePaymentEvent)

		// Support endpoints
		e.Router.POST("/api/support", supportHandler.Create).
			BindFunc(limiter.Limit("support", 5, time.Minute))

		// Admin endpoints
		admin := e.Router.Group("/api/admin")
		admin.BindFunc(handlers.RequireAdmin)
		admin.POST("/concerts", adminHandler.CreateConcert)
		admin.PUT("/concerts/{id}", adminHandler.UpdateConcert)
		admin.DELETE("/concerts/{id}", adminHandler.DeleteConcert)
		admin.GET("/support", adminHandler.ListSupport)
		admin.POST("/support/{id}/resolve", adminHandler.ResolveSupport)
		admin.GET("/dashboard", adminHandler.Dashboard)

		if cfg.EnableMetrics {
			e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
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
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
