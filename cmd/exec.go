package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-management/config"
	"event-management/internal/handlers"
	"event-management/internal/schema"
	"event-management/internal/services"
	_ "event-management/migrations"
	"event-management/monitoring"
	"event-management/security"
	"event-management/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()
	schema.BindHooks(app)

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis (login rate limiting and health)
	redisClient, err := utils.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, login rate limiting disabled: %v", err)
	} else {
		defer redisClient.Close()
	}

	// Initialize services
	limits := services.ListLimits{
		DefaultLimit: cfg.DefaultPageLimit,
		MaxLimit:     cfg.MaxPageLimit,
	}
	eventService := services.NewEventService(app, newNotifier(cfg), limits)
	registrationService := services.NewRegistrationService(app)
	authService := services.NewAuthService(app)
	postService := services.NewPostService(app, limits)
	uploadService := services.NewUploadService(app, services.UploadPolicy{
		MaxSize:      cfg.UploadMaxSize,
		AllowedTypes: cfg.UploadAllowedTypes,
	})

	// Initialize handlers
	routes := apiRoutes{
		events:        handlers.NewEventHandler(eventService, limits),
		registrations: handlers.NewRegistrationHandler(registrationService),
		auth:          handlers.NewAuthHandler(authService),
		uploads:       handlers.NewUploadHandler(uploadService),
		posts:         handlers.NewPostHandler(postService),
		redis:         redisClient,
		enableMetrics: cfg.EnableMetrics,
	}
	if redisClient != nil {
		routes.loginLimiter = security.NewRateLimiter(redisClient, "ratelimit:login", cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})

	app.RootCmd.AddCommand(newRoleCommand(app))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		routes.register(se)

		if cfg.EnableMetrics {
			go monitoring.NewMonitor(se.App, redisClient).Start(ctx)
		}

		log.Println("Server routes registered")

		return se.Next()
	})

	// Start server
	return app.Start()
}

// newNotifier publishes event changes to PubNub when a publish key is configured.
func newNotifier(cfg *config.Config) services.Notifier {
	if cfg.PubNubPublishKey == "" {
		log.Println("PubNub not configured, event change notifications disabled")
		return services.NopNotifier{}
	}

	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	breaker := utils.NewCircuitBreaker("pubnub", 5, 30*time.Second)

	return services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig), cfg.PubNubEventsChannel, breaker)
}

// handleShutdown stops the background collectors on SIGINT/SIGTERM.
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
