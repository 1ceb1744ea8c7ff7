package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/safemama-pikin/outreach/internal/adapters/cache"
	"github.com/safemama-pikin/outreach/internal/adapters/database"
	"github.com/safemama-pikin/outreach/internal/adapters/events"
	"github.com/safemama-pikin/outreach/internal/adapters/providers/telephony"
	"github.com/safemama-pikin/outreach/internal/adapters/reservations"
	"github.com/safemama-pikin/outreach/internal/api/handlers"
	"github.com/safemama-pikin/outreach/internal/api/routes"
	"github.com/safemama-pikin/outreach/internal/application/services"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/redis"
	"github.com/safemama-pikin/outreach/internal/infrastructure/notifications"
	"github.com/safemama-pikin/outreach/internal/infrastructure/observability"
	"github.com/safemama-pikin/outreach/pkg/config"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("outreach-api", cfg.Environment)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - settings caching and events degrade gracefully
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize adapters

	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	volunteerAdapter := database.NewVolunteerAdapter(pgClient)
	settingAdapter := database.NewSettingAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	var reservationStore providers.ReservationStore
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		reservationStore = reservations.NewRedisReservationStore(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		reservationStore = reservations.NewInMemoryReservationStore()
		log.Println("Event bus disabled (Redis not available)")
	}

	clock := providers.SystemClock{}

	// Initialize services

	settingsService := services.NewSettingsService(settingAdapter, cacheProvider, clock, time.Minute)

	var notifier providers.NotificationChannel
	if cfg.WhatsApp.AccessToken == "" || cfg.WhatsApp.PhoneNumberID == "" {
		log.Println("Warning: WhatsApp credentials not set; volunteer notifications will be log-only")
		notifier = notifications.NewLogChannel(*observability.GetLogger())
	} else {
		sender, err := notifications.NewWhatsAppCloudSender(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
		if err != nil {
			log.Fatalf("Failed to initialize WhatsApp sender: %v", err)
		}
		notifier = notifications.NewWhatsAppChannel(sender, settingsService, *observability.GetLogger())
	}

	assignmentService := services.NewAssignmentService(
		volunteerAdapter,
		reservationStore,
		clock,
		cfg.Outreach.ReservationTTL,
	)

	escalationService := services.NewEscalationService(
		appointmentAdapter,
		assignmentService,
		notifier,
		eventBus,
		clock,
		metrics,
		cfg.Outreach.MaxPatientAttempts,
		cfg.Outreach.MaxEscalationAttempts,
	)

	telephonyProvider := telephony.NewTelephonyProvider(telephony.TelephonyProviderConfig{
		AccountSID:        cfg.Twilio.AccountSID,
		AuthToken:         cfg.Twilio.AuthToken,
		FromNumber:        cfg.Twilio.FromNumber,
		AllowMockFallback: cfg.Twilio.AllowMockFallback,
	}, settingsService)

	dispatchService := services.NewDispatchService(
		appointmentAdapter,
		telephonyProvider,
		settingsService,
		escalationService,
		eventBus,
		clock,
		metrics,
		cfg.Outreach.WebhookBaseURL,
	)

	appointmentService := services.NewAppointmentService(appointmentAdapter)

	// Initialize handlers

	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)

	escalationHandler := handlers.NewEscalationHandler(escalationService)

	voiceHandler := handlers.NewVoiceHandler(appointmentService, dispatchService)

	webhookDB := sqlx.NewDb(pgClient.DB(), "postgres")
	telephonyWebhookHandler := handlers.NewTelephonyWebhookHandler(
		webhookDB,
		dispatchService,
		cfg.Outreach.WebhookSigningSecret,
	)

	var eventStreamHandler *handlers.EventStreamHandler
	if eventBus != nil {
		eventStreamHandler = handlers.NewEventStreamHandler(eventBus, services.EventChannel)
	}

	// Set up router

	router := routes.NewRouter(
		appointmentHandler,
		escalationHandler,
		voiceHandler,
		telephonyWebhookHandler,
		eventStreamHandler,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
