package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/safemama-pikin/outreach/internal/adapters/cache"
	"github.com/safemama-pikin/outreach/internal/adapters/database"
	"github.com/safemama-pikin/outreach/internal/adapters/events"
	"github.com/safemama-pikin/outreach/internal/adapters/providers/telephony"
	"github.com/safemama-pikin/outreach/internal/adapters/reservations"
	"github.com/safemama-pikin/outreach/internal/application/services"
	"github.com/safemama-pikin/outreach/internal/domain/providers"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/redis"
	"github.com/safemama-pikin/outreach/internal/infrastructure/notifications"
	"github.com/safemama-pikin/outreach/internal/infrastructure/observability"
	"github.com/safemama-pikin/outreach/pkg/config"
)

func main() {
	var once bool
	flag.BoolVar(&once, "once", false, "run a single outreach cycle and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("outreach-scheduler", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
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
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

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
	} else {
		reservationStore = reservations.NewInMemoryReservationStore()
	}

	clock := providers.SystemClock{}

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

	scheduler := services.NewSchedulerService(
		appointmentAdapter,
		dispatchService,
		escalationService,
		clock,
		metrics,
		cfg.Outreach,
	)

	if once {
		if err := scheduler.RunCycle(ctx); err != nil {
			log.Fatalf("Outreach cycle failed: %v", err)
		}
		log.Println("Outreach cycle complete")
		return
	}

	scheduler.Run(ctx)

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Scheduler stopped")
}
