package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Twilio      TwilioConfig
	WhatsApp    WhatsAppConfig
	OTEL        OTELConfig
	Outreach    OutreachConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TwilioConfig holds telephony provider credentials. Values stored in the
// settings table take precedence over these at runtime.
type TwilioConfig struct {
	AccountSID        string
	AuthToken         string
	FromNumber        string
	AllowMockFallback bool
}

// WhatsAppConfig holds WhatsApp Cloud API credentials for volunteer
// notifications.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	Enabled        bool
	Endpoint       string
	ServiceName    string
	ServiceVersion string
}

// OutreachConfig holds the thresholds driving the outreach state machine.
// The defaults are documented here because the upstream data model defines
// the counters but not the limits.
type OutreachConfig struct {
	// MaxPatientAttempts is the number of automated calls placed to the
	// patient before escalating to a human volunteer.
	MaxPatientAttempts int

	// MaxEscalationAttempts is the number of volunteer escalation rounds
	// before the appointment is marked failed_escalation.
	MaxEscalationAttempts int

	// CallLease bounds how long an appointment may sit in `calling` with
	// no outcome before the reaper requeues it.
	CallLease time.Duration

	// EscalationSLA is how long an assigned volunteer has to act before
	// the case is re-escalated.
	EscalationSLA time.Duration

	// LeadWindow is how far ahead of the appointment time outreach starts.
	LeadWindow time.Duration

	// PollInterval is the scheduler cycle cadence.
	PollInterval time.Duration

	// RetryDelay is the minimum gap between automated calls to the same
	// patient, so a short poll interval cannot burn every attempt in one
	// burst.
	RetryDelay time.Duration

	// ReservationTTL bounds the volunteer reservation taken by the
	// assignment resolver until the escalation engine confirms it.
	ReservationTTL time.Duration

	// BatchSize caps how many appointments one cycle claims.
	BatchSize int

	// WebhookBaseURL is the externally reachable base URL for voice and
	// status callbacks. Overridable via the settings table.
	WebhookBaseURL string

	// WebhookSigningSecret verifies inbound status callbacks when set.
	WebhookSigningSecret string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "safemama_outreach"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Twilio: TwilioConfig{
			AccountSID:        getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:         getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber:        getEnv("TWILIO_FROM_NUMBER", ""),
			AllowMockFallback: getEnvAsBool("TWILIO_ALLOW_MOCK_FALLBACK", false),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "safemama-outreach"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Outreach: OutreachConfig{
			MaxPatientAttempts:    getEnvAsInt("OUTREACH_MAX_PATIENT_ATTEMPTS", 3),
			MaxEscalationAttempts: getEnvAsInt("OUTREACH_MAX_ESCALATION_ATTEMPTS", 3),
			CallLease:             getEnvAsDuration("OUTREACH_CALL_LEASE", 3*time.Minute),
			EscalationSLA:         getEnvAsDuration("OUTREACH_ESCALATION_SLA", 30*time.Minute),
			LeadWindow:            getEnvAsDuration("OUTREACH_LEAD_WINDOW", 24*time.Hour),
			PollInterval:          getEnvAsDuration("OUTREACH_POLL_INTERVAL", 30*time.Second),
			RetryDelay:            getEnvAsDuration("OUTREACH_RETRY_DELAY", 15*time.Minute),
			ReservationTTL:        getEnvAsDuration("OUTREACH_RESERVATION_TTL", 2*time.Minute),
			BatchSize:             getEnvAsInt("OUTREACH_BATCH_SIZE", 50),
			WebhookBaseURL:        getEnv("OUTREACH_WEBHOOK_BASE_URL", ""),
			WebhookSigningSecret:  getEnv("OUTREACH_WEBHOOK_SECRET", ""),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
