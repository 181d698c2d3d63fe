package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Stripe   StripeConfig
	Auth     AuthConfig
	Queue    QueueConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	SiteName           string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
	Timeout    time.Duration
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	Prices        PriceTable
}

// PriceTable holds the provider price ids sold by the application.
type PriceTable struct {
	StudentMonthly string
	StudentYearly  string
	TeacherMonthly string
	TeacherYearly  string
}

type AuthConfig struct {
	JWTSecret string
	// Requests per window on the session fallback and checkout endpoints.
	RateLimit       int
	RateLimitWindow time.Duration
}

type QueueConfig struct {
	BatchSize        int
	SweepSchedule    string
	StaleAfter       time.Duration
	OutboxBatchSize  int
	OutboxSchedule   string
	ReminderSchedule string
	ReminderLeadTime time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			SiteName:           getEnv("SITE_NAME", "Stellar Learning"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Timeout:    getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Stellar Learning"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Timeout:       getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			Prices: PriceTable{
				StudentMonthly: getEnv("STRIPE_PRICE_STUDENT_MONTHLY", "price_1RutXI2MKT6Humxnh0WBkhCp"),
				StudentYearly:  getEnv("STRIPE_PRICE_STUDENT_YEARLY", "price_1SB9e52MKT6Humxnx7qxZ2hj"),
				TeacherMonthly: getEnv("STRIPE_PRICE_TEACHER_MONTHLY", "price_1SBPN62MKT6HumxnBoQgAdd0"),
				TeacherYearly:  getEnv("STRIPE_PRICE_TEACHER_YEARLY", "price_1SB9co2MKT6HumxnOSALvAM4"),
			},
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			RateLimit:       getEnvAsInt("SESSION_SYNC_RATE_LIMIT", 10),
			RateLimitWindow: getEnvAsDuration("SESSION_SYNC_RATE_WINDOW", time.Minute),
		},
		Queue: QueueConfig{
			BatchSize:        getEnvAsInt("EMAIL_QUEUE_BATCH_SIZE", 10),
			SweepSchedule:    getEnv("EMAIL_QUEUE_SCHEDULE", "@every 1m"),
			StaleAfter:       getEnvAsDuration("EMAIL_QUEUE_STALE_AFTER", 10*time.Minute),
			OutboxBatchSize:  getEnvAsInt("EVENT_OUTBOX_BATCH_SIZE", 50),
			OutboxSchedule:   getEnv("EVENT_OUTBOX_SCHEDULE", "@every 30s"),
			ReminderSchedule: getEnv("RENEWAL_REMINDER_SCHEDULE", "@every 1h"),
			ReminderLeadTime: getEnvAsDuration("RENEWAL_REMINDER_LEAD_TIME", 72*time.Hour),
		},
	}
}

// Validate reports every required credential that is missing.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"DB_CONNECTION_STRING", c.Database.Connection},
		{"STRIPE_SECRET_KEY", c.Stripe.SecretKey},
		{"STRIPE_WEBHOOK_SECRET", c.Stripe.WebhookSecret},
		{"SMTP_HOST", c.SMTP.Host},
		{"SMTP_EMAIL", c.SMTP.Email},
		{"SMTP_PASSWORD", c.SMTP.Password},
		{"JWT_SECRET", c.Auth.JWTSecret},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
