package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`

	// AllowedOrigins for CORS. Empty allows any origin outside production.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	DBMaxConns         int32  `envconfig:"DB_MAX_CONNS" default:"25"`

	// Session settings
	SessionSecret     string        `envconfig:"SESSION_SECRET"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	SessionCookieName string        `envconfig:"SESSION_COOKIE_NAME" default:"session"`

	// Rate limit settings. Every tier shares RATE_LIMIT_WINDOW.
	RateLimitStore         string        `envconfig:"RATE_LIMIT_STORE" default:"memory"`
	RateLimitWindow        time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	RateLimitSweepInterval time.Duration `envconfig:"RATE_LIMIT_SWEEP_INTERVAL" default:"5m"`
	RateLimitAuth          int           `envconfig:"RATE_LIMIT_AUTH" default:"5"`
	RateLimitAIChat        int           `envconfig:"RATE_LIMIT_AI_CHAT" default:"20"`
	RateLimitDocuments     int           `envconfig:"RATE_LIMIT_DOCUMENTS" default:"10"`
	RateLimitGeneral       int           `envconfig:"RATE_LIMIT_GENERAL" default:"100"`
	RateLimitPublic        int           `envconfig:"RATE_LIMIT_PUBLIC" default:"200"`
	RateLimitPremium       int           `envconfig:"RATE_LIMIT_PREMIUM" default:"500"`
	PremiumIPs             []string      `envconfig:"PREMIUM_IPS"`
	// Proxies whose X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// Payment gateway
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`

	// AI provider. Empty key means rule-based answers only.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`

	// Generated document archive (S3 compatible). Empty bucket disables it.
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"ap-south-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Pub/Sub domain events. Empty project disables publishing.
	GCPProjectID            string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost      string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubDocumentsTopic    string `envconfig:"PUBSUB_DOCUMENTS_TOPIC" default:"document-events"`
	PubSubSubscriptionTopic string `envconfig:"PUBSUB_SUBSCRIPTION_TOPIC" default:"subscription-events"`

	// Secrets source: "env" reads the variables above, "gcp" overrides them
	// from Secret Manager.
	SecretSource string `envconfig:"SECRET_SOURCE" default:"env"`

	// Learning orchestrator settings
	LearningQueueName      string `envconfig:"LEARNING_QUEUE_NAME" default:"ai_learning_queue"`
	LearningPollTimeoutSec int    `envconfig:"LEARNING_POLL_TIMEOUT_SEC" default:"30"`
	LearningPollMaxMsg     int    `envconfig:"LEARNING_POLL_MAX_MSG" default:"10"`
	LearningMaxRetries     int    `envconfig:"LEARNING_MAX_RETRIES" default:"5"`
	QueueEnabled           bool   `envconfig:"QUEUE_ENABLED" default:"false"`

	// Maintenance orchestrator settings
	MaintenanceInterval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"10m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	return &cfg, nil
}

// devSessionSecret signs sessions when SESSION_SECRET is unset outside
// production.
const devSessionSecret = "development-only-session-secret"

// Validate rejects settings the service must not start with and fills
// development defaults.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return errors.New("SESSION_SECRET is required in production")
		}
		c.SessionSecret = devSessionSecret
	}
	if c.RateLimitStore != "memory" && c.RateLimitStore != "postgres" {
		return errors.New("RATE_LIMIT_STORE must be memory or postgres")
	}
	if c.SecretSource != "env" && c.SecretSource != "gcp" {
		return errors.New("SECRET_SOURCE must be env or gcp")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
