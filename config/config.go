package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	awspkg "github.com/MightyWarner19/grainlly/pkg/aws"
)

const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
)

// Config holds all configuration for the storefront API.
type Config struct {
	Port string
	Env  string

	MongoURI string
	MongoDB  string

	RedisURL string
	CartTTL  time.Duration

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	JWTSecret           string
	TrustGatewayHeaders bool

	PaymentGateway       string
	PaymentKeyID         string
	PaymentKeySecret     string
	PaymentCurrency      string
	RazorpayBaseURL      string
	StripeAPIKey         string
	StripeWebhookSecret  string
	VerificationTokenTTL time.Duration

	SurchargePercent  decimal.Decimal
	StrictTransitions bool
	IdempotencyTTL    time.Duration

	NotifySNSTopicARN string
	KafkaBrokers      []string
	KafkaOrderTopic   string
	SMTPHost          string
	SMTPPort          string
	SMTPUser          string
	SMTPPass          string
	AdminEmail        string

	PaymentEventsQueueURL string

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
}

// Load reads .env (when present), then the environment, then optional
// Secrets Manager overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	surcharge, err := decimal.NewFromString(getEnv("ORDER_SURCHARGE_PERCENT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_SURCHARGE_PERCENT: %w", err)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "grainlly"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:  getEnvDuration("CART_TTL", 0),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnvBool("TRUST_GATEWAY_HEADERS", false),

		PaymentGateway:       strings.ToLower(getEnv("PAYMENT_GATEWAY", GatewayRazorpay)),
		PaymentKeyID:         os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret:     os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentCurrency:      getEnv("PAYMENT_CURRENCY", "INR"),
		RazorpayBaseURL:      getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		StripeAPIKey:         os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		VerificationTokenTTL: getEnvDuration("VERIFICATION_TOKEN_TTL", 15*time.Minute),

		SurchargePercent:  surcharge,
		StrictTransitions: getEnvBool("ORDER_STRICT_TRANSITIONS", false),
		IdempotencyTTL:    getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		NotifySNSTopicARN: os.Getenv("NOTIFY_SNS_TOPIC_ARN"),
		KafkaBrokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:   getEnv("KAFKA_ORDER_TOPIC", "order-events"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),

		PaymentEventsQueueURL: os.Getenv("PAYMENT_EVENTS_QUEUE_URL"),

		CloudWatchEnabled:   getEnvBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Grainlly"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/grainlly/services"),

		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if awsCfg, err := awspkg.LoadAWSConfig(ctx); err == nil {
			cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplySecrets overrides credentials from Secrets Manager. Missing secrets
// leave the environment values in place.
func (c *Config) ApplySecrets(ctx context.Context, sm awspkg.SecretGetter) {
	if m, err := awspkg.GetSecretMap(ctx, sm, "storefront/PAYMENT_CREDENTIALS"); err == nil {
		override(&c.PaymentKeyID, m["PAYMENT_KEY_ID"])
		override(&c.PaymentKeySecret, m["PAYMENT_KEY_SECRET"])
		override(&c.StripeAPIKey, m["STRIPE_API_KEY"])
		override(&c.StripeWebhookSecret, m["STRIPE_WEBHOOK_SECRET"])
	}
	if m, err := awspkg.GetSecretMap(ctx, sm, "storefront/DB_CREDENTIALS"); err == nil {
		override(&c.MongoURI, m["MONGO_URI"])
		override(&c.PostgresUser, m["POSTGRES_USER"])
		override(&c.PostgresPassword, m["POSTGRES_PASSWORD"])
		override(&c.PostgresDB, m["POSTGRES_DB"])
		override(&c.PostgresHost, m["POSTGRES_HOST"])
		override(&c.PostgresPort, m["POSTGRES_PORT"])
	}
	if s, err := sm.GetSecret(ctx, "storefront/JWT_SECRET"); err == nil && s != "" {
		c.JWTSecret = s
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PaymentKeySecret == "" {
		return fmt.Errorf("PAYMENT_KEY_SECRET is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	switch c.PaymentGateway {
	case GatewayRazorpay:
		if c.PaymentKeyID == "" {
			return fmt.Errorf("PAYMENT_KEY_ID is required for razorpay")
		}
	case GatewayStripe:
		if c.StripeAPIKey == "" {
			return fmt.Errorf("STRIPE_API_KEY is required for stripe")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_GATEWAY %q", c.PaymentGateway)
	}
	if c.SurchargePercent.IsNegative() {
		return fmt.Errorf("ORDER_SURCHARGE_PERCENT must not be negative")
	}
	return nil
}

// PostgresDSN builds the gorm postgres DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
