package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Nats     NatsConfig
	Routing  RoutingConfig
	Payment  PaymentConfig
	Pricing  PricingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
	RateLimitRPS float64       `mapstructure:"SERVER_RATE_LIMIT_RPS"`
	RateBurst    int           `mapstructure:"SERVER_RATE_BURST"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// NatsConfig holds the notification transport settings.
type NatsConfig struct {
	URL            string `mapstructure:"NATS_URL"`
	EnquirySubject string `mapstructure:"NATS_ENQUIRY_SUBJECT"`
	BookingSubject string `mapstructure:"NATS_BOOKING_SUBJECT"`
}

// RoutingConfig holds the external routing-service settings.
type RoutingConfig struct {
	BaseURL string        `mapstructure:"ROUTING_BASE_URL"`
	Timeout time.Duration `mapstructure:"ROUTING_TIMEOUT"`
}

// PaymentConfig holds the payment-session service settings.
type PaymentConfig struct {
	BaseURL string        `mapstructure:"PAYMENT_BASE_URL"`
	APIKey  string        `mapstructure:"PAYMENT_API_KEY"`
	Timeout time.Duration `mapstructure:"PAYMENT_TIMEOUT"`
}

// PricingConfig holds the non-vehicle pricing rates.
type PricingConfig struct {
	WaitRatePerHour float64 `mapstructure:"PRICING_WAIT_RATE_PER_HOUR"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	viper.SetDefault("SERVER_RATE_LIMIT_RPS", 50.0)
	viper.SetDefault("SERVER_RATE_BURST", 100)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "supreme_drive")
	viper.SetDefault("POSTGRES_PASSWORD", "supreme_drive_secret")
	viper.SetDefault("POSTGRES_DB", "supreme_drive_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 50)
	viper.SetDefault("POSTGRES_MIN_CONNS", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("NATS_ENQUIRY_SUBJECT", "notifications.protection.enquiry")
	viper.SetDefault("NATS_BOOKING_SUBJECT", "notifications.booking.confirmed")

	viper.SetDefault("ROUTING_BASE_URL", "https://router.project-osrm.org")
	viper.SetDefault("ROUTING_TIMEOUT", "4s")

	viper.SetDefault("PAYMENT_BASE_URL", "http://localhost:9090")
	viper.SetDefault("PAYMENT_API_KEY", "")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")

	viper.SetDefault("PRICING_WAIT_RATE_PER_HOUR", 25.0)

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
		RateLimitRPS: viper.GetFloat64("SERVER_RATE_LIMIT_RPS"),
		RateBurst:    viper.GetInt("SERVER_RATE_BURST"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── NATS ────────────────────────────────────────────
	cfg.Nats = NatsConfig{
		URL:            viper.GetString("NATS_URL"),
		EnquirySubject: viper.GetString("NATS_ENQUIRY_SUBJECT"),
		BookingSubject: viper.GetString("NATS_BOOKING_SUBJECT"),
	}

	// ── Routing ─────────────────────────────────────────
	cfg.Routing = RoutingConfig{
		BaseURL: viper.GetString("ROUTING_BASE_URL"),
		Timeout: viper.GetDuration("ROUTING_TIMEOUT"),
	}

	// ── Payment ─────────────────────────────────────────
	cfg.Payment = PaymentConfig{
		BaseURL: viper.GetString("PAYMENT_BASE_URL"),
		APIKey:  viper.GetString("PAYMENT_API_KEY"),
		Timeout: viper.GetDuration("PAYMENT_TIMEOUT"),
	}

	// ── Pricing ─────────────────────────────────────────
	cfg.Pricing = PricingConfig{
		WaitRatePerHour: viper.GetFloat64("PRICING_WAIT_RATE_PER_HOUR"),
	}

	return cfg, nil
}
