package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Env         string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	DB          DBConfig          `envPrefix:"DB_"`
	Redis       RedisConfig       `envPrefix:"REDIS_"`
	Risk        RiskConfig        `envPrefix:"RISK_"`
	Features    FeaturesConfig    `envPrefix:"FEATURES_"`
	Aggregation AggregationConfig `envPrefix:"AGGREGATION_"`
	Operator    OperatorConfig    `envPrefix:"OPERATOR_"`
	RateLimit   RateLimitConfig   `envPrefix:"RATE_LIMIT_"`
}

// DBConfig holds the offline store connection and pool settings.
type DBConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD" envDefault:"postgres"`
	Name            string        `env:"NAME" envDefault:"feature_store"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"30m"`
	QueryTimeout    time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s"`
	Migrate         bool          `env:"MIGRATE" envDefault:"true"`
}

// DSN renders the libpq-style connection string understood by gorm's
// postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// RedisConfig holds the online store connection settings.
type RedisConfig struct {
	Host         string        `env:"HOST" envDefault:"localhost"`
	Port         string        `env:"PORT" envDefault:"6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB" envDefault:"0"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"5"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// RiskConfig holds the challenge rule parameters. Values are parsed as
// exact decimals.
type RiskConfig struct {
	Multiplier     decimal.Decimal `env:"MULTIPLIER" envDefault:"5"`
	Floor          decimal.Decimal `env:"FLOOR" envDefault:"300"`
	DefaultAverage decimal.Decimal `env:"DEFAULT_AVERAGE" envDefault:"50"`
}

// FeaturesConfig holds online feature settings.
type FeaturesConfig struct {
	Window       time.Duration `env:"WINDOW" envDefault:"1h"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`
}

// AggregationConfig controls the background aggregation job. A zero
// interval disables the periodic run; on-demand runs stay available.
type AggregationConfig struct {
	Interval        time.Duration `env:"INTERVAL" envDefault:"0s"`
	InvalidateCache bool          `env:"INVALIDATE_CACHE" envDefault:"true"`
}

// OperatorConfig guards the operator routes. An empty secret leaves them
// open, which Validate only allows outside production.
type OperatorConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// RateLimitConfig limits submit/confirm requests per client IP. Zero Max
// disables the limiter.
type RateLimitConfig struct {
	Max    int           `env:"MAX" envDefault:"100"`
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env file: %v", err)
	}
}

// Parse reads the configuration from the environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case !c.Risk.Multiplier.IsPositive():
		return errors.New("RISK_MULTIPLIER must be positive")
	case !c.Risk.Floor.IsPositive():
		return errors.New("RISK_FLOOR must be positive")
	case !c.Risk.DefaultAverage.IsPositive():
		return errors.New("RISK_DEFAULT_AVERAGE must be positive")
	case c.Features.Window <= 0:
		return errors.New("FEATURES_WINDOW must be positive")
	case c.Features.StoreTimeout <= 0:
		return errors.New("FEATURES_STORE_TIMEOUT must be positive")
	case c.Aggregation.Interval < 0:
		return errors.New("AGGREGATION_INTERVAL must not be negative")
	case c.RateLimit.Max < 0:
		return errors.New("RATE_LIMIT_MAX must not be negative")
	case c.RateLimit.Max > 0 && c.RateLimit.Window <= 0:
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	case c.IsProduction() && c.Operator.JWTSecret == "":
		return errors.New("OPERATOR_JWT_SECRET is required in production")
	}
	return nil
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
