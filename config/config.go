package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Clients  ClientsConfig  `mapstructure:"clients"`
	Events   EventsConfig   `mapstructure:"events"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// TransferConfig holds the business limits and policies for money movement.
// It is passed explicitly into the validator, factory and orchestrator.
type TransferConfig struct {
	MinAmount            string        `mapstructure:"min_amount"`
	MaxAmount            string        `mapstructure:"max_amount"`
	FlatFee              string        `mapstructure:"flat_fee"`
	Currency             string        `mapstructure:"currency"`
	IdempotencyRetention time.Duration `mapstructure:"idempotency_retention"`
	ReversalMaxAttempts  int           `mapstructure:"reversal_max_attempts"`
	ReversalBackoff      time.Duration `mapstructure:"reversal_backoff"`
}

// MinAmountDecimal parses the configured minimum amount.
func (t TransferConfig) MinAmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(t.MinAmount)
}

// MaxAmountDecimal parses the configured maximum amount.
func (t TransferConfig) MaxAmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(t.MaxAmount)
}

// FlatFeeDecimal parses the configured flat fee.
func (t TransferConfig) FlatFeeDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(t.FlatFee)
}

// ClientsConfig holds base URLs and timeouts for remote collaborators.
type ClientsConfig struct {
	WalletBaseURL string        `mapstructure:"wallet_base_url"`
	UserBaseURL   string        `mapstructure:"user_base_url"`
	AuthBaseURL   string        `mapstructure:"auth_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// EventsConfig holds settings for domain-event publication.
type EventsConfig struct {
	Queue string `mapstructure:"queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: WTS_ (Wallet Transaction Service).
// Nested keys use underscore: WTS_DATABASE_HOST, WTS_TRANSFER_MAX_AMOUNT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "wallet_transactions")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "wallet-platform")
	v.SetDefault("transfer.min_amount", "10000")
	v.SetDefault("transfer.max_amount", "25000000")
	v.SetDefault("transfer.flat_fee", "0")
	v.SetDefault("transfer.currency", "IDR")
	v.SetDefault("transfer.idempotency_retention", "24h")
	v.SetDefault("transfer.reversal_max_attempts", 0)
	v.SetDefault("transfer.reversal_backoff", "2s")
	v.SetDefault("clients.wallet_base_url", "http://localhost:8083")
	v.SetDefault("clients.user_base_url", "http://localhost:8084")
	v.SetDefault("clients.auth_base_url", "http://localhost:8085")
	v.SetDefault("clients.timeout", "5s")
	v.SetDefault("events.queue", "notifications")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: WTS_DATABASE_HOST -> database.host
	v.SetEnvPrefix("WTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can supply everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
