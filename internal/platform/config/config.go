package config

import (
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Notifier backends.
const (
	NotifierLog   = "log"
	NotifierRedis = "redis"
	NotifierKafka = "kafka"
)

// Config holds application configuration.
type Config struct {
	// Database
	DBDriver       string
	DatabaseURL    string
	SQLitePath     string
	EnableDBCheck  bool
	MigrationsPath string // Empty uses the embedded migrations

	// Server
	Port         string
	IsProduction bool
	LogLevel     string

	// Auth
	JWTSecret  string
	JWTIssuer  string
	AdminUsers []string // User keys allowed to browse raw records

	// Ledger
	CommissionRate      decimal.Decimal
	MinBalanceSavings   decimal.Decimal
	MinBalanceWallet    decimal.Decimal
	DefaultCurrency     string
	SupportedCurrencies []string

	// Notifications
	Notifier      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KafkaBrokers  []string
	KafkaTopic    string

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// LoadConfig loads configuration from environment variables and .env file if present.
// Invalid values are reported and replaced by their defaults.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "miniwallet.db")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "miniwallet")
	v.SetDefault("ADMIN_USERS", "")
	v.SetDefault("COMMISSION_RATE", "0.015")
	v.SetDefault("MIN_BALANCE_SAVINGS", "1000.00")
	v.SetDefault("MIN_BALANCE_WALLET", "0")
	v.SetDefault("DEFAULT_CURRENCY", "AED")
	v.SetDefault("SUPPORTED_CURRENCIES", "AED")
	v.SetDefault("NOTIFIER", NotifierLog)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "miniwallet.notifications")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTIssuer:      v.GetString("JWT_ISSUER"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		KafkaBrokers:   splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:     v.GetString("KAFKA_TOPIC"),
		RateLimit:      v.GetString("RATE_LIMIT"),
	}

	cfg.DBDriver = oneOf(v, "DB_DRIVER", "pgx", "pgx", "postgres", "sqlite3")
	if cfg.DBDriver != "sqlite3" && cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL environment variable not set.", slog.String("driver", cfg.DBDriver))
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT environment variable not set. Defaulting.", slog.String("port", cfg.Port))
	}

	if cfg.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.CommissionRate = decimalValue(v, "COMMISSION_RATE", "0.015")
	if cfg.CommissionRate.IsNegative() || cfg.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		slog.Warn("COMMISSION_RATE out of range. Defaulting.", slog.String("value", cfg.CommissionRate.String()))
		cfg.CommissionRate = decimal.RequireFromString("0.015")
	}
	cfg.MinBalanceSavings = decimalValue(v, "MIN_BALANCE_SAVINGS", "1000.00")
	cfg.MinBalanceWallet = decimalValue(v, "MIN_BALANCE_WALLET", "0")

	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY")))
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "AED"
	}
	for _, c := range splitList(v.GetString("SUPPORTED_CURRENCIES")) {
		cfg.SupportedCurrencies = append(cfg.SupportedCurrencies, strings.ToUpper(c))
	}
	if !contains(cfg.SupportedCurrencies, cfg.DefaultCurrency) {
		cfg.SupportedCurrencies = append(cfg.SupportedCurrencies, cfg.DefaultCurrency)
	}

	cfg.Notifier = oneOf(v, "NOTIFIER", NotifierLog, NotifierLog, NotifierRedis, NotifierKafka)
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.AdminUsers = splitList(v.GetString("ADMIN_USERS"))

	return cfg, nil
}

// IsAdmin reports whether userKey may use the records admin endpoints.
func (c *Config) IsAdmin(userKey string) bool {
	return contains(c.AdminUsers, userKey)
}

func decimalValue(v *viper.Viper, key, fallback string) decimal.Decimal {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Warn("Invalid decimal value. Defaulting.", slog.String("key", key), slog.String("value", raw), slog.String("default", fallback))
		return decimal.RequireFromString(fallback)
	}
	return d
}

func oneOf(v *viper.Viper, key, fallback string, allowed ...string) string {
	raw := strings.ToLower(strings.TrimSpace(v.GetString(key)))
	if contains(allowed, raw) {
		return raw
	}
	slog.Warn("Unsupported value. Defaulting.", slog.String("key", key), slog.String("value", raw), slog.String("default", fallback))
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
