package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, decimal.RequireFromString("0.015").Equal(cfg.CommissionRate))
	assert.True(t, decimal.RequireFromString("1000").Equal(cfg.MinBalanceSavings))
	assert.True(t, cfg.MinBalanceWallet.IsZero())
	assert.Equal(t, "AED", cfg.DefaultCurrency)
	assert.Equal(t, []string{"AED"}, cfg.SupportedCurrencies)
	assert.Equal(t, NotifierLog, cfg.Notifier)
	assert.Equal(t, "100-M", cfg.RateLimit)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "SQLITE3")
	t.Setenv("SQLITE_PATH", "/tmp/wallet.db")
	t.Setenv("COMMISSION_RATE", "0.02")
	t.Setenv("MIN_BALANCE_SAVINGS", "100")
	t.Setenv("DEFAULT_CURRENCY", "usd")
	t.Setenv("SUPPORTED_CURRENCIES", "aed, eur")
	t.Setenv("NOTIFIER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ADMIN_USERS", "ops,alice")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "/tmp/wallet.db", cfg.SQLitePath)
	assert.True(t, decimal.RequireFromString("0.02").Equal(cfg.CommissionRate))
	assert.True(t, decimal.NewFromInt(100).Equal(cfg.MinBalanceSavings))
	assert.True(t, cfg.MinBalanceWallet.IsZero())
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, []string{"AED", "EUR", "USD"}, cfg.SupportedCurrencies)
	assert.Equal(t, NotifierKafka, cfg.Notifier)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsAdmin("alice"))
	assert.False(t, cfg.IsAdmin("bob"))
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("COMMISSION_RATE", "lots")
	t.Setenv("MIN_BALANCE_WALLET", "-")
	t.Setenv("NOTIFIER", "pigeon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.True(t, decimal.RequireFromString("0.015").Equal(cfg.CommissionRate))
	assert.True(t, cfg.MinBalanceWallet.IsZero())
	assert.Equal(t, NotifierLog, cfg.Notifier)

	t.Setenv("COMMISSION_RATE", "1.5")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.015").Equal(cfg.CommissionRate))
}
