package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	DefaultConfigPath = "bot_config.yaml"
	DefaultHTTPAddr   = ":8080"
)

// Settings are the process-level knobs read from the environment.
type Settings struct {
	BotToken      string
	ConfigPath    string
	PriceOverride decimal.NullDecimal
	HTTPAddr      string
	DatabaseDSN   string
	RedisAddr     string
	FunnelQueue   string
	// SendRate is messages per second; zero keeps the adapter default.
	SendRate float64
}

// LoadSettingsFromEnv reads Settings from the process environment.
func LoadSettingsFromEnv() (Settings, error) {
	return loadSettings(os.Getenv)
}

func loadSettings(getenv func(string) string) (Settings, error) {
	s := Settings{
		BotToken:    getenv("TELEGRAM_BOT_TOKEN"),
		ConfigPath:  orDefault(getenv("BOT_CONFIG_PATH"), DefaultConfigPath),
		HTTPAddr:    orDefault(getenv("HTTP_ADDR"), DefaultHTTPAddr),
		DatabaseDSN: getenv("DATABASE_DSN"),
		RedisAddr:   getenv("REDIS_ADDR"),
		FunnelQueue: getenv("FUNNEL_QUEUE"),
	}
	if s.BotToken == "" {
		return Settings{}, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	if raw := getenv("PRICE_PER_SQUARE_METER"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || !price.IsPositive() {
			return Settings{}, fmt.Errorf("invalid PRICE_PER_SQUARE_METER: %q", raw)
		}
		s.PriceOverride = decimal.NullDecimal{Decimal: price, Valid: true}
	}

	if raw := getenv("SEND_RATE_PER_SECOND"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			return Settings{}, fmt.Errorf("invalid SEND_RATE_PER_SECOND: %q", raw)
		}
		s.SendRate = rate
	}
	return s, nil
}

// ApplyOverrides copies environment overrides onto a loaded config.
func (s Settings) ApplyOverrides(cfg *BotConfig) {
	if cfg == nil {
		return
	}
	if s.PriceOverride.Valid {
		cfg.PricePerSquareMeter = s.PriceOverride.Decimal
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
