package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	// Telegram user session
	TGAPIID         int    `env:"TG_API_ID"`
	TGAPIHash       string `env:"TG_API_HASH"`
	TGSessionString string `env:"TG_SESSION_STRING"`
	TGSessionPath   string `env:"TG_SESSION_PATH" envDefault:"./tg.session"`
	TGPhone         string `env:"TG_PHONE"`
	TG2FAPassword   string `env:"TG_2FA_PASSWORD"`

	// Sync pass
	SyncInterval    time.Duration `env:"SYNC_INTERVAL" envDefault:"0s"`
	SyncTimeout     time.Duration `env:"SYNC_TIMEOUT" envDefault:"10m"`
	BackfillLimit   int           `env:"BACKFILL_LIMIT" envDefault:"20"`
	HistoryPageSize int           `env:"HISTORY_PAGE_SIZE" envDefault:"100"`
	GlueMinLength   int           `env:"GLUE_MIN_LENGTH" envDefault:"20"`
	GlueMaxLength   int           `env:"GLUE_MAX_LENGTH" envDefault:"512"`

	// Media preview pages
	PreviewBaseURL      string        `env:"PREVIEW_BASE_URL" envDefault:"https://t.me"`
	PreviewFetchRPS     float64       `env:"PREVIEW_FETCH_RPS" envDefault:"2"`
	PreviewFetchTimeout time.Duration `env:"PREVIEW_FETCH_TIMEOUT" envDefault:"15s"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Embedding backfill for unique_messages.embedding
	EmbeddingsEnabled   bool   `env:"EMBEDDINGS_ENABLED" envDefault:"false"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	EmbeddingRPS        int    `env:"EMBEDDING_RPS" envDefault:"1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyLegacyAliases honors the variable names used by the previous deployment
// when the current names are not set.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("POSTGRES_DSN") {
		setStringFromEnv("TIMESCALE_CONNECTION", &cfg.PostgresDSN)
	}

	if !hasEnv("TG_API_ID") {
		setIntFromEnv("TELEGRAM_API_ID", &cfg.TGAPIID)
	}

	if !hasEnv("TG_API_HASH") {
		setStringFromEnv("TELEGRAM_API_HASH", &cfg.TGAPIHash)
	}

	if !hasEnv("TG_SESSION_STRING") {
		setStringFromEnv("TELEGRAM_SESSION_STR", &cfg.TGSessionString)
	}
}

func (c *Config) validate() error {
	var missing []string

	if c.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}

	if c.TGAPIID == 0 {
		missing = append(missing, "TG_API_ID")
	}

	if c.TGAPIHash == "" {
		missing = append(missing, "TG_API_HASH")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: required variables not set: %s", apperrors.ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if c.BackfillLimit <= 0 {
		return fmt.Errorf("%w: BACKFILL_LIMIT must be positive", apperrors.ErrInvalidConfig)
	}

	if c.GlueMaxLength <= 0 || c.GlueMinLength < 0 {
		return fmt.Errorf("%w: GLUE_MIN_LENGTH/GLUE_MAX_LENGTH out of range", apperrors.ErrInvalidConfig)
	}

	if c.EmbeddingsEnabled && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: EMBEDDINGS_ENABLED requires OPENAI_API_KEY", apperrors.ErrInvalidConfig)
	}

	return nil
}

// AccountID is the source_account_id written with every feed row.
func (c *Config) AccountID() string {
	return strconv.Itoa(c.TGAPIID)
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
