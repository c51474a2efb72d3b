package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageLocal    = "local"
	StorageSupabase = "supabase"

	LedgerFile     = "file"
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerSupabase = "supabase"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	PhotoRoom PhotoRoomConfig
	Batch     BatchConfig
	Upload    UploadConfig
	Storage   StorageConfig
	Ledger    LedgerConfig
	Supabase  SupabaseConfig
	Telegram  TelegramConfig
	Auth      AuthConfig
	Cleanup   CleanupConfig
}

type ServerConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	// PublicOrigin prefixes preview URLs handed back to the UI.
	PublicOrigin string `envconfig:"PUBLIC_ORIGIN"`
}

func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type PhotoRoomConfig struct {
	APIKey         string        `envconfig:"PHOTOROOM_API_KEY"`
	BaseURL        string        `envconfig:"PHOTOROOM_API_URL" default:"https://image-api.photoroom.com"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

type BatchConfig struct {
	MaxConcurrent  int           `envconfig:"MAX_CONCURRENT" default:"3"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
}

type UploadConfig struct {
	MaxFileSize int64  `envconfig:"MAX_FILE_SIZE" default:"26214400"`
	SKUPattern  string `envconfig:"SKU_PATTERN" default:"^\\d{6}$"`
}

type StorageConfig struct {
	Backend    string `envconfig:"STORAGE_BACKEND" default:"local"`
	UploadsDir string `envconfig:"UPLOADS_DIR"`
}

type LedgerConfig struct {
	Backend     string        `envconfig:"LEDGER_BACKEND" default:"file"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	RedisURL    string        `envconfig:"REDIS_URL"`
	RedisTTL    time.Duration `envconfig:"REDIS_LEDGER_TTL" default:"168h"`
}

type SupabaseConfig struct {
	URL           string `envconfig:"SUPABASE_URL"`
	ServiceKey    string `envconfig:"SUPABASE_SERVICE_KEY"`
	StorageBucket string `envconfig:"SUPABASE_STORAGE_BUCKET" default:"sku-photos"`
	LedgerTable   string `envconfig:"SUPABASE_LEDGER_TABLE" default:"batch_ledgers"`
}

type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
	APIURL   string `envconfig:"TELEGRAM_API_URL" default:"https://api.telegram.org"`
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

type AuthConfig struct {
	// JWTSecret enables bearer token checks on /api/v1 when set.
	JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
}

type CleanupConfig struct {
	Schedule string        `envconfig:"CLEANUP_SCHEDULE" default:"@every 1h"`
	MaxAge   time.Duration `envconfig:"CLEANUP_MAX_AGE" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = defaultUploadsDir()
	}
	if cfg.Server.PublicOrigin == "" {
		cfg.Server.PublicOrigin = cfg.Server.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// MaxAttemptsLimit bounds MAX_ATTEMPTS so the doubling retry delay cannot overflow.
const MaxAttemptsLimit = 10

func (c *Config) Validate() error {
	if c.PhotoRoom.APIKey == "" {
		return fmt.Errorf("PHOTOROOM_API_KEY is required")
	}
	if c.Batch.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT must be at least 1")
	}
	if c.Batch.MaxAttempts < 1 || c.Batch.MaxAttempts > MaxAttemptsLimit {
		return fmt.Errorf("MAX_ATTEMPTS must be between 1 and %d", MaxAttemptsLimit)
	}
	if c.Batch.RetryBaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must not be negative")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if _, err := regexp.Compile(c.Upload.SKUPattern); err != nil {
		return fmt.Errorf("SKU_PATTERN is not a valid expression: %w", err)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageSupabase:
		if err := c.Supabase.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.Ledger.Backend {
	case LedgerFile:
		if c.Storage.Backend != StorageLocal {
			return fmt.Errorf("LEDGER_BACKEND=file requires STORAGE_BACKEND=local")
		}
	case LedgerPostgres:
		if c.Ledger.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres ledger")
		}
	case LedgerRedis:
		if c.Ledger.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis ledger")
		}
	case LedgerSupabase:
		if err := c.Supabase.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}

	return nil
}

func (s SupabaseConfig) validate() error {
	if s.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if s.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	return nil
}

// Railway only allows writes under /tmp.
func defaultUploadsDir() string {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		return "/tmp/uploads"
	}
	return "./uploads"
}
