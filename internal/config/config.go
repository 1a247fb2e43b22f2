// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Token
	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"kakeibo"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Ledger
	LedgerTimezone string `env:"LEDGER_TIMEZONE" envDefault:"UTC"`
	// CategoryFile が空の場合は埋め込みのカテゴリ表を使う
	CategoryFile string `env:"CATEGORY_FILE"`

	// Rate Limit (req/min)
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitAuth    int `env:"RATE_LIMIT_AUTH" envDefault:"10"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	TrustProxy      bool          `env:"TRUST_PROXY" envDefault:"false"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Events（AMQPURLが空の場合はイベントを発行しない）
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"kakeibo"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合や値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は型変換だけでは検出できない設定値の不整合を検証する。
// 複数の問題がある場合はまとめて返す。
func (c *Config) Validate() error {
	var errs []error
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive: %s", c.TokenTTL))
	}
	if c.RateLimitGeneral <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_GENERAL must be positive: %d", c.RateLimitGeneral))
	}
	if c.RateLimitAuth <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_AUTH must be positive: %d", c.RateLimitAuth))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive: %s", c.ShutdownTimeout))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location は台帳のタイムゾーンを返す。
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.LedgerTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE %q: %w", c.LedgerTimezone, err)
	}
	return loc, nil
}

// SlogLevel はLOG_LEVELをslog.Levelに変換する。
// debug, info, warn, error（大文字小文字を区別しない）を受け付ける。
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
