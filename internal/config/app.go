package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/reportgen/pkg/log"
)

type AppConfig struct {
	// Empty means <runtime>/reportgen.db
	DatabasePath string `env:"REPORTGEN_DATABASE_PATH"`

	// Transport Flags
	EnableHTTP     bool   `env:"ENABLE_HTTP" envDefault:"true"`
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`
	ListenAddr     string `env:"HTTP_LISTEN_ADDR" envDefault:":5266"`

	// Session and cache lifetimes
	SessionIdle   time.Duration `env:"SESSION_IDLE" envDefault:"1h"`
	DirectoryTTL  time.Duration `env:"DIRECTORY_TTL" envDefault:"120m"`
	RecordTTL     time.Duration `env:"RECORD_TTL" envDefault:"120m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	// Timeouts
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"3m"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	OracleTimeout  time.Duration `env:"ORACLE_TIMEOUT" envDefault:"120s"`

	// Context Management
	MaxToolRounds     int `env:"MAX_TOOL_ROUNDS" envDefault:"6"`
	PromptTokenBudget int `env:"PROMPT_TOKEN_BUDGET" envDefault:"24000"`
}

func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(GetRuntimePath(), "reportgen.db")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
