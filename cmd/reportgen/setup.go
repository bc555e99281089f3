package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/providers/llm"
	"github.com/sandevgo/reportgen/internal/service/cache"
	"github.com/sandevgo/reportgen/internal/service/command"
	"github.com/sandevgo/reportgen/internal/service/janitor"
	"github.com/sandevgo/reportgen/internal/service/report"
	"github.com/sandevgo/reportgen/internal/service/resolve"
	"github.com/sandevgo/reportgen/internal/service/session"
	"github.com/sandevgo/reportgen/internal/storage/sqlite"
	"github.com/sandevgo/reportgen/internal/transport/httpapi"
	"github.com/sandevgo/reportgen/internal/transport/telegram"
	"github.com/sandevgo/reportgen/pkg/log"
	"github.com/sandevgo/reportgen/pkg/srv"
	"github.com/sandevgo/reportgen/pkg/tokens"
)

// components is everything a command may need, built once from configuration.
type components struct {
	cfg        *config.AppConfig
	db         *sql.DB
	store      *sqlite.CompaniesRepo
	directory  *cache.DirectoryCache
	records    *cache.RecordCache
	main       *session.Store
	resolution *session.Store
	tools      *report.Toolset
}

// newStorage loads the environment and opens the record store. Commands that never
// talk to the model stop here.
func newStorage(ctx context.Context) *components {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	appCfg := config.NewAppConfig(ctx)

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	store := sqlite.NewCompaniesRepo(db, sqlite.WithTimeout(appCfg.StoreTimeout))
	records := cache.NewRecordCache(store, appCfg.RecordTTL)

	return &components{
		cfg:        appCfg,
		db:         db,
		store:      store,
		directory:  cache.NewDirectoryCache(store, appCfg.DirectoryTTL),
		records:    records,
		main:       session.NewStore("main", appCfg.SessionIdle, session.WithSeed(report.BaseSeed(time.Now))),
		resolution: session.NewStore("resolution", appCfg.SessionIdle),
		tools:      report.NewToolset(records),
	}
}

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// 1. Configuration & storage
	c := newStorage(ctx)
	services = append(services, srv.Cleanup(c.db.Close))

	// 2. Oracle & orchestrator
	orch := newOrchestrator(ctx, c)

	// 3. Expiry
	services = append(services, newJanitor(c))

	// 4. Transports
	transports, err := initTransports(ctx, c, orch)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

// newOrchestrator wires the oracle, resolution engine and history window around
// the stores in c.
func newOrchestrator(ctx context.Context, c *components) *report.Orchestrator {
	logger := log.FromCtx(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	oracle, err := llm.NewProvider(ctx, llmCfg, c.cfg.OracleTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	counter, err := tokens.New()
	if err != nil {
		logger.Warn().Err(err).Msg("tokenizer unavailable, using approximate token counts")
	}

	return report.NewOrchestrator(
		c.main,
		c.resolution,
		resolve.NewEngine(oracle, c.directory),
		c.records,
		oracle,
		c.tools,
		report.NewWindow(counter, c.cfg.PromptTokenBudget),
		report.Options{
			MaxToolRounds:  c.cfg.MaxToolRounds,
			RequestTimeout: c.cfg.RequestTimeout,
			OracleTimeout:  c.cfg.OracleTimeout,
		},
	)
}

// newJanitor expires idle sessions and stale records.
func newJanitor(c *components) *janitor.Janitor {
	j := janitor.New(map[string]janitor.Sweeper{
		c.main.Name():       janitor.SweepFunc(c.main.SweepExpired),
		c.resolution.Name(): janitor.SweepFunc(c.resolution.SweepExpired),
		"records":           c.records,
	})
	j.Interval = c.cfg.SweepInterval
	return j
}

func initTransports(ctx context.Context, c *components, orch *report.Orchestrator) ([]srv.Service, error) {
	var services []srv.Service

	if c.cfg.EnableHTTP {
		services = append(services, httpapi.NewServer(c.cfg.ListenAddr, orch, c.store, c.directory))
	}

	// Telegram Bot
	if c.cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		router := command.New(command.NewCommands(orch, c.directory))
		bot, err := telegram.NewBot(ctx, tgCfg, orch, router)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
