package commands

import (
	"fmt"

	"tvratings-parser/internal/app"
	"tvratings-parser/internal/browser"
	"tvratings-parser/internal/config"
	"tvratings-parser/internal/observability"
	"tvratings-parser/internal/scraper"
	"tvratings-parser/internal/storage"
	"tvratings-parser/internal/storage/csvstore"
	"tvratings-parser/internal/storage/mssql"
)

// runtime собранные зависимости одного запуска команды
type runtime struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
	scraper *scraper.Scraper
	csv     *csvstore.Store
	sinks   []storage.Sink
}

// newRuntime загружает конфиг, создаёт логгер и компоненты.
// withSinks=false для команд, которые ничего не пишут (debug).
func newRuntime(withSinks bool) (*runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(cfg.Observability.MetricsPath),
		csv:     csvstore.NewStore(cfg.Storage.CSVPath, logger.With("sink", "csv")),
	}
	rt.scraper = scraper.NewScraper(cfg, browser.NewRodLauncher(cfg, logger), logger)

	if !withSinks {
		return rt, nil
	}

	// несовпадение колонок видно до запуска браузера, а не после целого прохода
	if err := rt.csv.CheckHeader(cfg.Catalog.Header()); err != nil {
		rt.Close()
		return nil, err
	}
	rt.sinks = append(rt.sinks, rt.csv)
	if cfg.Storage.MSSQL.Enabled {
		repo, err := mssql.NewRepository(
			cfg.Storage.MSSQL.DSN,
			cfg.Storage.MSSQL.Table,
			cfg.GetMSSQLCommandTimeout(),
			logger.With("sink", "mssql"),
		)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to connect to mssql: %w", err)
		}
		rt.sinks = append(rt.sinks, repo)
	}

	logger.Info("Configuration loaded",
		"config", configPath,
		"channels", len(cfg.Catalog),
		"csv", cfg.Storage.CSVPath,
		"mssql", cfg.Storage.MSSQL.Enabled,
	)
	return rt, nil
}

func (r *runtime) orchestrator() *app.Orchestrator {
	return app.NewOrchestrator(r.logger, r.scraper, r.metrics, r.sinks...)
}

func (r *runtime) Close() {
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			r.logger.Warn("Failed to close sink", "sink", s.Name(), "error", err.Error())
		}
	}
	_ = r.logger.Close()
}
