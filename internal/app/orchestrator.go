package app

import (
	"context"
	"fmt"
	"time"

	"tvratings-parser/internal/normalize"
	"tvratings-parser/internal/observability"
	"tvratings-parser/internal/ratings"
	"tvratings-parser/internal/scraper"
	"tvratings-parser/internal/storage"
)

type Orchestrator struct {
	logger  *observability.Logger
	scraper *scraper.Scraper
	metrics *observability.Metrics
	sinks   []storage.Sink
	now     func() time.Time
}

func NewOrchestrator(
	logger *observability.Logger,
	s *scraper.Scraper,
	metrics *observability.Metrics,
	sinks ...storage.Sink,
) *Orchestrator {
	return &Orchestrator{
		logger:  logger,
		scraper: s,
		metrics: metrics,
		sinks:   sinks,
		now:     time.Now,
	}
}

type CycleStats struct {
	Record   ratings.Record
	Fetched  int
	Failed   []string
	Duration time.Duration
}

// RunOnce один цикл: сессия → сбор → нормализация → запись → закрытие сессии.
// Сессия закрывается на любом пути выхода, фатальные ошибки возвращаются вызывающему.
func (o *Orchestrator) RunOnce(ctx context.Context) (stats *CycleStats, err error) {
	start := o.now()
	o.logger.Info("Starting scrape cycle")

	defer func() {
		if err != nil {
			o.metrics.ObserveFailure()
			o.logger.Error("Scrape cycle failed", "error", err.Error())
		}
		if flushErr := o.metrics.Flush(); flushErr != nil {
			o.logger.Warn("Failed to write metrics", "error", flushErr.Error())
		}
	}()

	if err := o.scraper.Open(ctx); err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if closeErr := o.scraper.Close(); closeErr != nil {
			o.logger.Warn("Failed to close browser session", "error", closeErr.Error())
		}
	}()

	raw, err := o.scraper.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}

	catalog := o.scraper.Catalog()
	stats = &CycleStats{}
	for _, ch := range catalog {
		if raw[ch.Code] == nil {
			stats.Failed = append(stats.Failed, ch.Code)
		} else {
			stats.Fetched++
		}
	}
	o.metrics.ObserveChannelFailures(stats.Failed)

	rec := normalize.Normalize(catalog, raw, normalize.Timestamp(o.now()))
	stats.Record = rec
	o.logger.Debug("Record normalized", "record", rec.Row())

	for _, sink := range o.sinks {
		if err := sink.Append(ctx, rec); err != nil {
			return nil, fmt.Errorf("append to %s: %w", sink.Name(), err)
		}
	}

	finished := o.now()
	stats.Duration = finished.Sub(start)
	o.metrics.ObserveSuccess(rec, finished)

	o.logger.Info("Scrape cycle completed",
		"timestamp", rec.Timestamp,
		"fetched", stats.Fetched,
		"failed", len(stats.Failed),
		"duration", stats.Duration.Round(time.Millisecond),
	)

	return stats, nil
}

// RunContinuous повторяет RunOnce с паузой interval.
// Отмена ctx останавливает цикл без ошибки, но только на паузе: текущий цикл доводится до конца.
// Ошибка цикла останавливает работу, повторов нет.
func (o *Orchestrator) RunContinuous(ctx context.Context, interval time.Duration) error {
	o.logger.Info("Starting continuous scraping", "interval", interval, "sinks", o.sinkNames())

	for {
		if ctx.Err() != nil {
			o.logger.Info("Scraping stopped by user")
			return nil
		}

		if _, err := o.RunOnce(context.WithoutCancel(ctx)); err != nil {
			o.logger.Error("Fatal error, stopping continuous scraping", "error", err.Error())
			return err
		}

		o.logger.Info("Waiting for next cycle", "interval", interval)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info("Scraping stopped by user")
			return nil
		case <-timer.C:
		}
	}
}

func (o *Orchestrator) sinkNames() []string {
	names := make([]string, 0, len(o.sinks))
	for _, s := range o.sinks {
		names = append(names, s.Name())
	}
	return names
}
