package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tvratings-parser/internal/browser"
	"tvratings-parser/internal/config"
	"tvratings-parser/internal/observability"
	"tvratings-parser/internal/ratings"
)

type Scraper struct {
	launcher browser.Launcher
	catalog  ratings.Catalog
	baseURL  string
	selector string
	limiter  *rate.Limiter
	logger   *observability.Logger

	session browser.Session
}

func NewScraper(cfg *config.Config, l browser.Launcher, logger *observability.Logger) *Scraper {
	s := &Scraper{
		launcher: l,
		catalog:  cfg.Catalog,
		baseURL:  strings.TrimRight(cfg.Source.BaseURL, "/"),
		selector: cfg.Source.RatingSelector,
		logger:   logger,
	}
	if cfg.RateLimit.RPM > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit.RPM)), 1)
	}
	return s
}

// Open запускает браузер. Повторный вызов при открытой сессии ничего не делает.
func (s *Scraper) Open(ctx context.Context) error {
	if s.session != nil {
		return nil
	}
	session, err := s.launcher.Launch(ctx)
	if err != nil {
		return err
	}
	s.session = session
	return nil
}

// Close закрывает браузер; безопасно вызывать несколько раз
func (s *Scraper) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

func (s *Scraper) Catalog() ratings.Catalog {
	return s.catalog
}

// ChannelURL BASE_URL/{slug}
func (s *Scraper) ChannelURL(slug string) string {
	return s.baseURL + "/" + url.PathEscape(slug)
}

// FetchAll проходит все каналы каталога одной вкладкой.
// Ошибка канала не прерывает проход: значение канала становится nil.
func (s *Scraper) FetchAll(ctx context.Context) (ratings.Raw, error) {
	if s.session == nil {
		return nil, ErrSessionNotOpen
	}

	page, err := s.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.logger.Warn("Failed to close page", "error", err.Error())
		}
	}()

	raw := make(ratings.Raw, len(s.catalog))
	for _, ch := range s.catalog {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}
		raw[ch.Code] = s.fetchChannel(ctx, page, ch)
	}

	return raw, nil
}

func (s *Scraper) fetchChannel(ctx context.Context, page browser.Page, ch ratings.Channel) *float64 {
	channelURL := s.ChannelURL(ch.Slug)
	s.logger.Info("Fetching rating", "channel", ch.Code, "url", channelURL)

	html, err := page.Render(ctx, channelURL)
	if err != nil {
		s.logger.Error("Failed to load channel page",
			"channel", ch.Code,
			"url", channelURL,
			"error", err.Error(),
		)
		return nil
	}

	value, err := ParseRating(html, s.selector)
	if err != nil {
		if errors.Is(err, ErrElementNotFound) {
			s.logger.Warn("Rating element not found",
				"channel", ch.Code,
				"selector", s.selector,
			)
		} else {
			s.logger.Error("Failed to parse rating",
				"channel", ch.Code,
				"error", err.Error(),
			)
		}
		return nil
	}

	s.logger.Info("Rating fetched", "channel", ch.Code, "rating", value)
	return &value
}
