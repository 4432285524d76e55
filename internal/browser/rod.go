package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"tvratings-parser/internal/config"
	"tvratings-parser/internal/observability"
)

type RodLauncher struct {
	headless   bool
	chromePath string
	navTimeout time.Duration
	idleWait   time.Duration
	logger     *observability.Logger

	newLauncher func(ctx context.Context) *launcher.Launcher
}

func NewRodLauncher(cfg *config.Config, logger *observability.Logger) *RodLauncher {
	l := &RodLauncher{
		headless:   cfg.Rod.Headless,
		chromePath: cfg.Rod.ChromePath,
		navTimeout: cfg.GetNavigationTimeout(),
		idleWait:   cfg.GetIdleWait(),
		logger:     logger,
	}
	l.newLauncher = l.defaultLauncher
	return l
}

func (l *RodLauncher) defaultLauncher(ctx context.Context) *launcher.Launcher {
	ln := launcher.New().Context(ctx).Headless(l.headless)
	if l.chromePath != "" {
		ln = ln.Bin(l.chromePath)
	}
	return ln
}

func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	l.logger.Info("Starting browser", "headless", l.headless, "chrome_path", l.chromePath)

	ln := l.newLauncher(ctx)

	controlURL, err := ln.Launch()
	if err != nil {
		discardProfile(ln)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	l.logger.Info("Browser started")

	return &rodSession{
		browser:    b,
		launcher:   ln,
		navTimeout: l.navTimeout,
		idleWait:   l.idleWait,
		logger:     l.logger,
	}, nil
}

// discardProfile убирает процесс и временный профиль после неудачного Launch.
// launcher.Cleanup ждёт выхода процесса и не вернётся, если процесс не стартовал.
func discardProfile(ln *launcher.Launcher) {
	if ln.PID() != 0 {
		ln.Kill()
	}
	_ = os.RemoveAll(ln.Get(flags.UserDataDir))
}

type rodSession struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	navTimeout time.Duration
	idleWait   time.Duration
	logger     *observability.Logger
}

func (s *rodSession) NewPage() (Page, error) {
	p, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &rodPage{page: p, navTimeout: s.navTimeout, idleWait: s.idleWait}, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	// Cleanup ждёт завершения процесса и удаляет временный профиль
	s.launcher.Cleanup()
	s.logger.Info("Browser closed")
	return err
}

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
	idleWait   time.Duration
}

func (r *rodPage) Render(ctx context.Context, url string) (string, error) {
	p := r.page.Context(ctx).Timeout(r.navTimeout)
	defer p.CancelTimeout()

	var wait func()
	if r.idleWait > 0 {
		wait = p.WaitRequestIdle(r.idleWait, nil, nil, nil)
	}

	if err := p.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	if wait != nil {
		wait()
	} else if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}

	html, err := p.HTML()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("navigation timeout after %s: %w", r.navTimeout, err)
		}
		return "", fmt.Errorf("read html %s: %w", url, err)
	}
	return html, nil
}

func (r *rodPage) Close() error {
	return r.page.Close()
}
