// Package browsertest подменяет браузер в тестах: страницы отдаются из map по URL.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"tvratings-parser/internal/browser"
)

var ErrLaunch = errors.New("browsertest: launch failed")

// Launcher фейковый запуск. Pages: url -> html, Errors: url -> ошибка навигации.
type Launcher struct {
	Pages     map[string]string
	Errors    map[string]error
	FailStart bool

	mu          sync.Mutex
	Launches    int
	Closes      int
	PagesClosed int
	Visited     []string
}

func (l *Launcher) Launch(ctx context.Context) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailStart {
		return nil, ErrLaunch
	}
	l.Launches++
	return &session{l: l}, nil
}

// Open сколько сессий открыто и не закрыто
func (l *Launcher) Open() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Launches - l.Closes
}

type session struct {
	l      *Launcher
	closed bool
}

func (s *session) NewPage() (browser.Page, error) {
	return &page{l: s.l}, nil
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.l.mu.Lock()
	s.l.Closes++
	s.l.mu.Unlock()
	return nil
}

type page struct {
	l *Launcher
}

func (p *page) Render(ctx context.Context, url string) (string, error) {
	p.l.mu.Lock()
	p.l.Visited = append(p.l.Visited, url)
	p.l.mu.Unlock()

	if err := p.l.Errors[url]; err != nil {
		return "", err
	}
	html, ok := p.l.Pages[url]
	if !ok {
		return "<html><body></body></html>", nil
	}
	return html, nil
}

func (p *page) Close() error {
	p.l.mu.Lock()
	p.l.PagesClosed++
	p.l.mu.Unlock()
	return nil
}
