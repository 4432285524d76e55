package observability

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"tvratings-parser/internal/config"
)

// Logger процессный логгер. Создаётся один раз в main и передаётся компонентам.
type Logger struct {
	*log.Logger
	file io.Closer
}

func NewLogger(cfg config.ObservabilityConfig) (*Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var (
		out  io.Writer = os.Stderr
		file io.Closer
	)
	if cfg.LogPath != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			LocalTime:  true,
		}
		out = io.MultiWriter(os.Stderr, rotating)
		file = rotating
	}

	return &Logger{
		Logger: newBase(out, level),
		file:   file,
	}, nil
}

// NewLoggerTo пишет в произвольный writer (тесты, debug-вывод)
func NewLoggerTo(w io.Writer, level log.Level) *Logger {
	return &Logger{Logger: newBase(w, level)}
}

// NewNopLogger глушит весь вывод
func NewNopLogger() *Logger {
	return NewLoggerTo(io.Discard, log.ErrorLevel)
}

func newBase(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
}

// With возвращает дочерний логгер с постоянными полями
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...), file: l.file}
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
