package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"tvratings-parser/internal/observability"
	"tvratings-parser/internal/ratings"
)

var (
	// ErrSchemaMismatch заголовок файла не совпадает с колонками записи
	ErrSchemaMismatch = errors.New("csv schema mismatch")
	// ErrCorruptStore файл есть, но прочитать его как хранилище нельзя
	ErrCorruptStore = errors.New("csv store is corrupt")
)

// Store append-only CSV файл с рейтингами.
// Один процесс на один путь: блокировок нет.
type Store struct {
	path   string
	logger *observability.Logger
}

func NewStore(path string, logger *observability.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) Name() string { return "csv" }

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return nil }

// Append создаёт файл с заголовком при первой записи, иначе проверяет заголовок и дописывает строку
func (s *Store) Append(_ context.Context, rec ratings.Record) error {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.create(rec); err != nil {
			return err
		}
		s.logger.Info("CSV file created", "path", s.path, "columns", len(rec.Header()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrCorruptStore, s.path)
	}

	if err := s.compareHeader(rec.Header()); err != nil {
		return err
	}

	if err := s.appendRow(rec, info.Size()); err != nil {
		return err
	}
	s.logger.Info("Row appended", "path", s.path, "timestamp", rec.Timestamp)
	return nil
}

// CheckHeader сверяет заголовок существующего файла с ожидаемым.
// Файла ещё нет: ошибки нет, он будет создан с этим заголовком.
func (s *Store) CheckHeader(want []string) error {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrCorruptStore, s.path)
	}
	return s.compareHeader(want)
}

func (s *Store) compareHeader(want []string) error {
	header, err := s.readHeader()
	if err != nil {
		return err
	}
	if !slices.Equal(header, want) {
		return fmt.Errorf("%w: file has %v, expected %v", ErrSchemaMismatch, header, want)
	}
	return nil
}

// create пишет заголовок и первую строку во временный файл и атомарно переименовывает
func (s *Store) create(rec ratings.Record) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(rec.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.Write(rec.Row()); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}
	return nil
}

// syncFile подменяется в тестах
var syncFile = (*os.File).Sync

// appendRow дописывает строку в конец файла.
// При ошибке записи файл обрезается до size: прежнее содержимое остаётся целым.
func (s *Store) appendRow(rec ratings.Record, size int64) (err error) {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("Failed to close csv file", "path", s.path, "error", closeErr.Error())
		}
	}()

	// Оборванная последняя строка склеилась бы с новой
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if last[0] != '\n' {
		return fmt.Errorf("%w: %s does not end with a newline", ErrCorruptStore, s.path)
	}

	defer func() {
		if err == nil {
			return
		}
		if truncErr := f.Truncate(size); truncErr != nil {
			s.logger.Error("Failed to roll back partial row", "path", s.path, "error", truncErr.Error())
			err = errors.Join(err, fmt.Errorf("%w: rollback failed: %v", ErrCorruptStore, truncErr))
			return
		}
		if syncErr := syncFile(f); syncErr != nil {
			s.logger.Warn("Failed to sync after rollback", "path", s.path, "error", syncErr.Error())
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(rec.Row()); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := syncFile(f); err != nil {
		return fmt.Errorf("failed to sync %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header", ErrCorruptStore, s.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return header, nil
}

// ReadAll читает заголовок и все строки данных
func (s *Store) ReadAll() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no header", ErrCorruptStore, s.path)
	}
	return records[0], records[1:], nil
}

// Records читает файл как нормализованные записи в порядке добавления
func (s *Store) Records() ([]ratings.Record, error) {
	header, rows, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]ratings.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := ratings.RecordFromRow(header, row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrCorruptStore, i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
