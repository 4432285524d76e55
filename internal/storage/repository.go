package storage

import (
	"context"

	"tvratings-parser/internal/ratings"
)

// Sink приёмник нормализованных записей. Ошибка Append фатальна для цикла.
type Sink interface {
	Name() string

	// Append дописывает одну запись
	Append(ctx context.Context, rec ratings.Record) error

	Close() error
}
