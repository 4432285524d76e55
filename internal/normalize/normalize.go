package normalize

import (
	"time"

	"tvratings-parser/internal/ratings"
)

// Timestamp форматирует момент в локальном времени процесса.
// Часовой пояс сознательно не пишется: потребители исторически ждут "голое" локальное время.
func Timestamp(t time.Time) string {
	return t.Local().Format(ratings.TimestampLayout)
}

// Normalize приводит сырые значения к фиксированной схеме каталога.
// Отсутствующее значение становится 0.0, присутствующее передаётся без изменений.
// Пустой timestamp заменяется текущим временем.
func Normalize(catalog ratings.Catalog, raw ratings.Raw, timestamp string) ratings.Record {
	if timestamp == "" {
		timestamp = Timestamp(time.Now())
	}

	rec := ratings.Record{
		Timestamp: timestamp,
		Ratings:   make([]ratings.ChannelRating, 0, len(catalog)),
	}

	for _, ch := range catalog {
		value := 0.0
		if v := raw[ch.Code]; v != nil {
			value = *v
		}
		rec.Ratings = append(rec.Ratings, ratings.ChannelRating{Code: ch.Code, Value: value})
	}

	return rec
}
