package ratings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampColumn всегда идёт первой колонкой в записи и в CSV
const TimestampColumn = "TIMESTAMP"

// TimestampLayout локальное время без смещения, микросекунды всегда 6 знаков
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ParseTimestamp читает timestamp записи как локальное время.
// Дробная часть секунд при разборе необязательна.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
}

// Channel связывает код канала (колонка CSV) со slug провайдера (часть URL)
type Channel struct {
	Code string `yaml:"code"`
	Slug string `yaml:"slug"`
}

// Catalog упорядоченный список каналов. Порядок задаёт порядок колонок.
type Catalog []Channel

// DefaultCatalog каналы, публикуемые metrics.zappingtv.com
func DefaultCatalog() Catalog {
	return Catalog{
		{Code: "CHV", Slug: "chv"},
		{Code: "CANAL13", Slug: "13"},
		{Code: "TVM", Slug: "tvm"},
		{Code: "TVNO", Slug: "tvno"},
		{Code: "LARED", Slug: "lared"},
		{Code: "MEGA", Slug: "mega"},
	}
}

// Codes возвращает коды каналов в порядке каталога
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for _, ch := range c {
		codes = append(codes, ch.Code)
	}
	return codes
}

// Header строка заголовка CSV для каталога
func (c Catalog) Header() []string {
	return append([]string{TimestampColumn}, c.Codes()...)
}

func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]struct{}, len(c))
	for i, ch := range c {
		if strings.TrimSpace(ch.Code) == "" {
			return fmt.Errorf("catalog[%d].code is required", i)
		}
		if strings.TrimSpace(ch.Slug) == "" {
			return fmt.Errorf("catalog[%d].slug is required", i)
		}
		if ch.Code == TimestampColumn {
			return fmt.Errorf("catalog[%d].code %q is reserved", i, ch.Code)
		}
		if _, dup := seen[ch.Code]; dup {
			return fmt.Errorf("catalog[%d].code %q is duplicated", i, ch.Code)
		}
		seen[ch.Code] = struct{}{}
	}
	return nil
}

// Raw результат одного прохода по каналам: nil означает, что значение не получено
type Raw map[string]*float64

// Value удобный конструктор для присутствующего значения
func Value(v float64) *float64 {
	return &v
}

// ChannelRating значение одного канала внутри нормализованной записи
type ChannelRating struct {
	Code  string
	Value float64
}

// Record нормализованная запись: timestamp + по одному значению на канал каталога
type Record struct {
	Timestamp string
	Ratings   []ChannelRating
}

func (r Record) Header() []string {
	header := make([]string, 0, len(r.Ratings)+1)
	header = append(header, TimestampColumn)
	for _, cr := range r.Ratings {
		header = append(header, cr.Code)
	}
	return header
}

func (r Record) Row() []string {
	row := make([]string, 0, len(r.Ratings)+1)
	row = append(row, r.Timestamp)
	for _, cr := range r.Ratings {
		row = append(row, FormatValue(cr.Value))
	}
	return row
}

// Get возвращает значение канала по коду
func (r Record) Get(code string) (float64, bool) {
	for _, cr := range r.Ratings {
		if cr.Code == code {
			return cr.Value, true
		}
	}
	return 0, false
}

// FormatValue пишет float в кратчайшей форме, но всегда с десятичной точкой: 6.4, 0.0
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}

// RecordFromRow собирает запись обратно из строки CSV
func RecordFromRow(header, row []string) (Record, error) {
	if len(header) == 0 || header[0] != TimestampColumn {
		return Record{}, fmt.Errorf("header must start with %s", TimestampColumn)
	}
	if len(row) != len(header) {
		return Record{}, fmt.Errorf("row has %d fields, header has %d", len(row), len(header))
	}

	rec := Record{
		Timestamp: row[0],
		Ratings:   make([]ChannelRating, 0, len(header)-1),
	}
	for i := 1; i < len(header); i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Record{}, fmt.Errorf("column %s: %w", header[i], err)
		}
		rec.Ratings = append(rec.Ratings, ChannelRating{Code: header[i], Value: v})
	}
	return rec, nil
}
