// Package report считает сводку по накопленным записям: последние значения,
// изменение к предыдущей записи, доля аудитории и охват по времени.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"tvratings-parser/internal/ratings"
)

var ErrNoRecords = errors.New("no records")

type ChannelSummary struct {
	Code   string
	Latest float64
	// Delta nil, если предыдущей записи нет
	Delta *float64
	// Share доля от суммы последних значений; nil, если сумма 0
	Share *float64
}

type Summary struct {
	Count    int
	First    time.Time
	Last     time.Time
	Channels []ChannelSummary
}

func (s Summary) Span() time.Duration {
	return s.Last.Sub(s.First)
}

// Summarize строит сводку по записям в порядке добавления
func Summarize(records []ratings.Record) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoRecords
	}

	first, last := records[0], records[len(records)-1]

	s := Summary{Count: len(records)}
	var err error
	if s.First, err = ratings.ParseTimestamp(first.Timestamp); err != nil {
		return Summary{}, fmt.Errorf("first record timestamp: %w", err)
	}
	if s.Last, err = ratings.ParseTimestamp(last.Timestamp); err != nil {
		return Summary{}, fmt.Errorf("last record timestamp: %w", err)
	}

	var total float64
	for _, cr := range last.Ratings {
		total += cr.Value
	}

	for _, cr := range last.Ratings {
		cs := ChannelSummary{Code: cr.Code, Latest: cr.Value}
		if len(records) > 1 {
			if prev, ok := records[len(records)-2].Get(cr.Code); ok {
				cs.Delta = ratings.Value(cr.Value - prev)
			}
		}
		if total != 0 {
			cs.Share = ratings.Value(cr.Value / total)
		}
		s.Channels = append(s.Channels, cs)
	}

	return s, nil
}

// Tail последние n записей; n <= 0 означает все
func Tail(records []ratings.Record, n int) []ratings.Record {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// Render печатает сводку и, если history не пуст, таблицу последних записей
func Render(w io.Writer, s Summary, history []ratings.Record) {
	fmt.Fprintf(w, "Records: %d\n", s.Count)
	fmt.Fprintf(w, "Last update: %s\n", s.Last.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(w, "Range: %.1f hours\n", s.Span().Hours())

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Channel", "Rating", "Delta", "Share"})
	for _, cs := range s.Channels {
		t.AppendRow(table.Row{cs.Code, ratings.FormatValue(cs.Latest), formatDelta(cs.Delta), formatShare(cs.Share)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(history) == 0 {
		return
	}

	h := table.NewWriter()
	h.SetOutputMirror(w)
	header := table.Row{}
	for _, col := range history[0].Header() {
		header = append(header, col)
	}
	h.AppendHeader(header)
	// новые сверху
	for i := len(history) - 1; i >= 0; i-- {
		row := table.Row{}
		for _, v := range history[i].Row() {
			row = append(row, v)
		}
		h.AppendRow(row)
	}
	h.SetStyle(table.StyleRounded)
	h.Render()
}

func formatDelta(d *float64) string {
	if d == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f", *d)
}

func formatShare(s *float64) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *s*100)
}
