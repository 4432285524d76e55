package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tvratings-parser/internal/ratings"
)

// Metrics коллекторы одного процесса. Регистрация в собственном registry,
// выгрузка в textfile для node_exporter после каждого цикла.
type Metrics struct {
	registry        *prometheus.Registry
	path            string
	Cycles          *prometheus.CounterVec
	ChannelFailures *prometheus.CounterVec
	ChannelRating   *prometheus.GaugeVec
	LastSuccess     prometheus.Gauge
}

func NewMetrics(path string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		path:     path,
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvratings_cycles_total",
				Help: "Scrape cycles, by result.",
			},
			[]string{"result"},
		),
		ChannelFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvratings_channel_failures_total",
				Help: "Channels whose rating could not be extracted.",
			},
			[]string{"channel"},
		),
		ChannelRating: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tvratings_channel_rating",
				Help: "Last stored rating per channel.",
			},
			[]string{"channel"},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tvratings_last_success_timestamp_seconds",
				Help: "Unix time of the last successfully stored cycle.",
			},
		),
	}

	m.registry.MustRegister(m.Cycles, m.ChannelFailures, m.ChannelRating, m.LastSuccess)
	return m
}

// ObserveChannelFailures считает каналы без значения сразу после прохода,
// независимо от того, чем закончится цикл
func (m *Metrics) ObserveChannelFailures(failed []string) {
	for _, code := range failed {
		m.ChannelFailures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) ObserveSuccess(rec ratings.Record, at time.Time) {
	m.Cycles.WithLabelValues("success").Inc()
	for _, cr := range rec.Ratings {
		m.ChannelRating.WithLabelValues(cr.Code).Set(cr.Value)
	}
	m.LastSuccess.Set(float64(at.Unix()))
}

func (m *Metrics) ObserveFailure() {
	m.Cycles.WithLabelValues("failure").Inc()
}

// Flush пишет текущие значения в metrics_path; без пути ничего не делает
func (m *Metrics) Flush() error {
	if m.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.path, m.registry)
}
