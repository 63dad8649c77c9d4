package report

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ginjaninja78/meter-reading-import/internal/stats"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

// Metrics records pipeline counters and writes them to a Prometheus textfile
// after every phase. The CLI is short-lived, so nothing is served over HTTP;
// the node exporter textfile collector picks the file up instead.
type Metrics struct {
	path     string
	registry *prometheus.Registry

	rows      *prometheus.CounterVec
	imported  prometheus.Counter
	failed    prometheus.Counter
	conflicts prometheus.Counter
	lastRun   prometheus.Gauge

	now func() time.Time
}

// NewMetrics returns a Metrics reporter writing to path.
func NewMetrics(path string) *Metrics {
	m := &Metrics{
		path:     path,
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meterimport",
			Name:      "rows_validated_total",
			Help:      "Validated rows by status.",
		}, []string{"status"}),
		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meterimport",
			Name:      "readings_imported_total",
			Help:      "Readings written to the store.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meterimport",
			Name:      "readings_failed_total",
			Help:      "Valid rows that could not be written.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meterimport",
			Name:      "reading_conflicts_total",
			Help:      "Failed rows caused by an existing reading for the same meter and date.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "meterimport",
			Name:      "last_import_timestamp_seconds",
			Help:      "Unix time of the last finished import.",
		}),
		now: time.Now,
	}

	m.registry.MustRegister(m.rows, m.imported, m.failed, m.conflicts, m.lastRun)
	for _, s := range []types.RowStatus{types.StatusValid, types.StatusWarning, types.StatusError} {
		m.rows.WithLabelValues(string(s))
	}
	return m
}

// ValidationCompleted counts rows per status.
func (m *Metrics) ValidationCompleted(summary stats.Summary, _ []types.ValidationResult) error {
	m.rows.WithLabelValues(string(types.StatusValid)).Add(float64(summary.Valid))
	m.rows.WithLabelValues(string(types.StatusWarning)).Add(float64(summary.Warnings))
	m.rows.WithLabelValues(string(types.StatusError)).Add(float64(summary.Errors))
	return m.flush()
}

// ImportCompleted counts imported, failed and conflicting readings.
func (m *Metrics) ImportCompleted(outcome types.ImportOutcome) error {
	m.imported.Add(float64(outcome.SuccessCount))
	m.failed.Add(float64(outcome.FailureCount))
	m.conflicts.Add(float64(outcome.ConflictCount))
	m.lastRun.Set(float64(m.now().Unix()))
	return m.flush()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) flush() error {
	if m.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("report: write metrics: %w", err)
	}
	return nil
}
