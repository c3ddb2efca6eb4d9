// Package metrics provides Prometheus instrumentation for the store.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/ontostore/internal/notify"
)

// Collector holds all Prometheus metrics for a store.
type Collector struct {
	// Store operation metrics
	OperationsTotal  *prometheus.CounterVec
	SchemaViolations *prometheus.CounterVec
	RecordsLive      prometheus.Gauge

	// Notification metrics
	NotificationsDelivered prometheus.Counter
	PropertiesDelivered    *prometheus.CounterVec
	ChangeSize             prometheus.Histogram
}

// New creates a collector with all metrics registered on reg.
// Pass a fresh prometheus.NewRegistry() to avoid global state.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ontostore",
				Name:      "operations_total",
				Help:      "Total number of store write operations by outcome",
			},
			[]string{"op", "table", "result"},
		),
		SchemaViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ontostore",
				Name:      "schema_violations_total",
				Help:      "Total number of schema contract violations raised by the store",
			},
			[]string{"code"},
		),
		RecordsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ontostore",
				Name:      "records_live",
				Help:      "Number of records currently registered in the store",
			},
		),
		NotificationsDelivered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ontostore",
				Name:      "notifications_delivered_total",
				Help:      "Total number of change notifications delivered",
			},
		),
		PropertiesDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ontostore",
				Name:      "properties_delivered_total",
				Help:      "Total number of changed properties delivered, by property name",
			},
			[]string{"property"},
		),
		ChangeSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ontostore",
				Name:      "change_properties",
				Help:      "Number of properties carried by one delivered change",
				Buckets:   []float64{1, 2, 4, 8, 16, 32},
			},
		),
	}
}

// Operation records the outcome of one store write.
func (c *Collector) Operation(op, table, result string) {
	c.OperationsTotal.WithLabelValues(op, table, result).Inc()
}

// SchemaViolation records a contract violation by error code.
func (c *Collector) SchemaViolation(code string) {
	c.SchemaViolations.WithLabelValues(code).Inc()
}

// SetRecords sets the live record gauge.
func (c *Collector) SetRecords(n int) {
	c.RecordsLive.Set(float64(n))
}

// Handler returns a notification sink for notify.Notifier.SubscribeAll.
func (c *Collector) Handler() notify.Handler {
	return func(ch notify.Change) error {
		c.NotificationsDelivered.Inc()
		c.ChangeSize.Observe(float64(len(ch.Properties)))
		for _, p := range ch.Properties {
			c.PropertiesDelivered.WithLabelValues(p).Inc()
		}
		return nil
	}
}

// Dump writes counter and gauge samples from g as plain
// "name{label="value"} sample" lines, sorted by metric name.
// Histograms are summarized by their sample count and sum.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})

	for _, f := range families {
		for _, m := range f.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := f.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				_, err = fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				_, err = fmt.Fprintf(w, "%s %g\n", name, m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				_, err = fmt.Fprintf(w, "%s_count %d\n%s_sum %g\n", name, h.GetSampleCount(), name, h.GetSampleSum())
			}
			if err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
	}
	return nil
}
