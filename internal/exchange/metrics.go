package exchange

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by all metrics exposed by this
// package.
const MetricsSubsystem = "exchange"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of active listings.
	Listings metrics.Gauge
	// Number of registered listings.
	Registrations metrics.Counter
	// Number of accepted English bids.
	Bids metrics.Counter
	// Number of settled listings, by mode.
	Settlements metrics.Counter
	// Payment units moved by settlements.
	SettlementVolume metrics.Counter
	// Number of reclaimed listings.
	Reclaims metrics.Counter
	// Number of rejected actions, by reason.
	Rejections metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Listings: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "listings",
			Help:      "Number of active listings.",
		}, labels).With(labelsAndValues...),
		Registrations: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "registrations",
			Help:      "Number of registered listings.",
		}, labels).With(labelsAndValues...),
		Bids: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "bids",
			Help:      "Number of accepted English auction bids.",
		}, labels).With(labelsAndValues...),
		Settlements: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "settlements",
			Help:      "Number of settled listings.",
		}, append(labels[:len(labels):len(labels)], "mode")).With(labelsAndValues...),
		SettlementVolume: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "settlement_volume",
			Help:      "Payment units moved by settlements.",
		}, labels).With(labelsAndValues...),
		Reclaims: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "reclaims",
			Help:      "Number of expired listings reclaimed.",
		}, labels).With(labelsAndValues...),
		Rejections: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejections",
			Help:      "Number of rejected actions.",
		}, append(labels[:len(labels):len(labels)], "reason")).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Listings:         discard.NewGauge(),
		Registrations:    discard.NewCounter(),
		Bids:             discard.NewCounter(),
		Settlements:      discard.NewCounter(),
		SettlementVolume: discard.NewCounter(),
		Reclaims:         discard.NewCounter(),
		Rejections:       discard.NewCounter(),
	}
}
