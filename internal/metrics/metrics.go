// Package metrics exposes DKG and beacon progress as prometheus metrics. All collectors are registered on a
// caller-supplied prometheus.Registerer, so several participants can share one process with separate registries.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dkgbeacon"

// Metrics is safe for concurrent use. A nil *Metrics discards all observations.
type Metrics struct {
	payloadsSubmitted *prometheus.CounterVec
	submitFailures    *prometheus.CounterVec
	disputesRaised    *prometheus.CounterVec
	epochsConcluded   prometheus.Counter
	epochsAbandoned   prometheus.Counter
	correctDealers    prometheus.Gauge

	sharesGenerated    prometheus.Counter
	combinedRandomness prometheus.Counter
	combineFailures    *prometheus.CounterVec
}

// New creates and registers all collectors. The participant label distinguishes committee members that share a
// registry.
func New(registerer prometheus.Registerer, participant string) (*Metrics, error) {
	labels := prometheus.Labels{"participant": participant}
	m := &Metrics{
		payloadsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dkg", Name: "payloads_submitted_total", ConstLabels: labels,
			Help: "Number of DKG round payloads accepted by the broadcast channel.",
		}, []string{"round"}),
		submitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dkg", Name: "submit_failures_total", ConstLabels: labels,
			Help: "Number of DKG round payloads the broadcast channel failed to accept.",
		}, []string{"round"}),
		disputesRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dkg", Name: "disputes_raised_total", ConstLabels: labels,
			Help: "Number of disputes raised against dealers, by kind.",
		}, []string{"kind"}),
		epochsConcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dkg", Name: "epochs_concluded_total", ConstLabels: labels,
			Help: "Number of DKG epochs concluded with a usable key share.",
		}),
		epochsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dkg", Name: "epochs_abandoned_total", ConstLabels: labels,
			Help: "Number of DKG epochs abandoned.",
		}),
		correctDealers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "dkg", Name: "correct_dealers", ConstLabels: labels,
			Help: "Size of the correct dealer set of the last concluded epoch.",
		}),
		sharesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "beacon", Name: "shares_generated_total", ConstLabels: labels,
			Help: "Number of randomness shares generated.",
		}),
		combinedRandomness: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "beacon", Name: "randomness_combined_total", ConstLabels: labels,
			Help: "Number of successful share combinations.",
		}),
		combineFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "beacon", Name: "combine_failures_total", ConstLabels: labels,
			Help: "Number of rejected share combinations, by reason.",
		}, []string{"reason"}),
	}

	collectors := []prometheus.Collector{
		m.payloadsSubmitted, m.submitFailures, m.disputesRaised, m.epochsConcluded, m.epochsAbandoned,
		m.correctDealers, m.sharesGenerated, m.combinedRandomness, m.combineFailures,
	}
	var errs []error
	for _, c := range collectors {
		errs = append(errs, registerer.Register(c))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) PayloadSubmitted(round string) {
	if m != nil {
		m.payloadsSubmitted.WithLabelValues(round).Inc()
	}
}

func (m *Metrics) SubmitFailed(round string) {
	if m != nil {
		m.submitFailures.WithLabelValues(round).Inc()
	}
}

func (m *Metrics) DisputeRaised(kind string) {
	if m != nil {
		m.disputesRaised.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) EpochConcluded(correctDealers int) {
	if m != nil {
		m.epochsConcluded.Inc()
		m.correctDealers.Set(float64(correctDealers))
	}
}

func (m *Metrics) EpochAbandoned() {
	if m != nil {
		m.epochsAbandoned.Inc()
	}
}

func (m *Metrics) ShareGenerated() {
	if m != nil {
		m.sharesGenerated.Inc()
	}
}

func (m *Metrics) RandomnessCombined() {
	if m != nil {
		m.combinedRandomness.Inc()
	}
}

func (m *Metrics) CombineFailed(reason string) {
	if m != nil {
		m.combineFailures.WithLabelValues(reason).Inc()
	}
}
