// Package metrics exposes usage and orchestrator activity as Prometheus collectors.
package metrics

import (
	"context"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the collectors. Register it on one registry per process.
type Metrics struct {
	tokens      *prometheus.GaugeVec
	imageCalls  prometheus.Gauge
	cost        prometheus.Gauge
	calls       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	slides      prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tokens: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deckwright_usage_tokens",
				Help: "Tokens recorded in the usage ledger since the last reset",
			},
			[]string{"kind"},
		),
		imageCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deckwright_usage_image_calls",
			Help: "Image calls recorded in the usage ledger since the last reset",
		}),
		cost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deckwright_usage_cost_estimate",
			Help: "Estimated cost of the usage ledger under the current pricing",
		}),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckwright_orchestrator_calls_total",
				Help: "Orchestrator calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckwright_state_transitions_total",
				Help: "Lifecycle state transitions by target state",
			},
			[]string{"to"},
		),
		slides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deckwright_slides_generated_total",
			Help: "Slides produced by the generation pipeline",
		}),
	}
	reg.MustRegister(m.tokens, m.imageCalls, m.cost, m.calls, m.transitions, m.slides)
	return m
}

// ObserveUsage mirrors ledger totals. Use it as a usage.Subscriber.
func (m *Metrics) ObserveUsage(t domain.UsageTotals) {
	m.tokens.WithLabelValues(string(domain.UsagePrompt)).Set(float64(t.TokensPrompt))
	m.tokens.WithLabelValues(string(domain.UsageCompletion)).Set(float64(t.TokensCompletion))
	m.imageCalls.Set(float64(t.ImageCalls))
	m.cost.Set(t.CostEstimate)
}

// ObserveCall counts one orchestrator call. Use it as an orchestrator.Observer.
func (m *Metrics) ObserveCall(op, outcome string) {
	m.calls.WithLabelValues(op, outcome).Inc()
}

// Hooks returns lifecycle hooks counting transitions and slides. Existing
// hooks in base are still called.
func (m *Metrics) Hooks(base domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(string(e.To)).Inc()
			if base.OnTransition != nil {
				base.OnTransition(ctx, e)
			}
		},
		OnSlide: func(ctx context.Context, e *domain.SlideEvent) {
			m.slides.Inc()
			if base.OnSlide != nil {
				base.OnSlide(ctx, e)
			}
		},
	}
}
