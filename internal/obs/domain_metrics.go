package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesFinalizedTotal counts transaction records that completed the finalize protocol.
	SalesFinalizedTotal prometheus.Counter
	// RevenueMinorUnitsTotal accumulates realized revenue in minor units.
	RevenueMinorUnitsTotal prometheus.Counter
	// PaymentsTotal counts payment finalization attempts by outcome.
	PaymentsTotal *prometheus.CounterVec
	// ObserverFailuresTotal counts isolated observer failures by topic.
	ObserverFailuresTotal *prometheus.CounterVec
	// FinalizeStepFailuresTotal counts collaborator failures by finalize step.
	FinalizeStepFailuresTotal *prometheus.CounterVec
	// FinalizeDuration records finalize protocol latency in milliseconds.
	FinalizeDuration prometheus.Histogram
)

// DomainMetrics groups freshly built collectors; useful for tests that need an
// isolated registry.
type DomainMetrics struct {
	SalesFinalized  prometheus.Counter
	Revenue         prometheus.Counter
	Payments        *prometheus.CounterVec
	ObserverFailure *prometheus.CounterVec
	StepFailure     *prometheus.CounterVec
	FinalizeLatency prometheus.Histogram
}

// NewDomainMetrics builds the till collectors without registering them.
func NewDomainMetrics(namespace string) DomainMetrics {
	return DomainMetrics{
		SalesFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_finalized_total",
			Help:      "Number of sales that completed the finalize protocol.",
		}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_minor_units_total",
			Help:      "Realized revenue in currency minor units.",
		}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Count of payment finalization attempts by outcome.",
		}, []string{"result"}),
		ObserverFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observer_failures_total",
			Help:      "Count of observer notifications that failed.",
		}, []string{"topic"}),
		StepFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_step_failures_total",
			Help:      "Count of collaborator failures during finalization by step.",
		}, []string{"step"}),
		FinalizeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finalize_duration_ms",
			Help:      "Latency of the finalize protocol in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

// MustRegisterDomainMetrics initialises and registers the till collectors once
// per process and publishes them through the package level variables.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m := NewDomainMetrics(namespace)
		SalesFinalizedTotal = m.SalesFinalized
		RevenueMinorUnitsTotal = m.Revenue
		PaymentsTotal = m.Payments
		ObserverFailuresTotal = m.ObserverFailure
		FinalizeStepFailuresTotal = m.StepFailure
		FinalizeDuration = m.FinalizeLatency

		mustRegisterCollector(reg, SalesFinalizedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				SalesFinalizedTotal = v
			}
		})
		mustRegisterCollector(reg, RevenueMinorUnitsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RevenueMinorUnitsTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentsTotal = v
			}
		})
		mustRegisterCollector(reg, ObserverFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ObserverFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, FinalizeStepFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				FinalizeStepFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, FinalizeDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				FinalizeDuration = v
			}
		})
	})
}

// CountObserverFailure increments the observer failure counter when metrics are registered.
func CountObserverFailure(topic string) {
	if ObserverFailuresTotal != nil {
		ObserverFailuresTotal.WithLabelValues(topic).Inc()
	}
}

// CountStepFailure increments the finalize step failure counter when metrics are registered.
func CountStepFailure(step string) {
	if FinalizeStepFailuresTotal != nil {
		FinalizeStepFailuresTotal.WithLabelValues(step).Inc()
	}
}

// CountPayment increments the payment outcome counter when metrics are registered.
func CountPayment(result string) {
	if PaymentsTotal != nil {
		PaymentsTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
