package revenue

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/sale"
)

// Tracker keeps the revenue realized since startup and logs each update.
type Tracker struct {
	mu     sync.Mutex
	total  money.Money
	sales  int
	logger zerolog.Logger
}

// NewTracker returns a tracker starting at zero.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger.With().Str("component", "revenue").Logger()}
}

// OnPaymentFinalized adds revenue to the running total.
func (t *Tracker) OnPaymentFinalized(_ context.Context, revenue money.Money) error {
	t.mu.Lock()
	t.total = t.total.Plus(revenue)
	t.sales++
	total, sales := t.total, t.sales
	t.mu.Unlock()

	t.logger.Info().Str("revenue", revenue.String()).Str("total", total.String()).Int("sales", sales).Msg("total revenue updated")
	return nil
}

// Total returns the running total.
func (t *Tracker) Total() money.Money {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// FileOutput appends one structured line per finalized sale with the running
// revenue total.
type FileOutput struct {
	mu     sync.Mutex
	total  money.Money
	logger zerolog.Logger
	now    func() time.Time
}

// NewFileOutput writes revenue lines to w.
func NewFileOutput(w io.Writer) *FileOutput {
	return &FileOutput{logger: zerolog.New(w), now: time.Now}
}

// OnTransactionFinalized adds the sale's effective total and writes the new total.
func (f *FileOutput) OnTransactionFinalized(_ context.Context, rec sale.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total = f.total.Plus(rec.Payment.EffectiveTotal())
	f.logger.Log().
		Str("sale_id", rec.ID.String()).
		Str("revenue", f.total.String()).
		Int64("revenue_minor", f.total.MinorUnits()).
		Time("at", f.now().UTC()).
		Send()
	return nil
}

// Total returns the running total written so far.
func (f *FileOutput) Total() money.Money {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// Metrics exports payment revenue as Prometheus counters.
type Metrics struct {
	revenue prometheus.Counter
	sales   prometheus.Counter
}

// NewMetrics returns an observer over the given counters.
func NewMetrics(revenue, sales prometheus.Counter) (*Metrics, error) {
	if revenue == nil || sales == nil {
		return nil, errors.New("revenue: counters are required")
	}
	return &Metrics{revenue: revenue, sales: sales}, nil
}

// OnPaymentFinalized adds revenue in minor units to the counters.
func (m *Metrics) OnPaymentFinalized(_ context.Context, revenue money.Money) error {
	if revenue.IsNegative() {
		return errors.New("revenue: negative revenue")
	}
	m.revenue.Add(float64(revenue.MinorUnits()))
	m.sales.Inc()
	return nil
}
