package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/pos-till/internal/common"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingSaleLog(ctx context.Context, timeout time.Duration) error
	PingLedger(ctx context.Context, timeout time.Duration) error
}

// Pinger is implemented by the sale log and accounting ledger adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probes adapts the till's stores to Checker.
type Probes struct {
	SaleLog Pinger
	Ledger  Pinger
}

func (p Probes) PingSaleLog(ctx context.Context, timeout time.Duration) error {
	return ping(ctx, p.SaleLog, timeout)
}

func (p Probes) PingLedger(ctx context.Context, timeout time.Duration) error {
	return ping(ctx, p.Ledger, timeout)
}

func ping(ctx context.Context, p Pinger, timeout time.Duration) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Ping(ctx)
}

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness; the till clears it while shutting down.
func SetReady(v bool) {
	ready.Store(v)
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker        Checker
	SaleLogTimeout time.Duration
	LedgerTimeout  time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil || !ready.Load() {
		common.JSONError(w, http.StatusServiceUnavailable, "unavailable", "till unavailable")
		return
	}
	ctx := r.Context()
	logStatus := "ok"
	if err := h.Checker.PingSaleLog(ctx, h.saleLogTimeout()); err != nil {
		logStatus = err.Error()
	}
	ledgerStatus := "ok"
	if err := h.Checker.PingLedger(ctx, h.ledgerTimeout()); err != nil {
		ledgerStatus = err.Error()
	}
	status := map[string]string{
		"sale_log": logStatus,
		"ledger":   ledgerStatus,
	}
	code := http.StatusOK
	if logStatus != "ok" || ledgerStatus != "ok" {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) saleLogTimeout() time.Duration {
	if h.SaleLogTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.SaleLogTimeout
}

func (h Handler) ledgerTimeout() time.Duration {
	if h.LedgerTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.LedgerTimeout
}
