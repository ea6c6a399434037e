package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noah-isme/pos-till/internal/health"
)

type stubChecker struct {
	logErr    error
	ledgerErr error
}

func (s stubChecker) PingSaleLog(_ context.Context, _ time.Duration) error {
	return s.logErr
}

func (s stubChecker) PingLedger(_ context.Context, _ time.Duration) error {
	return s.ledgerErr
}

type deadlinePinger struct{}

func (deadlinePinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestLive(t *testing.T) {
	handler := health.Handler{}
	rr := httptest.NewRecorder()
	handler.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestReadySuccess(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}, SaleLogTimeout: 50 * time.Millisecond, LedgerTimeout: 50 * time.Millisecond}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var status map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status["sale_log"] != "ok" || status["ledger"] != "ok" {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestReadyFailure(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{ledgerErr: errors.New("redis down")}, SaleLogTimeout: 10 * time.Millisecond, LedgerTimeout: 10 * time.Millisecond}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rr.Code)
	}
}

func TestProbesApplyTimeout(t *testing.T) {
	probes := health.Probes{SaleLog: deadlinePinger{}}
	err := probes.PingSaleLog(context.Background(), 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if err := probes.PingLedger(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatalf("unset ledger probe should pass, got %v", err)
	}
}

func TestReadyReportsUnavailableWhileDraining(t *testing.T) {
	handler := health.Handler{Checker: stubChecker{}}
	defer health.SetReady(true)

	health.SetReady(false)
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while draining, got %d", rr.Code)
	}

	health.SetReady(true)
	rr = httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after reset, got %d", rr.Code)
	}
}

func TestReadyWithoutCheckerReturnsErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != "unavailable" {
		t.Fatalf("unexpected error code %q", body.Error.Code)
	}
}
