package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/events"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/obs"
)

// Finalize steps, used in errors, logs and metrics.
const (
	StepCashDrawer = "cash_drawer"
	StepPrint      = "print_receipt"
	StepInventory  = "inventory"
	StepAccounting = "accounting"
	StepSaleLog    = "sale_log"
	StepFetchLast  = "sale_log_last"
)

// ErrCollaborator marks failures raised by an external collaborator during finalization.
var ErrCollaborator = errors.New("collaborator unavailable")

// CashDrawer tracks cash moving through the till.
type CashDrawer interface {
	RecordCashMovement(ctx context.Context, amountPaid, change money.Money) error
}

// ReceiptPrinter prints the customer receipt.
type ReceiptPrinter interface {
	Print(ctx context.Context, rec Record) error
}

// Inventory decrements stock for sold items.
type Inventory interface {
	ApplyBasketToStock(ctx context.Context, lines []basket.Line) error
}

// Accounting appends payment records to the ledger.
type Accounting interface {
	RecordPayment(ctx context.Context, rec Record) error
}

// Log is the append-only, insertion-ordered sale log.
type Log interface {
	Append(ctx context.Context, rec Record) error
	LastAppended(ctx context.Context) (Record, error)
}

// Observer is notified once per finalized sale with the record as stored in the sale log.
type Observer interface {
	OnTransactionFinalized(ctx context.Context, rec Record) error
}

// Collaborators are the external systems the finalizer updates.
type Collaborators struct {
	Drawer     CashDrawer
	Printer    ReceiptPrinter
	Inventory  Inventory
	Accounting Accounting
	Log        Log
}

// Finalizer commits a completed sale to the external systems and notifies
// finalization observers.
type Finalizer struct {
	c         Collaborators
	logger    zerolog.Logger
	observers events.Registry[Observer]
}

// NewFinalizer returns a finalizer over the given collaborators.
func NewFinalizer(c Collaborators, logger zerolog.Logger) (*Finalizer, error) {
	switch {
	case c.Drawer == nil:
		return nil, errors.New("sale: cash drawer not configured")
	case c.Printer == nil:
		return nil, errors.New("sale: receipt printer not configured")
	case c.Inventory == nil:
		return nil, errors.New("sale: inventory not configured")
	case c.Accounting == nil:
		return nil, errors.New("sale: accounting not configured")
	case c.Log == nil:
		return nil, errors.New("sale: sale log not configured")
	}
	return &Finalizer{c: c, logger: logger.With().Str("component", "finalizer").Logger()}, nil
}

// AddObserver registers o; registering the same observer again is a no-op.
func (f *Finalizer) AddObserver(o Observer) {
	f.observers.Add(o)
}

// AddObservers registers every observer in order.
func (f *Finalizer) AddObservers(observers ...Observer) {
	f.observers.AddAll(observers...)
}

// Finalize records the cash movement, prints the receipt, updates inventory,
// accounting and the sale log, then notifies observers with the last record
// of the sale log. Steps run in that order; the first collaborator failure
// stops the protocol. Inventory updates are best effort and observer failures
// never fail the call.
func (f *Finalizer) Finalize(ctx context.Context, rec Record) error {
	ctx, span := otel.Tracer("sale.Finalizer").Start(ctx, "Finalizer.Finalize")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", rec.ID.String()))
	start := time.Now()

	if err := f.c.Drawer.RecordCashMovement(ctx, rec.Payment.AmountPaid, rec.Payment.Change); err != nil {
		return f.fail(StepCashDrawer, rec, err)
	}
	if err := f.c.Printer.Print(ctx, rec); err != nil {
		return f.fail(StepPrint, rec, err)
	}
	if err := f.updateLogs(ctx, rec); err != nil {
		return err
	}

	last, err := f.c.Log.LastAppended(ctx)
	if err != nil {
		return f.fail(StepFetchLast, rec, err)
	}
	if obs.SalesFinalizedTotal != nil {
		obs.SalesFinalizedTotal.Inc()
	}
	if obs.FinalizeDuration != nil {
		obs.FinalizeDuration.Observe(float64(time.Since(start)) / float64(time.Millisecond))
	}

	notifyErr := f.observers.Notify(ctx, events.TopicSaleFinalized, func(ctx context.Context, o Observer) error {
		return o.OnTransactionFinalized(ctx, last)
	})
	if notifyErr != nil {
		span.RecordError(notifyErr)
		f.logger.Error().Err(notifyErr).Str("sale_id", last.ID.String()).Msg("finalization observer failed")
	}
	f.logger.Info().
		Str("sale_id", rec.ID.String()).
		Str("total", rec.Payment.EffectiveTotal().String()).
		Str("paid", rec.Payment.AmountPaid.String()).
		Str("change", rec.Payment.Change.String()).
		Msg("sale finalized")
	return nil
}

func (f *Finalizer) updateLogs(ctx context.Context, rec Record) error {
	if err := f.c.Inventory.ApplyBasketToStock(ctx, rec.Lines); err != nil {
		obs.CountStepFailure(StepInventory)
		f.logger.Warn().Err(err).Str("sale_id", rec.ID.String()).Msg("inventory update failed")
	}
	if err := f.c.Accounting.RecordPayment(ctx, rec); err != nil {
		return f.fail(StepAccounting, rec, err)
	}
	if err := f.c.Log.Append(ctx, rec); err != nil {
		return f.fail(StepSaleLog, rec, err)
	}
	return nil
}

func (f *Finalizer) fail(step string, rec Record, err error) error {
	obs.CountStepFailure(step)
	f.logger.Error().Err(err).Str("step", step).Str("sale_id", rec.ID.String()).Msg("finalize step failed")
	return common.NewAppError(common.CodeCollaboratorUnavailable,
		fmt.Sprintf("sale %s: %v", rec.ID, err), "finalize."+step,
		fmt.Errorf("%w: %w", ErrCollaborator, err))
}
