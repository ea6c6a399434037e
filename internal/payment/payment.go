package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/discount"
	"github.com/noah-isme/pos-till/internal/events"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/obs"
)

var (
	// ErrNotPriced is returned when a discount or payment step runs before PriceBasket.
	ErrNotPriced = errors.New("basket has not been priced")
	// ErrInsufficientPayment is returned when the amount paid does not cover the total.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrAlreadyFinalized is returned when a payment record has already been produced.
	ErrAlreadyFinalized = errors.New("payment already finalized")
)

// Payment computes totals, discount and change for a single sale.
type Payment struct {
	logger    zerolog.Logger
	observers events.Registry[Observer]

	priced     bool
	totalPrice money.Money
	totalVAT   money.Money
	discount   *Discounted
	record     *Record
}

// New returns a payment for one sale.
func New(logger zerolog.Logger) *Payment {
	return &Payment{logger: logger.With().Str("component", "payment").Logger()}
}

// AddObserver registers o; registering the same observer again is a no-op.
func (p *Payment) AddObserver(o Observer) {
	p.observers.Add(o)
}

// AddObservers registers every observer in order.
func (p *Payment) AddObservers(observers ...Observer) {
	p.observers.AddAll(observers...)
}

// PriceBasket sets the pre-discount total and VAT from the basket contents.
func (p *Payment) PriceBasket(b *basket.Basket) {
	p.totalPrice = b.Subtotal()
	p.totalVAT = b.VATTotal()
	p.priced = true
}

// ApplyDiscount asks the discount policy for a discount against rules and
// stores the outcome, replacing any earlier attempt. A nil rule set or a zero
// discount leaves the payment without discount figures.
func (p *Payment) ApplyDiscount(rules *discount.RuleSet, b *basket.Basket) error {
	if !p.priced {
		return notPriced("payment.apply_discount")
	}
	if p.record != nil {
		return alreadyFinalized("payment.apply_discount")
	}
	p.discount = nil
	out, ok := discount.Select(rules, b, p.totalPrice)
	if !ok {
		return nil
	}
	after := discount.TotalAfterDiscount(p.totalPrice, out.Amount)
	p.discount = &Discounted{
		Amount:     out.Amount,
		TotalPrice: after,
		TotalVAT:   discount.VATAfterDiscount(after, p.totalPrice, p.totalVAT),
		RuleName:   out.Rule.Name,
	}
	return nil
}

// FinalizePayment records the amount paid, computes change and notifies every
// observer with the realized revenue. An insufficient amount is reported
// without side effects so the caller can retry with a corrected amount.
func (p *Payment) FinalizePayment(ctx context.Context, amountPaid money.Money) (Record, error) {
	ctx, span := otel.Tracer("payment.Payment").Start(ctx, "Payment.FinalizePayment")
	defer span.End()

	if p.record != nil {
		return Record{}, alreadyFinalized("payment.finalize")
	}
	if !p.priced {
		return Record{}, notPriced("payment.finalize")
	}
	effective := p.totalPrice
	if p.discount != nil {
		effective = p.discount.TotalPrice
	}
	change := amountPaid.Minus(effective)
	span.SetAttributes(
		attribute.String("payment.total", effective.String()),
		attribute.String("payment.paid", amountPaid.String()),
		attribute.String("payment.change", change.String()),
	)
	if change.IsNegative() {
		obs.CountPayment("insufficient")
		return Record{}, common.NewAppError(common.CodeInsufficientPayment,
			fmt.Sprintf("amount paid %s does not cover total %s", amountPaid, effective),
			"payment.finalize", ErrInsufficientPayment)
	}

	rec := Record{
		TotalPrice: p.totalPrice,
		TotalVAT:   p.totalVAT,
		AmountPaid: amountPaid,
		Change:     change,
	}
	if p.discount != nil {
		d := *p.discount
		rec.Discount = &d
	}
	p.record = &rec
	obs.CountPayment("success")

	err := p.observers.Notify(ctx, events.TopicPaymentFinalized, func(ctx context.Context, o Observer) error {
		return o.OnPaymentFinalized(ctx, effective)
	})
	if err != nil {
		span.RecordError(err)
		p.logger.Error().Err(err).Str("revenue", effective.String()).Msg("payment observer failed")
	}
	return rec, nil
}

// Record returns the finalized record, if any.
func (p *Payment) Record() (Record, bool) {
	if p.record == nil {
		return Record{}, false
	}
	return *p.record, true
}

// Priced reports whether PriceBasket has run.
func (p *Payment) Priced() bool {
	return p.priced
}

// TotalPrice returns the pre-discount total.
func (p *Payment) TotalPrice() money.Money {
	return p.totalPrice
}

// TotalVAT returns the pre-discount VAT.
func (p *Payment) TotalVAT() money.Money {
	return p.totalVAT
}

// Discount returns a copy of the current discount figures, or nil.
func (p *Payment) Discount() *Discounted {
	if p.discount == nil {
		return nil
	}
	d := *p.discount
	return &d
}

func notPriced(step string) error {
	return common.NewAppError(common.CodeNotPriced, "basket must be priced first", step, ErrNotPriced)
}

func alreadyFinalized(step string) error {
	return common.NewAppError(common.CodeAlreadyFinalized, "payment was already finalized", step, ErrAlreadyFinalized)
}
