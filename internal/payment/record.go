package payment

import (
	"context"

	"github.com/noah-isme/pos-till/internal/money"
)

// Observer is notified once per completed payment with the realized revenue
// of the sale (the post-discount total when a discount applied).
type Observer interface {
	OnPaymentFinalized(ctx context.Context, revenue money.Money) error
}

// Discounted groups the after-discount figures. It is either fully present on
// a Record or absent.
type Discounted struct {
	Amount     money.Money `json:"amount"`
	TotalPrice money.Money `json:"totalPrice"`
	TotalVAT   money.Money `json:"totalVat"`
	RuleName   string      `json:"ruleName,omitempty"`
}

// Record is the immutable pricing, discount and change outcome of one sale.
type Record struct {
	TotalPrice money.Money `json:"totalPrice"`
	TotalVAT   money.Money `json:"totalVat"`
	AmountPaid money.Money `json:"amountPaid"`
	Change     money.Money `json:"change"`
	Discount   *Discounted `json:"discount,omitempty"`
}

// EffectiveTotal returns the amount the customer owed.
func (r Record) EffectiveTotal() money.Money {
	if r.Discount != nil {
		return r.Discount.TotalPrice
	}
	return r.TotalPrice
}

// EffectiveVAT returns the VAT contained in EffectiveTotal.
func (r Record) EffectiveVAT() money.Money {
	if r.Discount != nil {
		return r.Discount.TotalVAT
	}
	return r.TotalVAT
}
