package sale

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/payment"
)

// Record is the full record of one completed sale. Once appended to the sale
// log the log owns it.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	Lines      []basket.Line  `json:"lines"`
	Payment    payment.Record `json:"payment"`
	CustomerID string         `json:"customerId,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewRecord snapshots the basket together with the payment outcome.
func NewRecord(b *basket.Basket, p payment.Record, customerID string, now time.Time) Record {
	return Record{
		ID:         uuid.New(),
		Lines:      b.Lines(),
		Payment:    p,
		CustomerID: customerID,
		CreatedAt:  now.UTC(),
	}
}

// Clone returns a deep copy so the holder cannot share lines or discount
// figures with the caller.
func (r Record) Clone() Record {
	out := r
	if r.Lines != nil {
		out.Lines = append([]basket.Line(nil), r.Lines...)
	}
	if r.Payment.Discount != nil {
		d := *r.Payment.Discount
		out.Payment.Discount = &d
	}
	return out
}
