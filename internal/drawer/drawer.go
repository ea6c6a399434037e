package drawer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-till/internal/money"
)

// DefaultOpeningFloat is the cash placed in the drawer when the till opens.
var DefaultOpeningFloat = money.New(5000)

var (
	// ErrNegativeMovement is returned for negative paid or change amounts.
	ErrNegativeMovement = errors.New("cash movement must not be negative")
	// ErrInsufficientCash is returned when the drawer cannot cover the change.
	ErrInsufficientCash = errors.New("not enough cash in drawer for change")
)

// Drawer tracks the cash balance of one till.
type Drawer struct {
	mu      sync.Mutex
	balance money.Money
	logger  zerolog.Logger
}

// New opens a drawer holding openingFloat.
func New(openingFloat money.Money, logger zerolog.Logger) (*Drawer, error) {
	if openingFloat.IsNegative() {
		return nil, fmt.Errorf("drawer: opening float %s is negative", openingFloat)
	}
	return &Drawer{balance: openingFloat, logger: logger.With().Str("component", "drawer").Logger()}, nil
}

// RecordCashMovement adds the amount paid and removes the change handed back.
func (d *Drawer) RecordCashMovement(_ context.Context, amountPaid, change money.Money) error {
	if amountPaid.IsNegative() || change.IsNegative() {
		return ErrNegativeMovement
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.balance.Plus(amountPaid).Minus(change)
	if next.IsNegative() {
		return fmt.Errorf("%w: balance %s, change %s", ErrInsufficientCash, d.balance, change)
	}
	d.balance = next
	d.logger.Debug().Str("paid", amountPaid.String()).Str("change", change.String()).Str("balance", next.String()).Msg("cash movement")
	return nil
}

// Balance returns the cash currently in the drawer.
func (d *Drawer) Balance() money.Money {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.balance
}
