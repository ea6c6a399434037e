package discount

import (
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/pos-till/internal/money"
)

// Kind identifies how a rule computes its discount.
type Kind string

const (
	// KindItemPercent takes a percentage off the lines of a single item.
	KindItemPercent Kind = "item_percent"
	// KindThresholdPercent takes a percentage off the total once it reaches MinTotal.
	KindThresholdPercent Kind = "threshold_percent"
	// KindLoyaltyPercent takes a percentage off the total for customers of a tier.
	KindLoyaltyPercent Kind = "loyalty_percent"
	// KindFixedAmount takes a fixed amount off once the total reaches MinTotal.
	KindFixedAmount Kind = "fixed_amount"
)

// ErrInvalidRule is returned when a rule fails validation.
var ErrInvalidRule = errors.New("invalid discount rule")

// Rule captures one eligibility condition and the discount it grants.
type Rule struct {
	Name       string      `json:"name" validate:"required"`
	Kind       Kind        `json:"kind" validate:"required,oneof=item_percent threshold_percent loyalty_percent fixed_amount"`
	PercentBps int32       `json:"percentBps" validate:"gte=0,lte=10000"`
	Amount     money.Money `json:"amount"`
	ItemID     string      `json:"itemId,omitempty" validate:"required_if=Kind item_percent"`
	MinTotal   money.Money `json:"minTotal"`
	Tier       string      `json:"tier,omitempty" validate:"required_if=Kind loyalty_percent"`
	CustomerID string      `json:"customerId,omitempty"`
}

// Customer is a registered customer that rules may be scoped to.
type Customer struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// RuleSet is the immutable snapshot of rules fetched for one transaction,
// optionally bound to the identified customer.
type RuleSet struct {
	Rules    []Rule
	Customer *Customer
}

var validate = validator.New()

// ValidateRule checks the struct constraints and the monetary fields that tags cannot express.
func ValidateRule(r Rule) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidRule, r.Name, err)
	}
	if r.Amount.IsNegative() || r.MinTotal.IsNegative() {
		return fmt.Errorf("%w %q: amounts must not be negative", ErrInvalidRule, r.Name)
	}
	if r.Kind == KindFixedAmount && r.Amount.IsZero() {
		return fmt.Errorf("%w %q: fixed amount is required", ErrInvalidRule, r.Name)
	}
	if r.Kind != KindFixedAmount && r.PercentBps == 0 {
		return fmt.Errorf("%w %q: percentBps is required", ErrInvalidRule, r.Name)
	}
	return nil
}
