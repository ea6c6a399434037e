package discount

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/money"
)

// Outcome reports the rule that won the selection and the discount it yields.
type Outcome struct {
	Rule   Rule
	Amount money.Money
}

// Compute returns the discount granted by rules for the basket. The largest
// single eligible discount wins, ties go to the rule declared first, and rules
// never stack. The result is clamped to [0, preDiscountTotal].
func Compute(rules *RuleSet, b *basket.Basket, preDiscountTotal money.Money) money.Money {
	out, ok := Select(rules, b, preDiscountTotal)
	if !ok {
		return money.Zero
	}
	return out.Amount
}

// Select evaluates every rule and returns the winning one. It reports false
// when rules is nil or no rule yields a positive discount.
func Select(rules *RuleSet, b *basket.Basket, preDiscountTotal money.Money) (Outcome, bool) {
	if rules == nil || !preDiscountTotal.IsPositive() {
		return Outcome{}, false
	}
	var (
		best  Outcome
		found bool
	)
	for _, r := range rules.Rules {
		if !eligible(r, rules.Customer, b, preDiscountTotal) {
			continue
		}
		amount := ruleAmount(r, b, preDiscountTotal).Min(preDiscountTotal)
		if !amount.IsPositive() {
			continue
		}
		if !found || best.Amount.LessThan(amount) {
			best = Outcome{Rule: r, Amount: amount}
			found = true
		}
	}
	return best, found
}

// TotalAfterDiscount returns preDiscountTotal minus the discount, never below zero.
func TotalAfterDiscount(preDiscountTotal, discount money.Money) money.Money {
	if discount.IsNegative() {
		discount = money.Zero
	}
	after := preDiscountTotal.Minus(discount.Min(preDiscountTotal))
	if after.IsNegative() {
		return money.Zero
	}
	return after
}

// VATAfterDiscount scales the pre-discount VAT by totalAfter / preDiscountTotal,
// preserving the effective tax rate of the basket.
func VATAfterDiscount(totalAfter, preDiscountTotal, preDiscountVAT money.Money) money.Money {
	if preDiscountTotal.IsZero() {
		return money.Zero
	}
	return preDiscountVAT.ScaledBy(totalAfter, preDiscountTotal)
}

func eligible(r Rule, customer *Customer, b *basket.Basket, total money.Money) bool {
	if r.CustomerID != "" && (customer == nil || customer.ID != r.CustomerID) {
		return false
	}
	switch r.Kind {
	case KindItemPercent:
		return b.Quantity(r.ItemID) > 0
	case KindThresholdPercent, KindFixedAmount:
		return !total.LessThan(r.MinTotal)
	case KindLoyaltyPercent:
		return customer != nil && customer.Tier != "" && customer.Tier == r.Tier
	default:
		return false
	}
}

func ruleAmount(r Rule, b *basket.Basket, total money.Money) money.Money {
	switch r.Kind {
	case KindItemPercent:
		var eligibleTotal money.Money
		for _, l := range b.Lines() {
			if l.Item.ID == r.ItemID {
				eligibleTotal = eligibleTotal.Plus(l.Total())
			}
		}
		return percentOf(eligibleTotal, r.PercentBps)
	case KindThresholdPercent, KindLoyaltyPercent:
		return percentOf(total, r.PercentBps)
	case KindFixedAmount:
		return r.Amount
	default:
		return money.Zero
	}
}

func percentOf(amount money.Money, bps int32) money.Money {
	if bps <= 0 {
		return money.Zero
	}
	return amount.MultipliedBy(decimal.New(int64(bps), -4))
}
