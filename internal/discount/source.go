package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/pos-till/internal/common"
)

// ErrUnknownCustomer is returned when a customer ID is not registered.
var ErrUnknownCustomer = errors.New("customer not registered")

// Source provides the discount rules that apply to a transaction.
type Source interface {
	// GetRules returns the rule snapshot for customerID; an empty ID means an
	// anonymous customer.
	GetRules(ctx context.Context, customerID string) (*RuleSet, error)
}

// MemorySource serves a fixed rule catalogue and customer registry.
type MemorySource struct {
	rules     []Rule
	customers map[string]Customer
}

// NewMemorySource validates rules and customers and returns a source over them.
func NewMemorySource(rules []Rule, customers []Customer) (*MemorySource, error) {
	src := &MemorySource{customers: make(map[string]Customer, len(customers))}
	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			return nil, err
		}
		src.rules = append(src.rules, r)
	}
	for _, c := range customers {
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("discount: invalid customer %q: %w", c.ID, err)
		}
		src.customers[c.ID] = c
	}
	return src, nil
}

// GetRules implements Source.
func (s *MemorySource) GetRules(_ context.Context, customerID string) (*RuleSet, error) {
	set := &RuleSet{Rules: append([]Rule(nil), s.rules...)}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return set, nil
	}
	c, ok := s.customers[customerID]
	if !ok {
		return nil, common.NewAppError(common.CodeUnknownCustomer,
			fmt.Sprintf("customer %s is not registered", customerID), "discount.rules", ErrUnknownCustomer)
	}
	set.Customer = &c
	return set, nil
}
