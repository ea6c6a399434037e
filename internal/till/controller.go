package till

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/discount"
	"github.com/noah-isme/pos-till/internal/inventory"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/payment"
	"github.com/noah-isme/pos-till/internal/sale"
)

// ErrSaleCompleted is returned when a sale is used after its payment was finalized.
var ErrSaleCompleted = errors.New("sale already completed")

// Finalizer commits a completed sale.
type Finalizer interface {
	Finalize(ctx context.Context, rec sale.Record) error
}

// Controller drives a sale from the first scan to finalization.
type Controller struct {
	Catalog          inventory.Catalog
	Discounts        discount.Source
	Finalizer        Finalizer
	PaymentObservers []payment.Observer
	Logger           zerolog.Logger
	Now              func() time.Time
}

// Sale is one in-progress transaction. Dropping it abandons the sale.
type Sale struct {
	basket     *basket.Basket
	payment    *payment.Payment
	rules      *discount.RuleSet
	customerID string
	done       bool
}

// Basket returns the sale's basket.
func (s *Sale) Basket() *basket.Basket { return s.basket }

// Completed reports whether the payment has been finalized.
func (s *Sale) Completed() bool { return s.done }

// StartSale opens a new sale with an empty basket.
func (c *Controller) StartSale() *Sale {
	p := payment.New(c.Logger)
	p.AddObservers(c.PaymentObservers...)
	return &Sale{basket: basket.New(), payment: p}
}

// ScanItem looks itemID up in the catalogue and adds qty of it to the basket.
// Catalogue errors are returned unchanged.
func (c *Controller) ScanItem(ctx context.Context, s *Sale, itemID string, qty int) (basket.Line, error) {
	if s.done {
		return basket.Line{}, saleCompleted("till.scan")
	}
	item, err := c.Catalog.GetItem(ctx, itemID)
	if err != nil {
		return basket.Line{}, err
	}
	if err := s.basket.Add(item, qty); err != nil {
		return basket.Line{}, err
	}
	c.Logger.Debug().Str("item_id", item.ID).Int("qty", qty).Str("running_total", s.basket.Subtotal().String()).Msg("item scanned")
	return basket.Line{Item: item, Quantity: s.basket.Quantity(item.ID)}, nil
}

// IdentifyCustomer fetches the discount rules for customerID, an empty ID
// meaning an anonymous customer, and applies the resulting discount. It
// returns the discount figures, or nil when no rule grants a discount.
func (c *Controller) IdentifyCustomer(ctx context.Context, s *Sale, customerID string) (*payment.Discounted, error) {
	if s.done {
		return nil, saleCompleted("till.identify_customer")
	}
	rules, err := c.Discounts.GetRules(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.rules = rules
	s.customerID = strings.TrimSpace(customerID)
	s.payment.PriceBasket(s.basket)
	if err := s.payment.ApplyDiscount(rules, s.basket); err != nil {
		return nil, err
	}
	return s.payment.Discount(), nil
}

// Pay prices the basket, applies any fetched discount, finalizes payment with
// amount and hands the resulting record to the finalizer. An insufficient
// amount leaves the sale open for another attempt. Once payment succeeds the
// sale is complete even if finalization fails.
func (c *Controller) Pay(ctx context.Context, s *Sale, amount money.Money) (sale.Record, error) {
	if s.done {
		return sale.Record{}, saleCompleted("till.pay")
	}
	s.payment.PriceBasket(s.basket)
	if s.rules != nil {
		if err := s.payment.ApplyDiscount(s.rules, s.basket); err != nil {
			return sale.Record{}, err
		}
	}
	p, err := s.payment.FinalizePayment(ctx, amount)
	if err != nil {
		return sale.Record{}, err
	}
	s.done = true

	rec := sale.NewRecord(s.basket, p, s.customerID, c.now())
	if err := c.Finalizer.Finalize(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func saleCompleted(step string) error {
	return common.NewAppError(common.CodeSaleCompleted, "sale is already completed", step, ErrSaleCompleted)
}
