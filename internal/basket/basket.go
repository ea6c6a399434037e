package basket

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/money"
)

// ErrInvalidQuantity is returned when an item is added with a quantity below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Item is immutable reference data fetched from inventory.
type Item struct {
	ID      string          `json:"id" validate:"required"`
	Name    string          `json:"name" validate:"required"`
	Price   money.Money     `json:"price"`
	VATRate decimal.Decimal `json:"vatRate"`
}

// Line pairs an item with its quantity in the basket.
type Line struct {
	Item     Item `json:"item"`
	Quantity int  `json:"quantity"`
}

// Total returns price * quantity for the line.
func (l Line) Total() money.Money {
	return l.Item.Price.Times(l.Quantity)
}

// VAT returns price * vatRate * quantity for the line.
func (l Line) VAT() money.Money {
	return l.Item.Price.MultipliedBy(l.Item.VATRate).Times(l.Quantity)
}

// Basket is an insertion-ordered mapping from item to quantity.
type Basket struct {
	lines []Line
	index map[string]int
}

// New returns an empty basket.
func New() *Basket {
	return &Basket{index: make(map[string]int)}
}

// Add inserts the item at the end of the basket or increments the quantity of
// an existing entry with the same item ID.
func (b *Basket) Add(item Item, qty int) error {
	if qty < 1 {
		return common.NewAppError(common.CodeInvalidQuantity,
			fmt.Sprintf("quantity %d for item %s must be at least 1", qty, item.ID),
			"basket.add", ErrInvalidQuantity)
	}
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[item.ID]; ok {
		b.lines[i].Quantity += qty
		return nil
	}
	b.index[item.ID] = len(b.lines)
	b.lines = append(b.lines, Line{Item: item, Quantity: qty})
	return nil
}

// Lines returns a copy of the basket entries in insertion order.
func (b *Basket) Lines() []Line {
	if b == nil {
		return nil
	}
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of distinct items.
func (b *Basket) Len() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// IsEmpty reports whether no item has been added.
func (b *Basket) IsEmpty() bool {
	return b.Len() == 0
}

// Quantity returns the quantity registered for the item ID, or 0.
func (b *Basket) Quantity(itemID string) int {
	if b == nil {
		return 0
	}
	if i, ok := b.index[itemID]; ok {
		return b.lines[i].Quantity
	}
	return 0
}

// Subtotal sums price * quantity over all entries.
func (b *Basket) Subtotal() money.Money {
	total := money.Zero
	if b == nil {
		return total
	}
	for _, l := range b.lines {
		total = total.Plus(l.Total())
	}
	return total
}

// VATTotal sums price * vatRate * quantity over all entries.
func (b *Basket) VATTotal() money.Money {
	total := money.Zero
	if b == nil {
		return total
	}
	for _, l := range b.lines {
		total = total.Plus(l.VAT())
	}
	return total
}
