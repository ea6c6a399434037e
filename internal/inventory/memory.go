package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
)

var (
	// ErrUnknownItem is returned when an item ID is not in the catalogue.
	ErrUnknownItem = errors.New("item not found")
	// ErrUnavailable is returned when the inventory cannot be reached.
	ErrUnavailable = errors.New("inventory unavailable")
)

// Catalog resolves item IDs to item reference data.
type Catalog interface {
	GetItem(ctx context.Context, id string) (basket.Item, error)
}

// Stocked is a catalogue entry with its on-hand quantity.
type Stocked struct {
	Item  basket.Item
	Stock int `validate:"gte=0"`
}

var validate = validator.New()

// Memory is an in-process catalogue with stock levels.
type Memory struct {
	mu          sync.RWMutex
	items       map[string]basket.Item
	stock       map[string]int
	unavailable bool
	logger      zerolog.Logger
}

// NewMemory validates the seed entries and returns a catalogue over them.
func NewMemory(seed []Stocked, logger zerolog.Logger) (*Memory, error) {
	m := &Memory{
		items:  make(map[string]basket.Item, len(seed)),
		stock:  make(map[string]int, len(seed)),
		logger: logger.With().Str("component", "inventory").Logger(),
	}
	for _, s := range seed {
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("inventory: invalid item %q: %w", s.Item.ID, err)
		}
		if s.Item.Price.IsNegative() || s.Item.VATRate.IsNegative() {
			return nil, fmt.Errorf("inventory: item %q: price and VAT rate must not be negative", s.Item.ID)
		}
		if _, dup := m.items[s.Item.ID]; dup {
			return nil, fmt.Errorf("inventory: duplicate item %q", s.Item.ID)
		}
		m.items[s.Item.ID] = s.Item
		m.stock[s.Item.ID] = s.Stock
	}
	return m, nil
}

// SetUnavailable simulates an outage; every call fails while set.
func (m *Memory) SetUnavailable(down bool) {
	m.mu.Lock()
	m.unavailable = down
	m.mu.Unlock()
}

// GetItem implements Catalog.
func (m *Memory) GetItem(_ context.Context, id string) (basket.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable {
		return basket.Item{}, unavailable("inventory.get_item")
	}
	item, ok := m.items[strings.TrimSpace(id)]
	if !ok {
		return basket.Item{}, common.NewAppError(common.CodeUnknownItem,
			fmt.Sprintf("item %s is not in the catalogue", id), "inventory.get_item", ErrUnknownItem)
	}
	return item, nil
}

// Stock returns the on-hand quantity for id.
func (m *Memory) Stock(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stock[id]
}

// ApplyBasketToStock decrements stock for each sold line. Levels never drop
// below zero; shortfalls are logged.
func (m *Memory) ApplyBasketToStock(_ context.Context, lines []basket.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return unavailable("inventory.apply")
	}
	for _, l := range lines {
		onHand, ok := m.stock[l.Item.ID]
		if !ok {
			m.logger.Warn().Str("item_id", l.Item.ID).Msg("sold item missing from stock")
			continue
		}
		left := onHand - l.Quantity
		if left < 0 {
			m.logger.Warn().Str("item_id", l.Item.ID).Int("on_hand", onHand).Int("sold", l.Quantity).Msg("stock shortfall")
			left = 0
		}
		m.stock[l.Item.ID] = left
	}
	return nil
}

func unavailable(step string) error {
	return common.NewAppError(common.CodeCollaboratorUnavailable, "inventory is unavailable", step, ErrUnavailable)
}
