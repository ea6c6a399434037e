package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/sale"
)

// DefaultLedgerKey is the Redis list used when no key is configured.
const DefaultLedgerKey = "till:ledger"

// Entry is one posted payment.
type Entry struct {
	SaleID     uuid.UUID   `json:"saleId"`
	Revenue    money.Money `json:"revenue"`
	VAT        money.Money `json:"vat"`
	Discount   money.Money `json:"discount"`
	AmountPaid money.Money `json:"amountPaid"`
	Change     money.Money `json:"change"`
	PostedAt   time.Time   `json:"postedAt"`
}

// EntryFor derives the ledger entry for a finalized sale.
func EntryFor(rec sale.Record) Entry {
	e := Entry{
		SaleID:     rec.ID,
		Revenue:    rec.Payment.EffectiveTotal(),
		VAT:        rec.Payment.EffectiveVAT(),
		AmountPaid: rec.Payment.AmountPaid,
		Change:     rec.Payment.Change,
		PostedAt:   rec.CreatedAt,
	}
	if rec.Payment.Discount != nil {
		e.Discount = rec.Payment.Discount.Amount
	}
	return e
}

// Memory keeps ledger entries in process.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// FailWith makes subsequent postings fail with err; nil restores the ledger.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// RecordPayment appends the entry for rec.
func (m *Memory) RecordPayment(_ context.Context, rec sale.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, EntryFor(rec))
	return nil
}

// Entries returns the posted entries in order.
func (m *Memory) Entries(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...), nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Redis posts entries as JSON onto a Redis list.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a ledger writing to key on client.
func NewRedis(client *redis.Client, key string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("accounting: redis client is required")
	}
	if key == "" {
		key = DefaultLedgerKey
	}
	return &Redis{client: client, key: key}, nil
}

// RecordPayment pushes the entry for rec to the tail of the list.
func (r *Redis) RecordPayment(ctx context.Context, rec sale.Record) error {
	data, err := json.Marshal(EntryFor(rec))
	if err != nil {
		return fmt.Errorf("accounting: encode entry: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("accounting: post entry: %w", err)
	}
	return nil
}

// Entries reads the whole list back in posting order.
func (r *Redis) Entries(ctx context.Context) ([]Entry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("accounting: read entries: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("accounting: decode entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
