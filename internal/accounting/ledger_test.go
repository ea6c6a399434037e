package accounting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-till/internal/accounting"
	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/payment"
	"github.com/noah-isme/pos-till/internal/sale"
)

func record(discounted bool) sale.Record {
	p := payment.Record{
		TotalPrice: money.New(2000),
		TotalVAT:   money.New(120),
		AmountPaid: money.New(2000),
		Change:     money.Zero,
	}
	if discounted {
		p.Discount = &payment.Discounted{Amount: money.New(200), TotalPrice: money.New(1800), TotalVAT: money.New(108)}
		p.Change = money.New(200)
	}
	return sale.NewRecord(basket.New(), p, "", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
}

func TestEntryForUsesEffectiveFigures(t *testing.T) {
	e := accounting.EntryFor(record(true))
	require.True(t, e.Revenue.Equal(money.New(1800)))
	require.True(t, e.VAT.Equal(money.New(108)))
	require.True(t, e.Discount.Equal(money.New(200)))

	plain := accounting.EntryFor(record(false))
	require.True(t, plain.Revenue.Equal(money.New(2000)))
	require.True(t, plain.Discount.IsZero())
}

func TestMemoryLedger(t *testing.T) {
	l := accounting.NewMemory()
	require.NoError(t, l.RecordPayment(context.Background(), record(false)))
	require.NoError(t, l.RecordPayment(context.Background(), record(true)))

	entries, err := l.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[1].Revenue.Equal(money.New(1800)))

	l.FailWith(errors.New("ledger locked"))
	require.Error(t, l.RecordPayment(context.Background(), record(false)))
	entries, _ = l.Entries(context.Background())
	require.Len(t, entries, 2)
}

func TestRedisLedgerAppendsInOrder(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	l, err := accounting.NewRedis(client, "")
	require.NoError(t, err)
	require.NoError(t, l.Ping(context.Background()))

	first, second := record(false), record(true)
	require.NoError(t, l.RecordPayment(context.Background(), first))
	require.NoError(t, l.RecordPayment(context.Background(), second))

	entries, err := l.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, first.ID, entries[0].SaleID)
	require.Equal(t, second.ID, entries[1].SaleID)
	require.True(t, entries[1].VAT.Equal(money.New(108)))

	stored, err := mr.List(accounting.DefaultLedgerKey)
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func TestRedisLedgerSurfacesOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	l, err := accounting.NewRedis(client, "ledger")
	require.NoError(t, err)

	mr.Close()
	require.Error(t, l.RecordPayment(context.Background(), record(false)))
	require.Error(t, l.Ping(context.Background()))

	_, err = accounting.NewRedis(nil, "ledger")
	require.Error(t, err)
}
