package basket_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/money"
)

func item(id string, price int64, vat string) basket.Item {
	return basket.Item{ID: id, Name: "Item " + id, Price: money.New(price), VATRate: decimal.RequireFromString(vat)}
}

func TestAddIncrementsExistingEntry(t *testing.T) {
	b := basket.New()
	require.NoError(t, b.Add(item("A", 1000, "0.06"), 1))
	require.NoError(t, b.Add(item("B", 500, "0.12"), 1))
	require.NoError(t, b.Add(item("A", 1000, "0.06"), 2))

	lines := b.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "A", lines[0].Item.ID)
	require.Equal(t, 3, lines[0].Quantity)
	require.Equal(t, "B", lines[1].Item.ID)
	require.Equal(t, 3, b.Quantity("A"))
	require.Equal(t, 0, b.Quantity("missing"))
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	b := basket.New()
	require.NoError(t, b.Add(item("A", 1000, "0.06"), 1))

	for _, qty := range []int{0, -3} {
		err := b.Add(item("A", 1000, "0.06"), qty)
		require.Error(t, err)
		require.True(t, errors.Is(err, basket.ErrInvalidQuantity))
		require.Equal(t, common.CodeInvalidQuantity, common.CodeOf(err))
	}
	require.Equal(t, 1, b.Quantity("A"), "failed add must leave basket untouched")
}

func TestSubtotalIndependentOfInsertionOrder(t *testing.T) {
	first := basket.New()
	require.NoError(t, first.Add(item("A", 1000, "0.06"), 2))
	require.NoError(t, first.Add(item("B", 333, "0.25"), 3))

	second := basket.New()
	require.NoError(t, second.Add(item("B", 333, "0.25"), 3))
	require.NoError(t, second.Add(item("A", 1000, "0.06"), 2))

	require.True(t, first.Subtotal().Equal(money.New(2999)))
	require.True(t, first.Subtotal().Equal(second.Subtotal()))
	require.True(t, first.VATTotal().Equal(second.VATTotal()))
}

func TestVATTotal(t *testing.T) {
	b := basket.New()
	require.NoError(t, b.Add(item("A", 1000, "0.06"), 2))
	require.True(t, b.Subtotal().Equal(money.New(2000)))
	require.True(t, b.VATTotal().Equal(money.New(120)))
}

func TestLinesReturnsCopy(t *testing.T) {
	b := basket.New()
	require.NoError(t, b.Add(item("A", 1000, "0.06"), 1))
	lines := b.Lines()
	lines[0].Quantity = 99
	require.Equal(t, 1, b.Quantity("A"))
}

func TestEmptyBasket(t *testing.T) {
	b := basket.New()
	require.True(t, b.IsEmpty())
	require.True(t, b.Subtotal().IsZero())
	require.True(t, b.VATTotal().IsZero())
}
