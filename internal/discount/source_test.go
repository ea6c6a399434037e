package discount_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/discount"
)

func TestMemorySourceGetRules(t *testing.T) {
	src, err := discount.NewMemorySource(
		[]discount.Rule{{Name: "gold", Kind: discount.KindLoyaltyPercent, Tier: "gold", PercentBps: 1000}},
		[]discount.Customer{{ID: "c-1", Name: "Ada", Tier: "gold"}},
	)
	require.NoError(t, err)
	ctx := context.Background()

	anon, err := src.GetRules(ctx, "")
	require.NoError(t, err)
	require.Nil(t, anon.Customer)
	require.Len(t, anon.Rules, 1)

	known, err := src.GetRules(ctx, " c-1 ")
	require.NoError(t, err)
	require.NotNil(t, known.Customer)
	require.Equal(t, "gold", known.Customer.Tier)

	_, err = src.GetRules(ctx, "nobody")
	require.ErrorIs(t, err, discount.ErrUnknownCustomer)
	require.Equal(t, common.CodeUnknownCustomer, common.CodeOf(err))
}

func TestMemorySourceRejectsInvalidData(t *testing.T) {
	_, err := discount.NewMemorySource([]discount.Rule{{Name: "bad", Kind: "bogus", PercentBps: 100}}, nil)
	require.ErrorIs(t, err, discount.ErrInvalidRule)

	_, err = discount.NewMemorySource(nil, []discount.Customer{{Name: "no id"}})
	require.Error(t, err)
}

func TestRuleSetSnapshotIsIndependent(t *testing.T) {
	src, err := discount.NewMemorySource([]discount.Rule{{Name: "ten", Kind: discount.KindThresholdPercent, PercentBps: 1000}}, nil)
	require.NoError(t, err)

	first, err := src.GetRules(context.Background(), "")
	require.NoError(t, err)
	first.Rules[0].PercentBps = 9000

	second, err := src.GetRules(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, int32(1000), second.Rules[0].PercentBps)
}
