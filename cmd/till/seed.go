package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-till/internal/basket"
	"github.com/noah-isme/pos-till/internal/common"
	"github.com/noah-isme/pos-till/internal/discount"
	"github.com/noah-isme/pos-till/internal/inventory"
	"github.com/noah-isme/pos-till/internal/money"
	"github.com/noah-isme/pos-till/internal/till"
)

func seedItems() []inventory.Stocked {
	food := decimal.RequireFromString("0.06")
	standard := decimal.RequireFromString("0.25")
	return []inventory.Stocked{
		{Item: basket.Item{ID: "abc123", Name: "Milk 1L", Price: money.New(1590), VATRate: food}, Stock: 40},
		{Item: basket.Item{ID: "def456", Name: "Rye bread", Price: money.New(3295), VATRate: food}, Stock: 20},
		{Item: basket.Item{ID: "ghi789", Name: "Dish soap", Price: money.New(2450), VATRate: standard}, Stock: 15},
	}
}

func seedDiscounts() (*discount.MemorySource, error) {
	return discount.NewMemorySource(
		[]discount.Rule{
			{Name: "bread-20", Kind: discount.KindItemPercent, PercentBps: 2000, ItemID: "def456"},
			{Name: "big-basket-10", Kind: discount.KindThresholdPercent, PercentBps: 1000, MinTotal: money.New(10000)},
			{Name: "member-5", Kind: discount.KindLoyaltyPercent, PercentBps: 500, Tier: "member"},
		},
		[]discount.Customer{
			{ID: "199001011234", Name: "Alva Member", Tier: "member"},
		},
	)
}

type sampleLine struct {
	itemID string
	qty    int
}

type sampleSale struct {
	lines    []sampleLine
	customer string
	tenders  []money.Money
}

// runSampleSales rings up a few scripted sales so a fresh till has data in
// every store. The second tender of the last sale covers a short first one.
func runSampleSales(ctx context.Context, c *till.Controller, logger zerolog.Logger) {
	sales := []sampleSale{
		{
			lines:   []sampleLine{{"abc123", 2}, {"ghi789", 1}},
			tenders: []money.Money{money.New(10000)},
		},
		{
			lines:    []sampleLine{{"def456", 1}, {"abc123", 1}},
			customer: "199001011234",
			tenders:  []money.Money{money.New(5000)},
		},
		{
			lines:    []sampleLine{{"def456", 3}, {"abc123", 1}},
			customer: "",
			tenders:  []money.Money{money.New(5000), money.New(12000)},
		},
	}
	for i, script := range sales {
		log := logger.With().Int("sample", i+1).Logger()
		s := c.StartSale()
		for _, l := range script.lines {
			if _, err := c.ScanItem(ctx, s, l.itemID, l.qty); err != nil {
				log.Error().Err(err).Str("item_id", l.itemID).Msg("scan failed")
			}
		}
		if d, err := c.IdentifyCustomer(ctx, s, script.customer); err != nil {
			log.Error().Err(err).Msg("discount lookup failed")
		} else if d != nil {
			log.Info().Str("rule", d.RuleName).Str("discount", d.Amount.String()).Msg("discount applied")
		}
		for _, tender := range script.tenders {
			rec, err := c.Pay(ctx, s, tender)
			if err != nil {
				log.Warn().Err(err).Str("code", common.CodeOf(err)).Str("tendered", tender.String()).Msg("payment rejected")
				continue
			}
			log.Info().
				Str("sale_id", rec.ID.String()).
				Str("total", rec.Payment.EffectiveTotal().String()).
				Str("change", rec.Payment.Change.String()).
				Msg("sample sale paid")
			break
		}
	}
}
