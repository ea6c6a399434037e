package printer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-till/internal/sale"
)

// ReceiptPrinter renders sale records as ESC/POS receipts.
type ReceiptPrinter struct {
	device Device
	header string
	width  int
	logger zerolog.Logger
}

// NewReceiptPrinter returns a printer that prints to device with header as the
// store line.
func NewReceiptPrinter(device Device, header string, width int, logger zerolog.Logger) *ReceiptPrinter {
	if width <= 0 {
		width = DefaultWidth
	}
	return &ReceiptPrinter{
		device: device,
		header: header,
		width:  width,
		logger: logger.With().Str("component", "printer").Logger(),
	}
}

// Print renders rec and sends it to the device.
func (p *ReceiptPrinter) Print(ctx context.Context, rec sale.Record) error {
	data := Render(rec, p.header, p.width)
	if err := p.device.Send(ctx, data); err != nil {
		return err
	}
	p.logger.Debug().Str("sale_id", rec.ID.String()).Int("bytes", len(data)).Msg("receipt printed")
	return nil
}

// Ready reports whether the device is reachable.
func (p *ReceiptPrinter) Ready(ctx context.Context) bool {
	return p.device.Ready(ctx)
}

// Render formats rec as a receipt. The discount block is printed only when the
// payment carries a discount.
func Render(rec sale.Record, header string, width int) []byte {
	doc := NewDocument(width)
	if header != "" {
		doc.Align(AlignCenter).Bold(true).Size(SizeDouble).
			Line(header).
			Size(SizeNormal).Bold(false)
	}
	doc.Align(AlignLeft).
		Line("Sale " + shortID(rec)).
		Line(rec.CreatedAt.Format("2006-01-02 15:04")).
		Rule('-')

	for _, l := range rec.Lines {
		doc.Columns(fmt.Sprintf("%dx %s", l.Quantity, l.Item.Name), l.Total().String())
	}
	doc.Rule('-')

	p := rec.Payment
	doc.Columns("Total", p.TotalPrice.String()).
		Columns("VAT", p.TotalVAT.String())
	if d := p.Discount; d != nil {
		label := "Discount"
		if d.RuleName != "" {
			label += " (" + d.RuleName + ")"
		}
		doc.Columns(label, "-"+d.Amount.String()).
			Bold(true).
			Columns("To pay", d.TotalPrice.String()).
			Bold(false).
			Columns("VAT after discount", d.TotalVAT.String())
	}
	doc.Rule('-').
		Columns("Paid", p.AmountPaid.String()).
		Columns("Change", p.Change.String()).
		Feed(2).
		Cut()
	return doc.Bytes()
}

func shortID(rec sale.Record) string {
	id := rec.ID.String()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
