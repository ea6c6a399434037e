package printer

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// ESC/POS control bytes.
const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// Align is an ESC/POS justification mode.
type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Character sizes for GS !.
const (
	SizeNormal byte = 0x00
	SizeDouble byte = 0x11
	SizeWide   byte = 0x10
)

// DefaultWidth fits 58mm paper.
const DefaultWidth = 32

// Document accumulates an ESC/POS byte stream for a thermal printer.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument returns an initialized document with width characters per line.
func NewDocument(width int) *Document {
	if width <= 0 {
		width = DefaultWidth
	}
	d := &Document{width: width}
	d.buf.Write([]byte{esc, '@'})
	return d
}

// Width returns the characters per line.
func (d *Document) Width() int { return d.width }

func (d *Document) Align(a Align) *Document {
	d.buf.Write([]byte{esc, 'a', byte(a)})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{esc, 'E', b})
	return d
}

func (d *Document) Size(size byte) *Document {
	d.buf.Write([]byte{gs, '!', size})
	return d
}

// Line writes s and a line feed.
func (d *Document) Line(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(lf)
	return d
}

// Feed writes n blank lines.
func (d *Document) Feed(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
	return d
}

// Rule writes a full-width line of ch.
func (d *Document) Rule(ch rune) *Document {
	return d.Line(strings.Repeat(string(ch), d.width))
}

// Columns writes left and right on one line, padding between them so right
// ends at the last column. At least one space separates the two.
func (d *Document) Columns(left, right string) *Document {
	gap := d.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	return d.Line(left + strings.Repeat(" ", gap) + right)
}

// Cut feeds and performs a partial paper cut.
func (d *Document) Cut() *Document {
	d.buf.Write([]byte{gs, 'V', 0x01})
	return d
}

// Bytes returns the accumulated stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}
