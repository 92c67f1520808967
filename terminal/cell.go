package terminal

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/rivo/uniseg"
)

// ErrInvalidGlyph reports cell content that is not a single, valid
// extended grapheme cluster.
var ErrInvalidGlyph = errors.New("invalid glyph")

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone          Attr = 0
	AttrBold          Attr = 1 << 0
	AttrDim           Attr = 1 << 1
	AttrItalic        Attr = 1 << 2
	AttrUnderline     Attr = 1 << 3
	AttrBlink         Attr = 1 << 4
	AttrReverse       Attr = 1 << 5
	AttrStrikeThrough Attr = 1 << 6

	// attrContinuation marks the internally generated trailing half of a
	// wide glyph. Never set by callers.
	attrContinuation Attr = 1 << 7
)

// AttrStyle masks the caller-visible style bits.
const AttrStyle Attr = AttrBold | AttrDim | AttrItalic | AttrUnderline |
	AttrBlink | AttrReverse | AttrStrikeThrough

// Has returns true if the attribute set contains the given attribute.
func (a Attr) Has(attr Attr) bool {
	return a&attr != 0
}

// Cell is one terminal grid position: a glyph plus its styling.
//
// Rune holds the cluster's first code point; Cluster holds the full
// cluster only when it spans multiple code points, so the common
// single-rune case stays allocation-free. Width is the glyph's column
// count (1 or 2); the trailing column of a wide glyph is a separate
// continuation cell with Width 0. The zero Cell is "unwritten" and is
// what transparent planes leak through.
type Cell struct {
	Rune    rune
	Cluster string
	Fg      Color
	Bg      Color
	Attrs   Attr
	Width   int8
}

// NewCell validates and builds a cell from a single extended grapheme
// cluster. Fails with ErrInvalidGlyph for empty input, invalid UTF-8,
// or input spanning more than one cluster.
func NewCell(egc string, fg, bg Color, attrs Attr) (Cell, error) {
	if egc == "" || !utf8.ValidString(egc) {
		return Cell{}, errors.Wrapf(ErrInvalidGlyph, "%q", egc)
	}
	cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(egc, -1)
	if rest != "" {
		return Cell{}, errors.Wrapf(ErrInvalidGlyph, "%q spans multiple clusters", egc)
	}
	if r, _ := utf8.DecodeRuneInString(cluster); isControlRune(r) {
		return Cell{}, errors.Wrapf(ErrInvalidGlyph, "control character %q", r)
	}
	c := Cell{
		Fg:    fg,
		Bg:    bg,
		Attrs: attrs & AttrStyle,
		Width: int8(clusterWidth(cluster)),
	}
	c.Rune, _ = utf8.DecodeRuneInString(cluster)
	if utf8.RuneCountInString(cluster) > 1 {
		c.Cluster = cluster
	}
	return c, nil
}

// MustCell is NewCell for static glyphs known to be valid.
func MustCell(egc string, fg, bg Color, attrs Attr) Cell {
	c, err := NewCell(egc, fg, bg, attrs)
	if err != nil {
		panic(err)
	}
	return c
}

// CharCell builds a cell from a single rune with default colors.
func CharCell(r rune) Cell {
	return Cell{
		Rune:  r,
		Width: int8(clusterWidth(string(r))),
	}
}

// EmptyCell returns a space cell with default styling.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1}
}

// Continuation returns the trailing-column cell paired with a wide
// primary, carrying the primary's colors so the pair styles as a unit.
func (c Cell) Continuation() Cell {
	return Cell{
		Fg:    c.Fg,
		Bg:    c.Bg,
		Attrs: (c.Attrs & AttrStyle) | attrContinuation,
	}
}

// EGC returns the cell's full grapheme cluster, "" for unwritten and
// continuation cells.
func (c Cell) EGC() string {
	if c.Cluster != "" {
		return c.Cluster
	}
	if c.Rune == 0 {
		return ""
	}
	return string(c.Rune)
}

// IsContinuation reports whether this is the trailing half of a wide glyph.
func (c Cell) IsContinuation() bool {
	return c.Attrs&attrContinuation != 0
}

// IsBlank reports whether the cell holds no glyph (unwritten, not a
// continuation).
func (c Cell) IsBlank() bool {
	return c.Rune == 0 && c.Attrs&attrContinuation == 0
}

// Blank returns a space cell keeping this cell's colors and attributes.
// Used when a wide glyph is split and its halves must degrade to blanks.
func (c Cell) Blank() Cell {
	return Cell{
		Rune:  ' ',
		Fg:    c.Fg,
		Bg:    c.Bg,
		Attrs: c.Attrs & AttrStyle,
		Width: 1,
	}
}

// isControlRune reports C0/C1 controls and DEL. They have no cell
// representation, and emitted raw they desynchronize the cursor from
// the renderer's tracking or corrupt the escape stream.
func isControlRune(r rune) bool {
	return r < 0x20 || (r >= 0x7f && r < 0xa0)
}

// clusterWidth returns the column width of a grapheme cluster, clamped
// to [1,2]. Combining-only clusters render over a blank column and
// count as 1.
func clusterWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	if w < 1 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

// GlyphWidth returns the column width of the first grapheme cluster of
// s: 2 for wide glyphs, otherwise 1, and 0 for empty input.
func GlyphWidth(s string) int {
	if s == "" {
		return 0
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return clusterWidth(cluster)
}
