package terminal

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// FlushStats summarizes the escape stream produced by one Render call.
type FlushStats struct {
	Cells  int // cells emitted
	Moves  int // cursor motions emitted
	Styles int // style transitions emitted
	Bytes  int // total bytes written to the sink
}

// Renderer turns frame diffs into a minimal escape stream.
//
// It tracks the physical cursor position and the last emitted style
// across calls so consecutive frames pay only for what changed. All
// output for a frame is batched into one buffer and delivered to the
// sink with a single Write followed by Flush.
type Renderer struct {
	caps Capability
	sink Sink
	buf  bytes.Buffer

	cursorX, cursorY int
	cursorValid      bool

	lastFg     Color
	lastBg     Color
	lastAttr   Attr
	styleValid bool

	stats FlushStats
	debug bool
}

// NewRenderer builds a renderer targeting the given sink with the given
// capability table. Setting STRATA_DEBUG_FLUSH in the environment logs
// per-frame flush statistics to strata-flush.log.
func NewRenderer(caps Capability, sink Sink) *Renderer {
	r := &Renderer{
		caps:  caps,
		sink:  sink,
		debug: os.Getenv("STRATA_DEBUG_FLUSH") != "",
	}
	r.buf.Grow(4096)
	return r
}

// Invalidate discards the tracked cursor position and style so the next
// emission re-establishes both. Call after bytes reached the terminal
// outside the renderer.
func (r *Renderer) Invalidate() {
	r.cursorValid = false
	r.styleValid = false
}

// Stats returns the statistics of the most recent Render call.
func (r *Renderer) Stats() FlushStats {
	return r.stats
}

// Render diffs cur against last and writes the escape stream updating
// the terminal from one to the other. Both slices are row-major
// width*height grids. Identical frames produce zero bytes and no sink
// calls. On sink failure the tracked cursor and style are invalidated
// and a wrapped ErrSinkWrite is returned; the caller must not promote
// cur to its baseline so the next call repairs the screen.
func (r *Renderer) Render(last, cur []Cell, width, height int) error {
	r.buf.Reset()
	r.stats = FlushStats{}

	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			cell := cur[row+x]
			if cell.IsContinuation() {
				continue
			}

			w := int(cell.Width)
			if w < 1 {
				w = 1
			}

			changed := cell != last[row+x]
			if !changed && w == 2 && x+1 < width {
				changed = cur[row+x+1] != last[row+x+1]
			}
			if !changed {
				continue
			}

			// A wide glyph whose trailing column would fall off the
			// grid degrades to a blank.
			if w == 2 && x+1 >= width {
				cell = cell.Blank()
				w = 1
			}

			r.moveCursor(x, y)
			r.writeStyle(cell.Fg, cell.Bg, cell.Attrs&AttrStyle)
			r.writeGlyph(cell)
			r.cursorX += w
			if r.cursorX >= width {
				// Whether the terminal wraps or holds in the last
				// column is terminal-dependent; stop trusting the
				// tracked position.
				r.cursorValid = false
			}
			r.stats.Cells++
		}
	}

	if r.buf.Len() == 0 {
		return nil
	}

	// Trailing reset keeps later out-of-band output (panics, shell)
	// from inheriting frame styling.
	r.buf.Write(csiSGR0)
	r.styleValid = false

	r.stats.Bytes = r.buf.Len()
	if r.debug {
		r.logFlush()
	}

	if err := r.sink.Write(r.buf.Bytes()); err != nil {
		r.Invalidate()
		return errors.Wrap(ErrSinkWrite, err.Error())
	}
	if err := r.sink.Flush(); err != nil {
		r.Invalidate()
		return errors.Wrap(ErrSinkWrite, err.Error())
	}
	return nil
}

// moveCursor emits the cheapest motion from the tracked position to
// (x, y): a relative move when the target shares a row or column with
// the cursor and the relative escape is strictly shorter than the
// absolute one, otherwise absolute addressing.
func (r *Renderer) moveCursor(x, y int) {
	if r.cursorValid && x == r.cursorX && y == r.cursorY {
		return
	}

	abs := r.caps.Goto(x, y)
	if r.cursorValid {
		if y == r.cursorY {
			if n := x - r.cursorX; relMoveLen(n) < len(abs) {
				writeCursorCol(&r.buf, n)
				r.cursorX = x
				r.stats.Moves++
				return
			}
		} else if x == r.cursorX {
			if n := y - r.cursorY; relMoveLen(n) < len(abs) {
				writeCursorRow(&r.buf, n)
				r.cursorY = y
				r.stats.Moves++
				return
			}
		}
	}

	r.buf.WriteString(abs)
	r.cursorX, r.cursorY = x, y
	r.cursorValid = true
	r.stats.Moves++
}

// writeStyle emits the SGR transition from the tracked style to the
// requested one. Colors are quantized to the capability depth first so
// tracking compares what the terminal actually received. Attribute
// changes force a reset-and-rebuild since attributes cannot be cleared
// individually across all terminals; color-only changes emit just the
// changed channels.
func (r *Renderer) writeStyle(fg, bg Color, attrs Attr) {
	fg = Quantize(fg, r.caps.ColorMode())
	bg = Quantize(bg, r.caps.ColorMode())

	if r.styleValid && fg == r.lastFg && bg == r.lastBg && attrs == r.lastAttr {
		return
	}

	rebuild := !r.styleValid || attrs != r.lastAttr

	r.buf.Write(csi)
	if rebuild {
		r.buf.WriteByte('0')
		writeAttrParams(&r.buf, attrs)
		writeColorParams(&r.buf, fg, false)
		writeColorParams(&r.buf, bg, true)
	} else {
		first := true
		if fg != r.lastFg {
			writeColorParamsFirst(&r.buf, fg, false)
			first = false
		}
		if bg != r.lastBg {
			if first {
				writeColorParamsFirst(&r.buf, bg, true)
			} else {
				writeColorParams(&r.buf, bg, true)
			}
		}
	}
	r.buf.WriteByte('m')

	r.lastFg, r.lastBg, r.lastAttr = fg, bg, attrs
	r.styleValid = true
	r.stats.Styles++
}

// writeAttrParams appends ";N" for each set attribute bit.
func writeAttrParams(b *bytes.Buffer, attrs Attr) {
	type attrCode struct {
		attr Attr
		code byte
	}
	codes := [...]attrCode{
		{AttrBold, '1'},
		{AttrDim, '2'},
		{AttrItalic, '3'},
		{AttrUnderline, '4'},
		{AttrBlink, '5'},
		{AttrReverse, '7'},
		{AttrStrikeThrough, '9'},
	}
	for _, c := range codes {
		if attrs.Has(c.attr) {
			b.WriteByte(';')
			b.WriteByte(c.code)
		}
	}
}

// writeColorParams appends ";<color>" SGR parameters for one channel.
func writeColorParams(b *bytes.Buffer, c Color, background bool) {
	b.WriteByte(';')
	writeColorParamsFirst(b, c, background)
}

// writeColorParamsFirst is writeColorParams without the leading
// separator.
func writeColorParamsFirst(b *bytes.Buffer, c Color, background bool) {
	switch c.Mode {
	case ModeDefault:
		if background {
			b.WriteString("49")
		} else {
			b.WriteString("39")
		}
	case ModeBasic:
		base := 30
		if background {
			base = 40
		}
		if c.Index >= 8 {
			base += 60
			writeInt(b, base+int(c.Index-8))
		} else {
			writeInt(b, base+int(c.Index))
		}
	case ModePalette:
		if background {
			b.WriteString("48;5;")
		} else {
			b.WriteString("38;5;")
		}
		writeInt(b, int(c.Index))
	case ModeRGB:
		if background {
			b.WriteString("48;2;")
		} else {
			b.WriteString("38;2;")
		}
		writeInt(b, int(c.R))
		b.WriteByte(';')
		writeInt(b, int(c.G))
		b.WriteByte(';')
		writeInt(b, int(c.B))
	}
}

// writeGlyph appends the cell's grapheme cluster, substituting a space
// for unwritten cells so they clear whatever was on screen. Control
// runes in hand-built cells also emit as spaces; NewCell rejects them,
// and a raw control byte here would move the cursor off the tracked
// position.
func (r *Renderer) writeGlyph(c Cell) {
	if c.Rune == 0 || isControlRune(c.Rune) {
		r.buf.WriteByte(' ')
		return
	}
	if c.Cluster != "" {
		r.buf.WriteString(c.Cluster)
		return
	}
	r.buf.WriteRune(c.Rune)
}

func (r *Renderer) logFlush() {
	f, err := os.OpenFile("strata-flush.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "cells=%d moves=%d styles=%d bytes=%d buf=%q\n",
		r.stats.Cells, r.stats.Moves, r.stats.Styles, r.stats.Bytes, r.buf.String())
}
