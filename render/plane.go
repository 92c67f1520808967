package render

import (
	"github.com/pkg/errors"
	"github.com/rivo/uniseg"

	"github.com/lixenwraith/strata/terminal"
)

// Transparency selects how a plane's cells interact with the planes
// below it during compositing. Precedence is strict z-order: a visible
// cell fully overrides whatever is beneath, there is no color mixing.
type Transparency uint8

const (
	// Opaque planes cover their whole rectangle; unwritten cells render
	// as the plane's base cell.
	Opaque Transparency = iota

	// Background planes let unwritten cells show the planes beneath;
	// written cells override the glyph and foreground but keep the
	// background already composited below.
	Background

	// Transparent planes contribute nothing to the composite.
	Transparent
)

// WidePolicy decides what happens when a wide glyph cannot fit before
// the right edge of a plane with wrapping disabled.
type WidePolicy uint8

const (
	// WideReject fails the write with ErrInvalidGeometry.
	WideReject WidePolicy = iota

	// WideTruncate degrades the glyph to a styled blank.
	WideTruncate
)

// Rect is a rectangle in plane-local cell coordinates.
type Rect struct {
	Y, X       int
	Rows, Cols int
}

func (r Rect) empty() bool {
	return r.Rows <= 0 || r.Cols <= 0
}

func intersect(a, b Rect) Rect {
	y := max(a.Y, b.Y)
	x := max(a.X, b.X)
	y1 := min(a.Y+a.Rows, b.Y+b.Rows)
	x1 := min(a.X+a.Cols, b.X+b.Cols)
	return Rect{Y: y, X: x, Rows: y1 - y, Cols: x1 - x}
}

// Plane is a positionable, resizable grid of cells with its own cursor
// and styling pen. Planes form a tree; a plane's screen position is its
// origin composed through its ancestors. Planes are a purely in-memory
// model, they never touch the terminal directly.
type Plane struct {
	stack    *Stack
	handle   Handle
	parent   Handle
	children []Handle

	y, x       int // origin relative to parent
	rows, cols int
	cells      []terminal.Cell

	curY, curX int
	pend       bool // cursor line is full, next write wraps or drops

	penFg    terminal.Color
	penBg    terminal.Color
	penAttrs terminal.Attr

	base  terminal.Cell
	trans Transparency
	wrap  bool
	scrl  bool
	wide  WidePolicy
	clip  *Rect
	name  string
}

// SetName attaches a debugging label to the plane.
func (p *Plane) SetName(name string) { p.name = name }

// Name returns the plane's debugging label.
func (p *Plane) Name() string { return p.name }

// Handle returns the plane's stable identifier within its stack.
func (p *Plane) Handle() Handle { return p.handle }

// Parent returns the parent's handle, InvalidHandle for the root.
func (p *Plane) Parent() Handle { return p.parent }

// Size returns the plane's dimensions.
func (p *Plane) Size() (rows, cols int) { return p.rows, p.cols }

// YX returns the plane's origin relative to its parent.
func (p *Plane) YX() (y, x int) { return p.y, p.x }

// AbsYX returns the plane's origin in screen coordinates, composed
// through all ancestors.
func (p *Plane) AbsYX() (y, x int) {
	y, x = p.y, p.x
	for h := p.parent; h != InvalidHandle; {
		a := p.stack.Plane(h)
		if a == nil {
			break
		}
		y += a.y
		x += a.x
		h = a.parent
	}
	return y, x
}

// MoveTo repositions the plane relative to its parent. The origin is
// validated the same way Create validates it.
func (p *Plane) MoveTo(y, x int) error {
	if err := checkGeometry(y, x, p.rows, p.cols); err != nil {
		return err
	}
	p.y, p.x = y, x
	return nil
}

// SetBase sets the cell rendered for unwritten positions of an opaque
// plane. Wide base cells are degraded to a blank.
func (p *Plane) SetBase(c terminal.Cell) {
	if c.Width == 2 || c.IsContinuation() {
		c = c.Blank()
	}
	p.base = c
}

// Base returns the plane's base cell.
func (p *Plane) Base() terminal.Cell { return p.base }

// SetTransparency sets the plane's compositing mode.
func (p *Plane) SetTransparency(t Transparency) { p.trans = t }

// Transparency returns the plane's compositing mode.
func (p *Plane) Transparency() Transparency { return p.trans }

// SetWrap enables or disables wrapping at the right edge.
func (p *Plane) SetWrap(on bool) { p.wrap = on }

// SetScroll enables or disables scrolling when a wrap passes the
// bottom row.
func (p *Plane) SetScroll(on bool) { p.scrl = on }

// SetWidePolicy selects the handling of wide glyphs that cannot fit
// before the right edge when wrapping is off.
func (p *Plane) SetWidePolicy(w WidePolicy) { p.wide = w }

// SetClip restricts the plane's visible area to a plane-local
// rectangle. The clip also bounds all descendants during compositing.
func (p *Plane) SetClip(r Rect) {
	p.clip = &r
}

// ClearClip removes the clip region.
func (p *Plane) ClearClip() { p.clip = nil }

// SetStyle sets the pen used by PutText and PutString writes.
func (p *Plane) SetStyle(fg, bg terminal.Color, attrs terminal.Attr) {
	p.penFg, p.penBg, p.penAttrs = fg, bg, attrs
}

// At returns the cell at (y, x), or the zero cell out of bounds.
func (p *Plane) At(y, x int) terminal.Cell {
	if y < 0 || y >= p.rows || x < 0 || x >= p.cols {
		return terminal.Cell{}
	}
	return p.cells[y*p.cols+x]
}

// CursorYX returns the cursor position. Always within bounds.
func (p *Plane) CursorYX() (y, x int) { return p.curY, p.curX }

// CursorMoveTo places the cursor. Fails with ErrInvalidGeometry when
// the position is outside the plane.
func (p *Plane) CursorMoveTo(y, x int) error {
	if y < 0 || y >= p.rows || x < 0 || x >= p.cols {
		return errors.Wrapf(ErrInvalidGeometry, "cursor (%d,%d) outside %dx%d", y, x, p.rows, p.cols)
	}
	p.curY, p.curX = y, x
	p.pend = false
	return nil
}

// Erase clears the whole grid and homes the cursor.
func (p *Plane) Erase() {
	var zero terminal.Cell
	for i := range p.cells {
		p.cells[i] = zero
	}
	p.curY, p.curX = 0, 0
	p.pend = false
}

// Resize reallocates the grid, preserving overlapping content top-left
// aligned. Newly exposed cells are unwritten. The cursor is clamped
// into the new bounds. A wide glyph cut by the new right edge degrades
// to a blank.
func (p *Plane) Resize(rows, cols int) error {
	if err := checkGeometry(0, 0, rows, cols); err != nil {
		return err
	}
	cells := make([]terminal.Cell, rows*cols)
	copyRows := min(rows, p.rows)
	copyCols := min(cols, p.cols)
	for y := 0; y < copyRows; y++ {
		copy(cells[y*cols:y*cols+copyCols], p.cells[y*p.cols:y*p.cols+copyCols])
	}
	for y := 0; y < copyRows; y++ {
		last := y*cols + cols - 1
		if cells[last].Width == 2 {
			cells[last] = cells[last].Blank()
		}
	}
	p.cells = cells
	p.rows, p.cols = rows, cols
	if p.curY >= rows {
		p.curY = rows - 1
	}
	if p.curX >= cols {
		p.curX = cols - 1
	}
	p.pend = false
	return nil
}

// splitWide repairs the partner of any wide pair overlapping (y, x)
// before the position is overwritten.
func (p *Plane) splitWide(y, x int) {
	i := y*p.cols + x
	c := p.cells[i]
	if c.IsContinuation() && x > 0 {
		p.cells[i-1] = p.cells[i-1].Blank()
	}
	if c.Width == 2 && x+1 < p.cols {
		p.cells[i+1] = p.cells[i+1].Blank()
	}
}

// setCell places c at (y, x), blanking any wide pair it overlaps and
// writing the continuation half when c is wide. The caller guarantees
// a wide c fits.
func (p *Plane) setCell(y, x int, c terminal.Cell) {
	p.splitWide(y, x)
	if c.Width == 2 {
		p.splitWide(y, x+1)
		p.cells[y*p.cols+x+1] = c.Continuation()
	}
	p.cells[y*p.cols+x] = c
}

// advanceLine moves the cursor to the start of the next line, scrolling
// if enabled. Returns false when the cursor is on the last row and
// scrolling is off; the cursor does not move and writes are dropped.
func (p *Plane) advanceLine() bool {
	if p.curY+1 < p.rows {
		p.curY++
	} else if p.scrl {
		p.scrollUp()
	} else {
		return false
	}
	p.curX = 0
	p.pend = false
	return true
}

// scrollUp shifts content one row up and clears the bottom row.
func (p *Plane) scrollUp() {
	copy(p.cells, p.cells[p.cols:])
	var zero terminal.Cell
	for i := (p.rows - 1) * p.cols; i < len(p.cells); i++ {
		p.cells[i] = zero
	}
}

// putAtCursor writes c at the cursor and advances. The bool result
// reports whether the cell was placed; a false result with a nil error
// means the write was dropped at an edge, which is a policy outcome.
func (p *Plane) putAtCursor(c terminal.Cell) (bool, error) {
	w := int(c.Width)
	if w < 1 {
		w = 1
	}

	if p.pend || p.curX+w > p.cols {
		if w == 2 && p.curX+w > p.cols && !p.pend {
			// Wide glyph split at the right edge.
			if p.wrap && p.curX > 0 {
				if !p.advanceLine() {
					return false, nil
				}
				return p.putAtCursor(c)
			}
			switch p.wide {
			case WideTruncate:
				c = c.Blank()
				w = 1
			default:
				return false, errors.Wrap(ErrInvalidGeometry, "wide glyph at right edge")
			}
		} else {
			if !p.wrap {
				return false, nil
			}
			if !p.advanceLine() {
				return false, nil
			}
			return p.putAtCursor(c)
		}
	}

	p.setCell(p.curY, p.curX, c)
	if p.curX+w < p.cols {
		p.curX += w
	} else {
		p.curX = p.cols - 1
		p.pend = true
	}
	return true, nil
}

// PutCell writes one cell at the cursor, advancing it. Wrapping,
// scrolling, and edge truncation follow the plane's configuration.
func (p *Plane) PutCell(c terminal.Cell) error {
	_, err := p.putAtCursor(c)
	return err
}

// PutCellAt positions the cursor and writes one cell.
func (p *Plane) PutCellAt(y, x int, c terminal.Cell) error {
	if err := p.CursorMoveTo(y, x); err != nil {
		return err
	}
	return p.PutCell(c)
}

// PutText writes a string at the cursor using the plane's pen,
// segmenting it into grapheme clusters. Newlines advance to the next
// line. Returns the number of cells written; a short count without an
// error means the text ran off an edge with wrapping off.
func (p *Plane) PutText(s string) (int, error) {
	n := 0
	for s != "" {
		cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
		s = rest
		if cluster == "\n" || cluster == "\r\n" {
			if !p.advanceLine() {
				return n, nil
			}
			continue
		}
		c, err := terminal.NewCell(cluster, p.penFg, p.penBg, p.penAttrs)
		if err != nil {
			return n, err
		}
		placed, err := p.putAtCursor(c)
		if err != nil {
			return n, err
		}
		if !placed {
			return n, nil
		}
		n++
	}
	return n, nil
}

// PutTextAt positions the cursor and writes a string.
func (p *Plane) PutTextAt(y, x int, s string) (int, error) {
	if err := p.CursorMoveTo(y, x); err != nil {
		return 0, err
	}
	return p.PutText(s)
}

const (
	maxPlaneDim = 1 << 15
	maxPlanePos = 1 << 24
)

// checkGeometry validates a plane origin and size.
func checkGeometry(y, x, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return errors.Wrapf(ErrInvalidGeometry, "size %dx%d", rows, cols)
	}
	if rows > maxPlaneDim || cols > maxPlaneDim {
		return errors.Wrapf(ErrInvalidGeometry, "size %dx%d exceeds %d", rows, cols, maxPlaneDim)
	}
	if y < -maxPlanePos || y > maxPlanePos || x < -maxPlanePos || x > maxPlanePos {
		return errors.Wrapf(ErrInvalidGeometry, "origin (%d,%d) out of range", y, x)
	}
	return nil
}
