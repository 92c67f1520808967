package render

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lixenwraith/strata/terminal"
)

func testPlane(t *testing.T, rows, cols int) *Plane {
	t.Helper()
	s := NewStack(24, 80)
	p, err := s.Create(RootHandle, 0, 0, rows, cols)
	if err != nil {
		t.Fatalf("Create(%dx%d) failed: %v", rows, cols, err)
	}
	return p
}

func TestPutTextAdvancesCursor(t *testing.T) {
	p := testPlane(t, 5, 10)
	n, err := p.PutText("hi")
	if err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	if n != 2 {
		t.Errorf("PutText wrote %d cells, want 2", n)
	}
	if y, x := p.CursorYX(); y != 0 || x != 2 {
		t.Errorf("cursor at (%d,%d), want (0,2)", y, x)
	}
	if p.At(0, 0).Rune != 'h' || p.At(0, 1).Rune != 'i' {
		t.Errorf("grid contents %q %q, want h i", p.At(0, 0).Rune, p.At(0, 1).Rune)
	}
}

func TestPutTextUsesPen(t *testing.T) {
	p := testPlane(t, 5, 10)
	p.SetStyle(terminal.Red, terminal.Blue, terminal.AttrBold)
	if _, err := p.PutText("x"); err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	c := p.At(0, 0)
	if c.Fg != terminal.Red || c.Bg != terminal.Blue || !c.Attrs.Has(terminal.AttrBold) {
		t.Errorf("cell style = %+v, want red on blue bold", c)
	}
}

func TestPutTextWraps(t *testing.T) {
	p := testPlane(t, 5, 4)
	n, err := p.PutText("abcdef")
	if err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	if n != 6 {
		t.Errorf("PutText wrote %d cells, want 6", n)
	}
	if p.At(1, 0).Rune != 'e' || p.At(1, 1).Rune != 'f' {
		t.Errorf("wrap row holds %q %q, want e f", p.At(1, 0).Rune, p.At(1, 1).Rune)
	}
}

func TestPutTextStopsAtEdgeWithoutWrap(t *testing.T) {
	p := testPlane(t, 5, 4)
	p.SetWrap(false)
	n, err := p.PutText("abcdef")
	if err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	if n != 4 {
		t.Errorf("PutText wrote %d cells, want 4 (short write is not an error)", n)
	}
	if p.At(1, 0).Rune != 0 {
		t.Error("content leaked onto the next row with wrap disabled")
	}
}

func TestPutTextRejectsControlCharacters(t *testing.T) {
	p := testPlane(t, 5, 10)
	n, err := p.PutTextAt(0, 0, "\tX")
	if !errors.Is(err, terminal.ErrInvalidGlyph) {
		t.Fatalf("PutTextAt error = %v, want ErrInvalidGlyph", err)
	}
	if n != 0 {
		t.Errorf("PutTextAt wrote %d cells before rejecting, want 0", n)
	}
	if p.At(0, 0).Rune != 0 {
		t.Error("control character reached the grid")
	}
}

func TestPutTextNewline(t *testing.T) {
	p := testPlane(t, 5, 10)
	if _, err := p.PutText("a\nb"); err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	if p.At(0, 0).Rune != 'a' || p.At(1, 0).Rune != 'b' {
		t.Error("newline did not advance to the next line start")
	}
}

func TestWideGlyphWrapsWholly(t *testing.T) {
	p := testPlane(t, 5, 4)
	if _, err := p.PutTextAt(0, 3, "界"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}
	if p.At(0, 3).Rune != 0 {
		t.Error("wide glyph split across the right edge")
	}
	if p.At(1, 0).Rune != '界' {
		t.Errorf("wide glyph at (1,0) = %q, want 界", p.At(1, 0).Rune)
	}
	if !p.At(1, 1).IsContinuation() {
		t.Error("missing continuation half after wrap")
	}
}

func TestWideGlyphRejectedWithoutWrap(t *testing.T) {
	p := testPlane(t, 5, 4)
	p.SetWrap(false)
	_, err := p.PutTextAt(0, 3, "界")
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("edge wide glyph error = %v, want ErrInvalidGeometry", err)
	}
}

func TestWideGlyphTruncatedWithoutWrap(t *testing.T) {
	p := testPlane(t, 5, 4)
	p.SetWrap(false)
	p.SetWidePolicy(WideTruncate)
	p.SetStyle(terminal.Red, terminal.DefaultColor(), terminal.AttrNone)
	if _, err := p.PutTextAt(0, 3, "界"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}
	c := p.At(0, 3)
	if c.Rune != ' ' || c.Fg != terminal.Red {
		t.Errorf("truncated wide glyph = %+v, want styled blank", c)
	}
}

func TestOverwriteWideHalfBlanksPartner(t *testing.T) {
	p := testPlane(t, 5, 10)
	if _, err := p.PutTextAt(0, 0, "界"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}

	// Overwrite the continuation half; the primary must not survive as
	// half a glyph.
	if err := p.PutCellAt(0, 1, terminal.MustCell("x", terminal.DefaultColor(), terminal.DefaultColor(), terminal.AttrNone)); err != nil {
		t.Fatalf("PutCellAt failed: %v", err)
	}
	if p.At(0, 0).Rune != ' ' {
		t.Errorf("primary half = %q, want blank", p.At(0, 0).Rune)
	}
	if p.At(0, 1).Rune != 'x' {
		t.Errorf("overwritten cell = %q, want x", p.At(0, 1).Rune)
	}
}

func TestScroll(t *testing.T) {
	p := testPlane(t, 2, 3)
	p.SetScroll(true)
	if _, err := p.PutText("abcdefghi"); err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	// Nine cells into a 2x3 grid scrolls once past the fill.
	if p.At(0, 0).Rune != 'd' {
		t.Errorf("top row starts with %q after scroll, want d", p.At(0, 0).Rune)
	}
	if p.At(1, 0).Rune != 'g' {
		t.Errorf("bottom row starts with %q after scroll, want g", p.At(1, 0).Rune)
	}
}

func TestNoScrollDropsWrites(t *testing.T) {
	p := testPlane(t, 2, 3)
	n, err := p.PutText("abcdefghi")
	if err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	if n != 6 {
		t.Errorf("PutText wrote %d cells, want 6", n)
	}
	if p.At(1, 2).Rune != 'f' {
		t.Errorf("last cell = %q, want f", p.At(1, 2).Rune)
	}
}

func TestResizePreservesTopLeft(t *testing.T) {
	p := testPlane(t, 4, 4)
	if _, err := p.PutTextAt(0, 0, "ab"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}
	if _, err := p.PutTextAt(3, 3, "z"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}

	if err := p.Resize(2, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if rows, cols := p.Size(); rows != 2 || cols != 3 {
		t.Fatalf("Size = %dx%d, want 2x3", rows, cols)
	}
	if p.At(0, 0).Rune != 'a' || p.At(0, 1).Rune != 'b' {
		t.Error("overlapping content lost on shrink")
	}
	if y, x := p.CursorYX(); y >= 2 || x >= 3 {
		t.Errorf("cursor (%d,%d) outside new bounds", y, x)
	}

	if err := p.Resize(6, 6); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if p.At(0, 0).Rune != 'a' {
		t.Error("content lost on grow")
	}
	if p.At(5, 5).Rune != 0 {
		t.Error("newly exposed area not blank")
	}
}

func TestResizeSplitsWidePair(t *testing.T) {
	p := testPlane(t, 2, 6)
	if _, err := p.PutTextAt(0, 2, "界"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}
	// Shrinking to 3 columns cuts between the halves.
	if err := p.Resize(2, 3); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if p.At(0, 2).Rune != ' ' {
		t.Errorf("cut wide primary = %q, want blank", p.At(0, 2).Rune)
	}
}

func TestResizeInvalidGeometry(t *testing.T) {
	p := testPlane(t, 4, 4)
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 5}, {1 << 20, 5}} {
		if err := p.Resize(dims[0], dims[1]); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("Resize(%d,%d) error = %v, want ErrInvalidGeometry", dims[0], dims[1], err)
		}
	}
}

func TestCursorMoveBounds(t *testing.T) {
	p := testPlane(t, 4, 4)
	if err := p.CursorMoveTo(3, 3); err != nil {
		t.Errorf("in-bounds cursor move failed: %v", err)
	}
	for _, pos := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if err := p.CursorMoveTo(pos[0], pos[1]); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("CursorMoveTo(%d,%d) error = %v, want ErrInvalidGeometry", pos[0], pos[1], err)
		}
	}
}

func TestErase(t *testing.T) {
	p := testPlane(t, 3, 3)
	if _, err := p.PutText("abc"); err != nil {
		t.Fatalf("PutText failed: %v", err)
	}
	p.Erase()
	if p.At(0, 0).Rune != 0 {
		t.Error("Erase left content behind")
	}
	if y, x := p.CursorYX(); y != 0 || x != 0 {
		t.Errorf("cursor at (%d,%d) after Erase, want home", y, x)
	}
}

func TestAbsYX(t *testing.T) {
	s := NewStack(24, 80)
	parent, err := s.Create(RootHandle, 2, 3, 10, 10)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	child, err := s.Create(parent.Handle(), 1, 1, 5, 5)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if y, x := child.AbsYX(); y != 3 || x != 4 {
		t.Errorf("AbsYX = (%d,%d), want (3,4)", y, x)
	}

	if err := parent.MoveTo(5, 5); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if y, x := child.AbsYX(); y != 6 || x != 6 {
		t.Errorf("AbsYX after parent move = (%d,%d), want (6,6)", y, x)
	}
}

func TestMoveToValidatesOrigin(t *testing.T) {
	s := NewStack(24, 80)
	p, err := s.Create(RootHandle, 0, 0, 5, 10)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := p.MoveTo(1<<30, 0); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("MoveTo(1<<30, 0) = %v, want ErrInvalidGeometry", err)
	}
	if y, x := p.YX(); y != 0 || x != 0 {
		t.Errorf("origin changed to (%d,%d) after rejected move", y, x)
	}

	if err := p.MoveTo(-3, -3); err != nil {
		t.Fatalf("MoveTo(-3, -3) = %v, want nil", err)
	}
	if y, x := p.YX(); y != -3 || x != -3 {
		t.Errorf("origin = (%d,%d), want (-3,-3)", y, x)
	}
}
