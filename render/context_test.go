package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/lixenwraith/strata/terminal"
)

// memBackend is an in-memory terminal backend for pipeline tests.
type memBackend struct {
	buf        bytes.Buffer
	w, h       int
	fail       bool
	inited     bool
	finished   bool
	resizeFunc func(width, height int)
}

func newMemBackend(w, h int) *memBackend {
	return &memBackend{w: w, h: h}
}

func (b *memBackend) Init() error      { b.inited = true; return nil }
func (b *memBackend) Fini() error      { b.finished = true; return nil }
func (b *memBackend) Size() (int, int) { return b.w, b.h }

func (b *memBackend) Write(p []byte) error {
	if b.fail {
		return errors.New("gone")
	}
	b.buf.Write(p)
	return nil
}

func (b *memBackend) Flush() error {
	if b.fail {
		return errors.New("gone")
	}
	return nil
}

func (b *memBackend) SetResizeHandler(fn func(width, height int)) {
	b.resizeFunc = fn
}

func newTestContext(t *testing.T, w, h int) (*Context, *memBackend) {
	t.Helper()
	backend := newMemBackend(w, h)
	ctx, err := New(Options{Caps: terminal.ANSI(terminal.ModeRGB), Backend: backend})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ctx, backend
}

func TestContextFirstRenderScenario(t *testing.T) {
	ctx, backend := newTestContext(t, 80, 24)

	ctx.Stdplane().SetStyle(terminal.Red, terminal.DefaultColor(), terminal.AttrNone)
	if _, err := ctx.Stdplane().PutTextAt(0, 0, "A"); err != nil {
		t.Fatalf("PutTextAt failed: %v", err)
	}

	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "\x1b[1;1H\x1b[0;31;49mA\x1b[0m"
	if got := backend.buf.String(); got != want {
		t.Errorf("first render = %q, want %q", got, want)
	}

	// No mutation: the second render is byte-free.
	backend.buf.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	if backend.buf.Len() != 0 {
		t.Errorf("idle render emitted %q", backend.buf.String())
	}
}

func TestContextSinkFailureKeepsBaseline(t *testing.T) {
	ctx, backend := newTestContext(t, 20, 5)

	ctx.Stdplane().PutTextAt(0, 0, "hello")
	backend.fail = true

	if err := ctx.Render(); !errors.Is(err, terminal.ErrSinkWrite) {
		t.Fatalf("Render error = %v, want ErrSinkWrite", err)
	}

	// The baseline was not promoted; the retry emits the content.
	backend.fail = false
	if err := ctx.Render(); err != nil {
		t.Fatalf("retry Render failed: %v", err)
	}
	if !strings.Contains(backend.buf.String(), "hello") {
		t.Errorf("retry output %q lacks the undelivered content", backend.buf.String())
	}

	// And the screen heals only once.
	backend.buf.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if backend.buf.Len() != 0 {
		t.Errorf("post-retry render emitted %q", backend.buf.String())
	}
}

func TestContextResizeForcesFullRepaint(t *testing.T) {
	ctx, backend := newTestContext(t, 10, 4)

	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	backend.buf.Reset()

	backend.w, backend.h = 8, 3
	backend.resizeFunc(8, 3)
	if err := ctx.Render(); err != nil {
		t.Fatalf("post-resize Render failed: %v", err)
	}

	if rows, cols := ctx.Size(); rows != 3 || cols != 8 {
		t.Errorf("size after resize = %dx%d, want 3x8", rows, cols)
	}
	if rows, cols := ctx.Stdplane().Size(); rows != 3 || cols != 8 {
		t.Errorf("root size after resize = %dx%d, want 3x8", rows, cols)
	}
	// Every cell re-emitted, even though nothing was ever written.
	if got := ctx.Stats().Cells; got != 8*3 {
		t.Errorf("post-resize render emitted %d cells, want %d", got, 8*3)
	}
}

func TestContextSameSizeResizeRepaints(t *testing.T) {
	ctx, backend := newTestContext(t, 10, 4)

	ctx.Stdplane().PutTextAt(0, 0, "hi")
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	backend.buf.Reset()

	// A notification at the current size still drops the baseline: the
	// terminal may have scrolled or been redrawn underneath us.
	backend.resizeFunc(10, 4)
	if err := ctx.Render(); err != nil {
		t.Fatalf("post-resize Render failed: %v", err)
	}
	if got := ctx.Stats().Cells; got != 10*4 {
		t.Errorf("render after same-size notification emitted %d cells, want %d", got, 10*4)
	}
	if !strings.Contains(backend.buf.String(), "hi") {
		t.Error("repaint did not re-emit written content")
	}
}

func TestContextResizeCoalesces(t *testing.T) {
	ctx, backend := newTestContext(t, 10, 4)

	// Several notifications before the next render; only the last size
	// matters.
	backend.resizeFunc(30, 10)
	backend.resizeFunc(20, 6)
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if rows, cols := ctx.Size(); rows != 6 || cols != 20 {
		t.Errorf("size = %dx%d, want 6x20", rows, cols)
	}
}

func TestContextClose(t *testing.T) {
	ctx, backend := newTestContext(t, 10, 4)
	if !backend.inited {
		t.Fatal("New did not initialize the backend")
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !backend.finished {
		t.Error("Close did not finalize the backend")
	}
}

func TestContextLayeredRender(t *testing.T) {
	ctx, backend := newTestContext(t, 10, 4)

	overlay, err := ctx.Stack().Create(RootHandle, 1, 1, 2, 4)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	overlay.PutTextAt(0, 0, "ab")

	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(backend.buf.String(), "ab") {
		t.Errorf("render output %q lacks overlay content", backend.buf.String())
	}

	// Destroying the overlay exposes the root underneath on the next
	// render.
	backend.buf.Reset()
	if err := ctx.Stack().Destroy(overlay.Handle(), true); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if backend.buf.Len() == 0 {
		t.Error("removing a plane produced no repaint of the exposed area")
	}
}
