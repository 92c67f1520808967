package render

import (
	"github.com/lixenwraith/strata/terminal"
)

// Options configures a rendering context. Zero-value fields get
// environment-detected defaults.
type Options struct {
	// Caps overrides terminal capability detection.
	Caps terminal.Capability

	// Backend overrides the default unix stdout backend. Tests supply
	// an in-memory backend here.
	Backend terminal.Backend
}

// Context is one rendering pipeline: a plane stack, the two frame
// grids, and the differential renderer feeding a backend.
//
// A context is single-owner: plane mutation and Render calls must not
// overlap. The resize handler runs on a backend goroutine and only
// posts to a channel; the resize itself is applied at the start of the
// next Render.
type Context struct {
	backend  terminal.Backend
	caps     terminal.Capability
	stack    *Stack
	cur      *Frame
	last     *Frame
	renderer *terminal.Renderer
	resizeCh chan [2]int
}

// New initializes the terminal through the backend and builds a context
// sized to it.
func New(opts Options) (*Context, error) {
	caps := opts.Caps
	if caps == nil {
		caps = terminal.Detect()
	}
	backend := opts.Backend
	if backend == nil {
		backend = terminal.NewBackend(caps)
	}
	if err := backend.Init(); err != nil {
		return nil, err
	}

	w, h := backend.Size()
	c := &Context{
		backend:  backend,
		caps:     caps,
		stack:    NewStack(h, w),
		cur:      NewFrame(h, w),
		last:     NewFrame(h, w),
		renderer: terminal.NewRenderer(caps, backend),
		resizeCh: make(chan [2]int, 1),
	}

	// Init cleared the screen, so the baseline is all blanks; the first
	// render pays only for written content.
	c.last.Fill(terminal.EmptyCell())

	backend.SetResizeHandler(func(w, h int) {
		// Keep only the latest pending size.
		select {
		case <-c.resizeCh:
		default:
		}
		c.resizeCh <- [2]int{w, h}
	})
	return c, nil
}

// Stdplane returns the always-present root plane spanning the frame.
func (c *Context) Stdplane() *Plane {
	return c.stack.Root()
}

// Stack returns the context's plane stack.
func (c *Context) Stack() *Stack {
	return c.stack
}

// Plane resolves a handle in the context's stack.
func (c *Context) Plane(h Handle) *Plane {
	return c.stack.Plane(h)
}

// Size returns the current frame dimensions.
func (c *Context) Size() (rows, cols int) {
	return c.cur.Size()
}

// Stats returns the flush statistics of the last Render call.
func (c *Context) Stats() terminal.FlushStats {
	return c.renderer.Stats()
}

// Render composites the stack into the current frame, diffs it against
// the last flushed frame, and writes the escape stream to the backend.
// On success the current frame becomes the new baseline. On sink
// failure the baseline is kept so the next call re-diffs from the last
// state known to be on screen.
func (c *Context) Render() error {
	select {
	case sz := <-c.resizeCh:
		c.applyResize(sz[0], sz[1])
	default:
	}

	Compose(c.stack, c.cur)
	rows, cols := c.cur.Size()
	if err := c.renderer.Render(c.last.Cells(), c.cur.Cells(), cols, rows); err != nil {
		return err
	}
	c.last.CopyFrom(c.cur)
	return nil
}

// Resize reallocates both frames and the root plane to the new size and
// forces a full repaint on the next Render. Called automatically for
// backend resize notifications; exposed for callers driving size
// externally.
func (c *Context) Resize(width, height int) {
	c.applyResize(width, height)
}

func (c *Context) applyResize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if rows, cols := c.cur.Size(); rows == h && cols == w {
		// Same size, but the terminal may have redrawn or scrolled.
		// Drop the baseline so the next diff repaints everything.
		c.last.Invalidate()
		c.renderer.Invalidate()
		return
	}
	c.stack.Root().Resize(h, w)
	c.cur = NewFrame(h, w)
	c.last = NewFrame(h, w)
	c.renderer.Invalidate()
}

// Close restores the terminal. The context must not be used afterward.
func (c *Context) Close() error {
	return c.backend.Fini()
}
