package terminal

import "github.com/pkg/errors"

// ErrSinkWrite wraps any failure to deliver rendered bytes to the
// output sink. The renderer keeps its previous baseline when this is
// returned so the next frame repairs the screen.
var ErrSinkWrite = errors.New("sink write failed")

// Sink receives rendered escape streams. Write may buffer; Flush pushes
// everything through to the terminal.
type Sink interface {
	Write(p []byte) error
	Flush() error
}

// Backend couples a Sink with terminal lifecycle management: raw mode,
// alternate screen, size queries and resize notification.
type Backend interface {
	Sink

	// Init places the terminal in raw mode and prepares it for
	// rendering. It must be balanced by Fini.
	Init() error

	// Fini restores the terminal to its pre-Init state.
	Fini() error

	// Size returns the current terminal dimensions in cells.
	Size() (width, height int)

	// SetResizeHandler registers a callback invoked when the terminal
	// is resized. The callback runs on an internal goroutine.
	SetResizeHandler(fn func(width, height int))
}
