// Package render provides a plane compositor on top of package terminal.
//
// Applications draw into a tree of planes, each an independently
// positioned cell grid with its own cursor and pen. A Context owns the
// plane stack and two frame grids: each Render call flattens the stack
// back-to-front into the current frame, diffs it against the last
// flushed frame, and emits the difference to the terminal backend.
package render
