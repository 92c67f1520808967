package render

import "github.com/lixenwraith/strata/terminal"

// Frame is a rows x cols snapshot of terminal cells, either the target
// of a composite pass or the baseline of the last successful flush.
type Frame struct {
	rows, cols int
	cells      []terminal.Cell
}

// NewFrame allocates a zeroed frame. Zero cells never equal composited
// output, so a fresh frame used as a baseline forces a full repaint.
func NewFrame(rows, cols int) *Frame {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Frame{
		rows:  rows,
		cols:  cols,
		cells: make([]terminal.Cell, rows*cols),
	}
}

// Size returns the frame dimensions.
func (f *Frame) Size() (rows, cols int) {
	return f.rows, f.cols
}

// At returns the cell at (y, x), or the zero cell out of bounds.
func (f *Frame) At(y, x int) terminal.Cell {
	if y < 0 || y >= f.rows || x < 0 || x >= f.cols {
		return terminal.Cell{}
	}
	return f.cells[y*f.cols+x]
}

// Cells exposes the row-major backing slice for the renderer.
func (f *Frame) Cells() []terminal.Cell {
	return f.cells
}

// Fill sets every cell to c.
func (f *Frame) Fill(c terminal.Cell) {
	for i := range f.cells {
		f.cells[i] = c
	}
}

// Invalidate zeroes the frame so every composited cell diffs against it.
func (f *Frame) Invalidate() {
	var zero terminal.Cell
	for i := range f.cells {
		f.cells[i] = zero
	}
}

// CopyFrom overwrites this frame with the contents of src. Both frames
// must have the same dimensions.
func (f *Frame) CopyFrom(src *Frame) {
	copy(f.cells, src.cells)
}
