package render

// Compose flattens the stack into the frame, back to front. It is a
// pure function of the stack and frame size: planes are not mutated.
//
// For each plane the visible rectangle is its absolute screen rectangle
// intersected with its own clip, every ancestor clip, and the frame
// bounds. Within that rectangle cells override the frame per the
// plane's transparency mode. A wide glyph whose pair is cut by the
// rectangle degrades to a styled blank at the boundary.
func Compose(s *Stack, f *Frame) {
	frameRect := Rect{Rows: f.rows, Cols: f.cols}

	for _, h := range s.order {
		p := s.planes[h]
		if p.trans == Transparent || p.rows <= 0 || p.cols <= 0 {
			continue
		}

		absY, absX := p.AbsYX()
		vis := intersect(Rect{Y: absY, X: absX, Rows: p.rows, Cols: p.cols}, frameRect)
		if p.clip != nil {
			vis = intersect(vis, Rect{Y: absY + p.clip.Y, X: absX + p.clip.X, Rows: p.clip.Rows, Cols: p.clip.Cols})
		}
		for a := s.Plane(p.parent); a != nil; a = s.Plane(a.parent) {
			if a.clip != nil {
				ay, ax := a.AbsYX()
				vis = intersect(vis, Rect{Y: ay + a.clip.Y, X: ax + a.clip.X, Rows: a.clip.Rows, Cols: a.clip.Cols})
			}
		}
		if vis.empty() {
			continue
		}

		for fy := vis.Y; fy < vis.Y+vis.Rows; fy++ {
			py := fy - absY
			srcRow := py * p.cols
			dstRow := fy * f.cols
			wrote := false
			for fx := vis.X; fx < vis.X+vis.Cols; fx++ {
				cell := p.cells[srcRow+fx-absX]
				if cell.IsBlank() {
					if p.trans == Background {
						wrote = false
						continue
					}
					cell = p.base
				}
				if cell.Width == 2 && fx+1 >= vis.X+vis.Cols {
					cell = cell.Blank()
				}
				if cell.IsContinuation() && fx == vis.X {
					cell = cell.Blank()
				}

				// Overwriting half of a lower plane's wide pair
				// orphans the other half; blank it. The previous
				// column is only a partner when this pass did not
				// just write it.
				dst := dstRow + fx
				old := f.cells[dst]
				if p.trans == Background {
					cell.Bg = old.Bg
				}
				if old.IsContinuation() && fx > 0 && !wrote {
					f.cells[dst-1] = f.cells[dst-1].Blank()
				}
				if old.Width == 2 && fx+1 < f.cols {
					f.cells[dst+1] = f.cells[dst+1].Blank()
				}

				f.cells[dst] = cell
				wrote = true
			}
		}
	}
}
