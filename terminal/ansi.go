package terminal

import (
	"bytes"
)

// Pre-allocated ANSI sequence fragments (avoid allocations during render)
var (
	csi      = []byte("\x1b[")
	csiSGR0  = []byte("\x1b[0m")
	csiClear = []byte("\x1b[2J\x1b[H")

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
)

// writeInt writes an integer without allocation
// Optimized for terminal values (0-255 common, 0-999 typical max)
func writeInt(b *bytes.Buffer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		b.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		b.WriteByte(byte(n/10) + '0')
		b.WriteByte(byte(n%10) + '0')
		return
	}
	if n < 1000 {
		b.WriteByte(byte(n/100) + '0')
		b.WriteByte(byte(n/10%10) + '0')
		b.WriteByte(byte(n%10) + '0')
		return
	}
	// Fallback for >999 (rare)
	var buf [8]byte
	i := 7
	for n > 0 {
		buf[i] = byte(n%10) + '0'
		n /= 10
		i--
	}
	b.Write(buf[i+1:])
}

// intLen returns the decimal digit count, used by the cursor cost model.
func intLen(n int) int {
	switch {
	case n < 10:
		return 1
	case n < 100:
		return 2
	case n < 1000:
		return 3
	case n < 10000:
		return 4
	default:
		return 5
	}
}

// writeCursorCol writes a relative horizontal move: CUF (forward) for
// positive n, CUB (back) for negative.
func writeCursorCol(b *bytes.Buffer, n int) {
	if n == 0 {
		return
	}
	final := byte('C')
	if n < 0 {
		final = 'D'
		n = -n
	}
	b.Write(csi)
	if n > 1 {
		writeInt(b, n)
	}
	b.WriteByte(final)
}

// writeCursorRow writes a relative vertical move: CUD (down) for
// positive n, CUU (up) for negative.
func writeCursorRow(b *bytes.Buffer, n int) {
	if n == 0 {
		return
	}
	final := byte('B')
	if n < 0 {
		final = 'A'
		n = -n
	}
	b.Write(csi)
	if n > 1 {
		writeInt(b, n)
	}
	b.WriteByte(final)
}

// relMoveLen returns the byte length of the relative escape for a move
// of n columns or rows, 0 when no move is needed.
func relMoveLen(n int) int {
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return 0
	}
	if n == 1 {
		return 3 // ESC [ final
	}
	return 3 + intLen(n)
}
