package terminal

import (
	"os"
	"strings"

	"github.com/gdamore/tcell/v2/terminfo"

	// Compiled-in terminfo entries for common terminals; avoids a hard
	// dependency on the host terminfo database.
	_ "github.com/gdamore/tcell/v2/terminfo/base"
)

// Op identifies a terminal control operation with a capability-supplied
// escape template.
type Op uint8

const (
	OpEnterAlt Op = iota
	OpExitAlt
	OpShowCursor
	OpHideCursor
	OpClear
	OpAttrOff
)

// Capability describes what a terminal supports and how to address it.
// The renderer consumes this interface only; implementations supply the
// escape templates and color depth.
type Capability interface {
	// ColorMode returns the deepest color model the terminal accepts.
	ColorMode() ColorMode

	// Goto returns the absolute cursor-address sequence for a
	// 0-indexed column/row position.
	Goto(x, y int) string

	// Escape returns the sequence for a control operation, "" when the
	// terminal has none.
	Escape(op Op) string

	// GlyphWidth returns the column width of a grapheme cluster.
	GlyphWidth(egc string) int

	// Supports reports whether the terminal has a sequence for op.
	Supports(op Op) bool
}

// terminfoCaps adapts a terminfo entry to the Capability interface.
type terminfoCaps struct {
	ti   *terminfo.Terminfo
	mode ColorMode
}

// Terminfo builds a capability table from the terminfo database entry
// for the named terminal. COLORTERM upgrades the depth to direct color
// the same way modern terminals advertise it.
func Terminfo(term string) (Capability, error) {
	ti, err := terminfo.LookupTerminfo(term)
	if err != nil {
		return nil, err
	}

	mode := ModeBasic
	if ti.Colors >= 256 {
		mode = ModePalette
	}
	if ti.TrueColor || envTrueColor() {
		mode = ModeRGB
	}

	return &terminfoCaps{ti: ti, mode: mode}, nil
}

func (c *terminfoCaps) ColorMode() ColorMode {
	return c.mode
}

func (c *terminfoCaps) Goto(x, y int) string {
	return c.ti.TGoto(x, y)
}

func (c *terminfoCaps) Escape(op Op) string {
	switch op {
	case OpEnterAlt:
		return c.ti.EnterCA
	case OpExitAlt:
		return c.ti.ExitCA
	case OpShowCursor:
		return c.ti.ShowCursor
	case OpHideCursor:
		return c.ti.HideCursor
	case OpClear:
		return c.ti.Clear
	case OpAttrOff:
		return c.ti.AttrOff
	}
	return ""
}

func (c *terminfoCaps) GlyphWidth(egc string) int {
	return GlyphWidth(egc)
}

func (c *terminfoCaps) Supports(op Op) bool {
	return c.Escape(op) != ""
}

// ansiCaps is a capability table of hard-coded xterm-compatible
// sequences, used when terminfo lookup fails and as the deterministic
// table in tests.
type ansiCaps struct {
	mode ColorMode
}

// ANSI returns a capability table emitting direct ANSI sequences at the
// given color depth.
func ANSI(mode ColorMode) Capability {
	return &ansiCaps{mode: mode}
}

func (c *ansiCaps) ColorMode() ColorMode {
	return c.mode
}

func (c *ansiCaps) Goto(x, y int) string {
	var b strings.Builder
	b.WriteString("\x1b[")
	writeIntString(&b, y+1)
	b.WriteByte(';')
	writeIntString(&b, x+1)
	b.WriteByte('H')
	return b.String()
}

func (c *ansiCaps) Escape(op Op) string {
	switch op {
	case OpEnterAlt:
		return string(csiAltScreenEnter)
	case OpExitAlt:
		return string(csiAltScreenExit)
	case OpShowCursor:
		return string(csiCursorShow)
	case OpHideCursor:
		return string(csiCursorHide)
	case OpClear:
		return string(csiClear)
	case OpAttrOff:
		return string(csiSGR0)
	}
	return ""
}

func (c *ansiCaps) GlyphWidth(egc string) int {
	return GlyphWidth(egc)
}

func (c *ansiCaps) Supports(op Op) bool {
	return true
}

func writeIntString(b *strings.Builder, n int) {
	if n >= 10 {
		writeIntString(b, n/10)
	}
	b.WriteByte(byte(n%10) + '0')
}

// Detect builds the best capability table for the current environment:
// terminfo for $TERM when available, otherwise plain ANSI at an
// env-sniffed depth.
func Detect() Capability {
	if term := os.Getenv("TERM"); term != "" {
		if caps, err := Terminfo(term); err == nil {
			return caps
		}
	}
	return ANSI(detectColorMode())
}

// detectColorMode determines color capability from the environment when
// no terminfo entry is available.
func detectColorMode() ColorMode {
	if envTrueColor() {
		return ModeRGB
	}
	if strings.Contains(os.Getenv("TERM"), "256color") {
		return ModePalette
	}
	return ModeBasic
}

// envTrueColor reports direct-color support advertised via environment
// variables set by modern terminals.
func envTrueColor() bool {
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return true
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" ||
		os.Getenv("KONSOLE_VERSION") != "" ||
		os.Getenv("ITERM_SESSION_ID") != "" ||
		os.Getenv("ALACRITTY_WINDOW_ID") != "" ||
		os.Getenv("WEZTERM_PANE") != "" {
		return true
	}

	term := os.Getenv("TERM")
	return strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit") ||
		strings.Contains(term, "direct")
}
