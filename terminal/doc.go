// Package terminal provides cell-grid terminal output with diff-based rendering.
//
// Features:
//   - Grapheme-cluster cells with wide glyph handling
//   - Tagged color model (default / 16 / 256 / 24-bit) with lossless-or-quantized degradation
//   - Capability tables backed by terminfo, with a hard-coded ANSI fallback
//   - Frame diffing into a minimal escape stream with cursor and style tracking
//   - Raw-mode unix backend with buffered writes and SIGWINCH resize detection
//
// The renderer is sequence-minimal, not byte-optimal: it coalesces runs,
// picks the cheaper of relative and absolute cursor motion, and emits
// style transitions only when the style actually changes.
package terminal
