package terminal

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorMode tags a Color value and doubles as a capability depth:
// the enum is ordered so that a color is representable at a given
// depth exactly when its mode is <= that depth.
type ColorMode uint8

const (
	ModeDefault ColorMode = iota // terminal default fg/bg
	ModeBasic                    // 16-color palette (0-15)
	ModePalette                  // xterm 256-color palette
	ModeRGB                      // 24-bit direct color
)

// Color is a tagged color variant. Index carries the palette index for
// Basic/Palette modes; R,G,B carry the channels for RGB mode.
type Color struct {
	Mode    ColorMode
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the terminal's own default color.
func DefaultColor() Color {
	return Color{Mode: ModeDefault}
}

// Basic returns one of the 16 basic palette colors.
func Basic(index uint8) Color {
	if index > 15 {
		index = 15
	}
	return Color{Mode: ModeBasic, Index: index}
}

// Palette returns one of the 256 xterm palette colors.
func Palette(index uint8) Color {
	return Color{Mode: ModePalette, Index: index}
}

// RGB returns a 24-bit direct color.
func RGB(r, g, b uint8) Color {
	return Color{Mode: ModeRGB, R: r, G: g, B: b}
}

// Hex returns a 24-bit direct color from 0xRRGGBB.
func Hex(v uint32) Color {
	return Color{
		Mode: ModeRGB,
		R:    uint8(v >> 16),
		G:    uint8(v >> 8),
		B:    uint8(v),
	}
}

// Basic palette names for convenience.
var (
	Black   = Basic(0)
	Red     = Basic(1)
	Green   = Basic(2)
	Yellow  = Basic(3)
	Blue    = Basic(4)
	Magenta = Basic(5)
	Cyan    = Basic(6)
	White   = Basic(7)

	BrightBlack   = Basic(8)
	BrightRed     = Basic(9)
	BrightGreen   = Basic(10)
	BrightYellow  = Basic(11)
	BrightBlue    = Basic(12)
	BrightMagenta = Basic(13)
	BrightCyan    = Basic(14)
	BrightWhite   = Basic(15)
)

// Color cube values for the 6x6x6 palette (indices 16-231)
// Levels: 0, 95, 135, 175, 215, 255
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps 0-255 to the nearest cube level 0-5, precomputed at init
var cubeIndex [256]uint8

// grayscaleStart is the first grayscale index (232-255 = 24 shades)
const grayscaleStart = 232

// basic16 holds the conventional xterm RGB values for the 16 basic colors.
var basic16 = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// basic16Lab caches the Lab representation of basic16 for nearest matching.
var basic16Lab [16]colorful.Color

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := absInt(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			d := absInt(i - int(cubeValues[j]))
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}

	for i, c := range basic16 {
		basic16Lab[i] = colorful.Color{
			R: float64(c[0]) / 255,
			G: float64(c[1]) / 255,
			B: float64(c[2]) / 255,
		}
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Cube256 returns the xterm 256-palette index for an RGB cube coordinate.
// r, g, b must be in [0,5]; out-of-range values are clamped.
func Cube256(r, g, b uint8) uint8 {
	if r > 5 {
		r = 5
	}
	if g > 5 {
		g = 5
	}
	if b > 5 {
		b = 5
	}
	return 16 + 36*r + 6*g + b
}

// Gray256 returns the xterm 256-palette index for a grayscale step.
// step must be in [0,23] (maps to indices 232-255, levels 8-238).
func Gray256(step uint8) uint8 {
	if step > 23 {
		step = 23
	}
	return grayscaleStart + step
}

// rgbTo256 finds the nearest 256-color palette index for an RGB value.
// Checks the grayscale ramp when the channels are near-equal, otherwise
// snaps each channel to the nearest cube level.
func rgbTo256(r, g, b uint8) uint8 {
	gray := int(uint16(r)+uint16(g)+uint16(b)) / 3
	maxDiff := absInt(int(r) - gray)
	if d := absInt(int(g) - gray); d > maxDiff {
		maxDiff = d
	}
	if d := absInt(int(b) - gray); d > maxDiff {
		maxDiff = d
	}

	if maxDiff < 10 {
		if gray < 4 {
			return 16 // cube (0,0,0)
		}
		if gray > 243 {
			return 231 // cube (5,5,5)
		}
		grayIdx := uint8(gray-8) / 10
		if grayIdx > 23 {
			grayIdx = 23
		}

		grayLevel := 8 + int(grayIdx)*10
		grayDist := absInt(int(r)-grayLevel) + absInt(int(g)-grayLevel) + absInt(int(b)-grayLevel)

		cr, cg, cb := cubeIndex[r], cubeIndex[g], cubeIndex[b]
		cubeDist := absInt(int(r)-int(cubeValues[cr])) +
			absInt(int(g)-int(cubeValues[cg])) +
			absInt(int(b)-int(cubeValues[cb]))

		if grayDist < cubeDist {
			return grayscaleStart + grayIdx
		}
	}

	return 16 + 36*cubeIndex[r] + 6*cubeIndex[g] + cubeIndex[b]
}

// PaletteRGB returns the conventional RGB channels for a 256-palette index.
func PaletteRGB(index uint8) (r, g, b uint8) {
	switch {
	case index < 16:
		c := basic16[index]
		return c[0], c[1], c[2]
	case index < grayscaleStart:
		n := index - 16
		return cubeValues[n/36], cubeValues[(n%36)/6], cubeValues[n%6]
	default:
		level := 8 + 10*(index-grayscaleStart)
		return level, level, level
	}
}

// rgbTo16 finds the perceptually nearest basic color for an RGB value,
// using Lab distance so that quantization to shallow terminals keeps hue.
func rgbTo16(r, g, b uint8) uint8 {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	best := 0
	bestDist := c.DistanceLab(basic16Lab[0])
	for i := 1; i < 16; i++ {
		if d := c.DistanceLab(basic16Lab[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}

// Quantize degrades a color to the given depth. Colors already
// representable pass through unchanged; unrepresentable ones are
// quantized to the nearest representable value, never rejected.
func Quantize(c Color, depth ColorMode) Color {
	if c.Mode <= depth {
		return c
	}
	switch c.Mode {
	case ModeRGB:
		if depth >= ModePalette {
			return Palette(rgbTo256(c.R, c.G, c.B))
		}
		return Basic(rgbTo16(c.R, c.G, c.B))
	case ModePalette:
		if c.Index < 16 {
			return Basic(c.Index)
		}
		r, g, b := PaletteRGB(c.Index)
		return Basic(rgbTo16(r, g, b))
	default:
		return c
	}
}
