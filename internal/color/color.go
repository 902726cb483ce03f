// Package color holds the 8-bit RGB value type used by every layer and the
// pure functions that generate colours for lighting schemes.
package color

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is one key's RGB value. Arithmetic on it saturates instead of wrapping.
type Color struct{ R, G, B uint8 }

var (
	Black = Color{}
	White = Color{255, 255, 255}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
)

// RGB builds a colour from ints, clamping each channel into [0,255].
func RGB(r, g, b int) Color {
	return Color{clampByte(float64(r)), clampByte(float64(g)), clampByte(float64(b))}
}

func (c Color) IsBlack() bool { return c == Black }

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Blend interpolates linearly from a to b. t is clamped to [0,1].
func Blend(a, b Color, t float64) Color {
	t = clamp01(t)
	return Color{
		lerpByte(a.R, b.R, t),
		lerpByte(a.G, b.G, t),
		lerpByte(a.B, b.B, t),
	}
}

// Scale multiplies every channel by f and clamps. Negative factors give black.
func Scale(c Color, f float64) Color {
	if f <= 0 {
		return Black
	}
	return Color{
		clampByte(float64(c.R) * f),
		clampByte(float64(c.G) * f),
		clampByte(float64(c.B) * f),
	}
}

// Add sums channel-wise, saturating at 255.
func Add(a, b Color) Color {
	return Color{addByte(a.R, b.R), addByte(a.G, b.G), addByte(a.B, b.B)}
}

// Sub subtracts b from a channel-wise, saturating at 0.
func Sub(a, b Color) Color {
	return Color{subByte(a.R, b.R), subByte(a.G, b.G), subByte(a.B, b.B)}
}

// FromHue returns the fully saturated colour at hue h (degrees, any range).
func FromHue(h float64) Color {
	return FromHSV(h, 1, 1)
}

// FromHSV converts hue (degrees), saturation and value ([0,1]) to RGB.
func FromHSV(h, s, v float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return fromColorful(colorful.Hsv(h, clamp01(s), clamp01(v)))
}

// SpectrumHueSpan is the hue range spread across spectrum bins: bin 0 is red,
// the highest bin is violet.
const SpectrumHueSpan = 270.0

// FromSpectrumBin maps a frequency bin and its amplitude to a colour:
// hue = SpectrumHueSpan * bin/(bins-1), value = amplitude clamped to [0,1].
func FromSpectrumBin(bin, bins int, amplitude float64) Color {
	pos := 0.0
	if bins > 1 {
		pos = clamp01(float64(bin) / float64(bins-1))
	}
	return FromHSV(SpectrumHueSpan*pos, 1, amplitude)
}

// MapRange maps x linearly from [inMin,inMax] onto [outMin,outMax] without clamping.
func MapRange(x, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// Parse reads "#rrggbb" or "rrggbb".
func Parse(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Black, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Black, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{r, g, b}, nil
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{r, g, b}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return clampByte(float64(a) + (float64(b)-float64(a))*t)
}

func addByte(a, b uint8) uint8 {
	s := int(a) + int(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

func subByte(a, b uint8) uint8 {
	if b >= a {
		return 0
	}
	return a - b
}

func clampByte(x float64) uint8 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(math.Round(x))
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
