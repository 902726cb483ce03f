package color

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func between(v, a, b uint8) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a && v <= b
}

func TestBlendStaysBetweenEndpoints(t *testing.T) {
	pairs := [][2]Color{
		{Black, White},
		{White, Black},
		{{10, 200, 3}, {250, 1, 128}},
		{{255, 0, 255}, {0, 255, 0}},
		{{17, 17, 17}, {17, 17, 17}},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		assert.Equal(t, a, Blend(a, b, 0))
		assert.Equal(t, b, Blend(a, b, 1))
		for i := 0; i <= 100; i++ {
			tt := float64(i) / 100
			c := Blend(a, b, tt)
			if !between(c.R, a.R, b.R) || !between(c.G, a.G, b.G) || !between(c.B, a.B, b.B) {
				t.Fatalf("Blend(%v, %v, %v) = %v, outside endpoints", a, b, tt, c)
			}
		}
	}
}

func TestBlendClampsT(t *testing.T) {
	a, b := Color{10, 20, 30}, Color{200, 100, 0}
	assert.Equal(t, a, Blend(a, b, -3))
	assert.Equal(t, b, Blend(a, b, 7))
}

func TestScaleClamps(t *testing.T) {
	tests := []struct {
		name string
		in   Color
		f    float64
		want Color
	}{
		{"identity", Color{10, 20, 30}, 1, Color{10, 20, 30}},
		{"half", Color{100, 50, 0}, 0.5, Color{50, 25, 0}},
		{"saturate", Color{200, 100, 10}, 2, Color{255, 200, 20}},
		{"negative", White, -1, Black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scale(tt.in, tt.f))
		})
	}
}

func TestAddSubSaturate(t *testing.T) {
	assert.Equal(t, Color{255, 255, 30}, Add(Color{200, 128, 10}, Color{200, 128, 20}))
	assert.Equal(t, Color{0, 0, 5}, Sub(Color{10, 20, 25}, Color{200, 20, 20}))
}

func TestFromHue(t *testing.T) {
	assert.Equal(t, Red, FromHue(0))
	assert.Equal(t, Green, FromHue(120))
	assert.Equal(t, Blue, FromHue(240))
	assert.Equal(t, Red, FromHue(360))
	assert.Equal(t, FromHue(300), FromHue(-60))
}

func TestFromSpectrumBin(t *testing.T) {
	assert.Equal(t, Red, FromSpectrumBin(0, 10, 1))
	assert.Equal(t, Black, FromSpectrumBin(3, 10, 0))
	assert.Equal(t, FromHue(SpectrumHueSpan), FromSpectrumBin(9, 10, 1))
	// amplitude only changes brightness
	lo := FromSpectrumBin(4, 10, 0.25)
	hi := FromSpectrumBin(4, 10, 1)
	assert.Less(t, int(lo.R)+int(lo.G)+int(lo.B), int(hi.R)+int(hi.G)+int(hi.B))
}

func TestGradient(t *testing.T) {
	g := NewGradient(Stop{1, Blue}, Stop{0, Red})
	assert.Equal(t, Red, g.At(-1))
	assert.Equal(t, Red, g.At(0))
	assert.Equal(t, Blue, g.At(1))
	assert.Equal(t, Blue, g.At(2))
	assert.Equal(t, Color{128, 0, 128}, g.At(0.5))

	g.HSV = true
	mid := g.At(0.5)
	assert.Equal(t, uint8(0), mid.G)
	assert.Greater(t, int(mid.R)+int(mid.B), 255, "hsv blend keeps full value")
}

func TestGradientEase(t *testing.T) {
	g := Even(Black, White)
	g.Ease = EaseSmooth
	assert.Equal(t, Black, g.At(0))
	assert.Equal(t, White, g.At(1))
	assert.Less(t, g.At(0.25).R, Blend(Black, White, 0.25).R)
}

func TestPaletteCycle(t *testing.T) {
	p := Palette{Red, Green, Blue}
	assert.Equal(t, Red, p.Cycle(0))
	assert.Equal(t, Green, p.Cycle(1.0/3))
	assert.Equal(t, Red, p.Cycle(1))
	assert.Equal(t, Red, p.Cycle(-1))
	assert.Equal(t, Black, Palette(nil).Cycle(0.3))

	assert.Equal(t, Red, p.Cycle(math.NaN()))
	assert.Equal(t, Red, p.Cycle(math.Inf(1)))
	assert.Equal(t, Red, p.Cycle(math.Inf(-1)))
}

func TestParse(t *testing.T) {
	c, err := Parse("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, Color{255, 128, 0}, c)
	assert.Equal(t, "#ff8000", c.String())

	_, err = Parse("#fff")
	assert.Error(t, err)
	_, err = Parse("zzzzzz")
	assert.Error(t, err)
}

func TestMapRange(t *testing.T) {
	assert.InDelta(t, 3.0, MapRange(0.2, 0, 0.4, 0, 6), 1e-9)
	assert.InDelta(t, 12.0, MapRange(0.8, 0, 0.4, 0, 6), 1e-9)
	assert.Equal(t, 1.0, MapRange(5, 2, 2, 1, 9))
}
