package color

import (
	"math"
	"sort"
)

// Ease names an interpolation curve between two gradient stops.
type Ease string

const (
	EaseLinear   Ease = "linear"
	EaseSmooth   Ease = "smooth"
	EaseSmoother Ease = "cubic"
)

func (e Ease) apply(x float64) float64 {
	switch e {
	case EaseSmooth:
		return x * x * (3 - 2*x)
	case EaseSmoother:
		return x * x * x * (x*(x*6-15) + 10)
	default:
		return x
	}
}

// Stop is one key point of a gradient.
type Stop struct {
	T     float64
	Color Color
}

// Gradient interpolates between ordered stops. Before the first stop and after
// the last one the end colours hold.
type Gradient struct {
	Stops []Stop
	HSV   bool
	Ease  Ease
}

// NewGradient sorts the stops by T.
func NewGradient(stops ...Stop) Gradient {
	s := append([]Stop(nil), stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].T < s[j].T })
	return Gradient{Stops: s}
}

// Even spreads colours evenly over [0,1].
func Even(colors ...Color) Gradient {
	stops := make([]Stop, len(colors))
	for i, c := range colors {
		t := 0.0
		if len(colors) > 1 {
			t = float64(i) / float64(len(colors)-1)
		}
		stops[i] = Stop{T: t, Color: c}
	}
	return Gradient{Stops: stops}
}

// At samples the gradient at t.
func (g Gradient) At(t float64) Color {
	n := len(g.Stops)
	switch {
	case n == 0:
		return Black
	case n == 1 || t <= g.Stops[0].T:
		return g.Stops[0].Color
	case t >= g.Stops[n-1].T:
		return g.Stops[n-1].Color
	}
	for i := 0; i < n-1; i++ {
		a, b := g.Stops[i], g.Stops[i+1]
		if t < a.T || t > b.T {
			continue
		}
		den := b.T - a.T
		if den <= 0 {
			return b.Color
		}
		u := g.Ease.apply(clamp01((t - a.T) / den))
		if g.HSV {
			return fromColorful(a.Color.colorful().BlendHsv(b.Color.colorful(), u))
		}
		return Blend(a.Color, b.Color, u)
	}
	return g.Stops[n-1].Color
}

// Palette is a closed loop of colours for cycling effects.
type Palette []Color

// Cycle samples the loop at phase, where one unit of phase is one full cycle.
// A non-finite phase yields the first colour.
func (p Palette) Cycle(phase float64) Color {
	n := len(p)
	if n == 0 {
		return Black
	}
	if n == 1 || math.IsNaN(phase) || math.IsInf(phase, 0) {
		return p[0]
	}
	phase -= math.Floor(phase)
	x := phase * float64(n)
	i := int(x) % n
	return Blend(p[i], p[(i+1)%n], x-math.Floor(x))
}
