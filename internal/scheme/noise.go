package scheme

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// valueNoise is seeded 3D lattice noise in [0,1] with smoothstep interpolation.
type valueNoise struct {
	perm [256]uint8
	vals [256]float64
}

func newValueNoise(seed int64) *valueNoise {
	r := rand.New(rand.NewSource(seed))
	n := &valueNoise{}
	for i, p := range r.Perm(256) {
		n.perm[i] = uint8(p)
	}
	for i := range n.vals {
		n.vals[i] = r.Float64()
	}
	return n
}

func (n *valueNoise) lattice(i, j, k int) float64 {
	h := n.perm[i&255]
	h = n.perm[(int(h)+j)&255]
	h = n.perm[(int(h)+k)&255]
	return n.vals[h]
}

func fade(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func (n *valueNoise) at(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	xi, yi, zi := int(fx), int(fy), int(fz)
	u, v, w := fade(x-fx), fade(y-fy), fade(z-fz)

	c000 := n.lattice(xi, yi, zi)
	c100 := n.lattice(xi+1, yi, zi)
	c010 := n.lattice(xi, yi+1, zi)
	c110 := n.lattice(xi+1, yi+1, zi)
	c001 := n.lattice(xi, yi, zi+1)
	c101 := n.lattice(xi+1, yi, zi+1)
	c011 := n.lattice(xi, yi+1, zi+1)
	c111 := n.lattice(xi+1, yi+1, zi+1)

	x00 := lerp(c000, c100, u)
	x10 := lerp(c010, c110, u)
	x01 := lerp(c001, c101, u)
	x11 := lerp(c011, c111, u)
	return lerp(lerp(x00, x10, v), lerp(x01, x11, v), w)
}

// Noise samples a drifting noise field at every key and maps it through a
// gradient. Animation speed depends only on elapsed time.
type Noise struct {
	Gradient color.Gradient
	// Speed is how fast the field evolves, in noise cells per second.
	Speed float64
	// Scale 100 puts one noise cell per key; larger values give smaller blobs.
	Scale float64
	// Smoothing in [0,1) low-pass filters each key over time.
	Smoothing float64
	// Rise scrolls the field upwards in keys per second.
	Rise float64
	// Falloff in [0,1] dims keys towards the top row.
	Falloff float64

	name   string
	noise  *valueNoise
	t      float64
	values []float64
	primed []bool
}

// NewNoise builds a noise scheme with a fixed seed.
func NewNoise(g color.Gradient, speed, scale float64, seed int64) *Noise {
	return &Noise{Gradient: g, Speed: speed, Scale: scale, name: "noise", noise: newValueNoise(seed)}
}

func newNoise(p Params) (Scheme, error) {
	n := NewNoise(p.Gradient(color.Even(color.Black, color.White)), p.Float("speed", 1), p.Float("scale", 120), int64(p.Float("seed", 1)))
	if err := n.apply(p); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Noise) apply(p Params) error {
	n.Speed = p.Float("speed", n.Speed)
	n.Scale = p.Float("scale", n.Scale)
	n.Smoothing = p.Float("smoothing", n.Smoothing)
	n.Rise = p.Float("rise", n.Rise)
	n.Falloff = p.Float("falloff", n.Falloff)
	if n.Scale <= 0 {
		return errors.New("scale must be positive")
	}
	if n.Smoothing < 0 || n.Smoothing >= 1 {
		return errors.New("smoothing must be in [0,1)")
	}
	return nil
}

// NewFlame is a single-layer fire: hot at the bottom row, flickering and
// rising, fading out towards the top.
func NewFlame(p Params) (*Noise, error) {
	def := color.NewGradient(
		color.Stop{T: 0, Color: color.Black},
		color.Stop{T: 0.35, Color: color.Color{R: 200}},
		color.Stop{T: 0.7, Color: color.Color{R: 255, G: 120}},
		color.Stop{T: 1, Color: color.Color{R: 255, G: 220, B: 80}},
	)
	n := NewNoise(p.Gradient(def), 1.2, 60, int64(p.Float("seed", 7)))
	n.name = "flame"
	n.Rise, n.Falloff, n.Smoothing = 1.5, 0.85, 0.3
	return n, n.apply(p)
}

// StarlightChance is the share of the noise range that lights a star.
const StarlightChance = 0.125

// NewStarlight twinkles sparse purple stars over a dark field.
func NewStarlight(p Params) (*Noise, error) {
	def := color.NewGradient(
		color.Stop{T: 0, Color: color.Black},
		color.Stop{T: 1 - StarlightChance, Color: color.Black},
		color.Stop{T: 1 - StarlightChance, Color: color.Color{R: 100, G: 25, B: 127}},
		color.Stop{T: 1, Color: color.Color{R: 200, G: 50, B: 255}},
	)
	n := NewNoise(p.Gradient(def), 0.5, 115, int64(p.Float("seed", 3)))
	n.name = "starlight"
	return n, n.apply(p)
}

func newFlame(p Params) (Scheme, error) {
	n, err := NewFlame(p)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func newStarlight(p Params) (Scheme, error) {
	n, err := NewStarlight(p)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Noise) Name() string { return n.name }

func (n *Noise) Render(c *Canvas, dt time.Duration, _ []event.Trigger) {
	if len(n.values) != c.Len() {
		n.values = make([]float64, c.Len())
		n.primed = make([]bool, c.Len())
	}
	n.t += dt.Seconds()
	f := n.Scale / 100
	_, h := c.extent()
	keep := 0.0
	if n.Smoothing > 0 {
		keep = math.Pow(n.Smoothing, dt.Seconds()*60)
	}
	for i := 0; i < c.Len(); i++ {
		if !c.InMask(i) {
			continue
		}
		x, y, ok := c.Pos(i)
		if !ok {
			continue
		}
		v := n.noise.at(x*f, (y-n.Rise*n.t)*f, n.t*n.Speed)
		if n.Falloff > 0 && h > 0 {
			v *= 1 - n.Falloff*y/h
		}
		if n.primed[i] {
			v = n.values[i]*keep + v*(1-keep)
		}
		n.values[i], n.primed[i] = v, true
		c.Set(i, n.Gradient.At(v))
	}
}
