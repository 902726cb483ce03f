// Package scheme implements the lighting effects a layer can hold.
//
// A scheme is rendered once per tick by the engine goroutine only, so schemes
// keep their animation state without locks.
package scheme

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

// Scheme produces colours for the keys of its canvas. Keys it does not write
// stay transparent and the layers below show through.
type Scheme interface {
	Name() string
	Render(c *Canvas, dt time.Duration, triggers []event.Trigger)
}

// Canvas is the partial frame a scheme paints into. Writes to keys outside
// the layer mask are dropped.
type Canvas struct {
	layout  *layout.Layout
	mask    []bool
	colors  []color.Color
	written []bool
}

// NewCanvas builds a canvas over l. A nil mask selects every key.
func NewCanvas(l *layout.Layout, mask []bool) *Canvas {
	if mask == nil {
		mask = make([]bool, l.Len())
		for i := range mask {
			mask[i] = true
		}
	}
	return &Canvas{
		layout:  l,
		mask:    mask,
		colors:  make([]color.Color, l.Len()),
		written: make([]bool, l.Len()),
	}
}

func (c *Canvas) Layout() *layout.Layout { return c.layout }
func (c *Canvas) Len() int               { return len(c.colors) }
func (c *Canvas) InMask(i int) bool      { return c.mask[i] }

// Reset clears every write.
func (c *Canvas) Reset() {
	for i := range c.colors {
		c.colors[i] = color.Black
		c.written[i] = false
	}
}

// Set paints key i if the mask allows it.
func (c *Canvas) Set(i int, col color.Color) {
	if i < 0 || i >= len(c.colors) || !c.mask[i] {
		return
	}
	c.colors[i] = col
	c.written[i] = true
}

// SetKey paints a key by address.
func (c *Canvas) SetKey(addr layout.KeyAddress, col color.Color) {
	if i, ok := c.layout.Index(addr); ok {
		c.Set(i, col)
	}
}

// Fill paints every key in the mask.
func (c *Canvas) Fill(col color.Color) {
	for i := range c.colors {
		c.Set(i, col)
	}
}

// Written returns the colour painted at key i and whether anything was painted.
func (c *Canvas) Written(i int) (color.Color, bool) { return c.colors[i], c.written[i] }

// Pos returns the key position with y growing upwards from the bottom row.
func (c *Canvas) Pos(i int) (x, y float64, ok bool) {
	k := c.layout.Key(i)
	if !k.HasPos {
		return 0, 0, false
	}
	rows, _ := c.layout.Grid()
	return float64(k.Col), float64(rows - 1 - k.Row), true
}

// extent is the size of the positioned area in key units.
func (c *Canvas) extent() (w, h float64) {
	rows, cols := c.layout.Grid()
	return math.Max(float64(cols-1), 0), math.Max(float64(rows-1), 0)
}

// project maps a position onto [0,1] along a direction given in degrees,
// 0 pointing right and 90 pointing up.
func project(x, y, w, h, angle float64) float64 {
	rad := angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		v := p[0]*dx + p[1]*dy
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return 0
	}
	return (x*dx + y*dy - lo) / (hi - lo)
}

// Params is the loosely typed argument bag schemes are built from.
type Params struct {
	Floats map[string]float64
	Bools  map[string]bool
	Colors []color.Color
	Stops  []float64 // gradient key point positions, parallel to Colors
	Ease   color.Ease
	Mode   string
}

func (p Params) Float(key string, def float64) float64 {
	if v, ok := p.Floats[key]; ok {
		return v
	}
	return def
}

func (p Params) Bool(key string, def bool) bool {
	if v, ok := p.Bools[key]; ok {
		return v
	}
	return def
}

func (p Params) Color(i int, def color.Color) color.Color {
	if i < len(p.Colors) {
		return p.Colors[i]
	}
	return def
}

// Duration reads a value given in seconds.
func (p Params) Duration(key string, def time.Duration) time.Duration {
	if v, ok := p.Floats[key]; ok {
		return time.Duration(v * float64(time.Second))
	}
	return def
}

// Gradient builds a gradient from Colors and optional Stops, falling back to def
// when no colours are set.
func (p Params) Gradient(def color.Gradient) color.Gradient {
	if len(p.Colors) == 0 {
		return def
	}
	var g color.Gradient
	if len(p.Stops) == len(p.Colors) {
		stops := make([]color.Stop, len(p.Colors))
		for i, c := range p.Colors {
			stops[i] = color.Stop{T: p.Stops[i], Color: c}
		}
		g = color.NewGradient(stops...)
	} else {
		g = color.Even(p.Colors...)
	}
	g.HSV = p.Bool("hsv", def.HSV)
	g.Ease = p.Ease
	return g
}

var ErrUnknownScheme = errors.New("unknown scheme")

// Constructor builds a scheme from params.
type Constructor func(Params) (Scheme, error)

// Registry maps configuration names to constructors.
type Registry struct{ m map[string]Constructor }

func NewRegistry() *Registry { return &Registry{m: map[string]Constructor{}} }

func (r *Registry) Register(name string, c Constructor) {
	if c == nil {
		return
	}
	r.m[name] = c
}

// New builds the named scheme.
func (r *Registry) New(name string, p Params) (Scheme, error) {
	c, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownScheme, name)
	}
	s, err := c(p)
	if err != nil {
		return nil, fmt.Errorf("scheme %s: %w", name, err)
	}
	return s, nil
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtin returns a registry holding every scheme in this package.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("static", newStatic)
	r.Register("gradient", newGradient)
	r.Register("cycle", newCycle)
	r.Register("sweep", newSweep)
	r.Register("noise", newNoise)
	r.Register("flame", newFlame)
	r.Register("starlight", newStarlight)
	r.Register("ripple", newRipple)
	r.Register("reactive", newReactive)
	r.Register("spectrogram", newSpectrogram)
	r.Register("calibration", newCalibration)
	return r
}
