package scheme

import (
	"errors"
	"math"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Ripple spawns an expanding ring at every pressed key. Rings overlapping at a
// key add up channel-wise and saturate.
type Ripple struct {
	Color color.Color
	// Speed is the ring growth in keys per second.
	Speed float64
	// Width is the ring thickness in keys.
	Width float64
	// Decay is the exponential amplitude falloff per second.
	Decay float64
	// MinAmplitude retires a ring once it fades below it.
	MinAmplitude float64

	rings []ring
	acc   [][3]float64
}

type ring struct {
	x, y   float64
	radius float64
	amp    float64
}

func NewRipple(c color.Color) *Ripple {
	return &Ripple{Color: c, Speed: 12, Width: 1.5, Decay: 2.5, MinAmplitude: 0.02}
}

func newRipple(p Params) (Scheme, error) {
	r := NewRipple(p.Color(0, color.Color{R: 80, B: 255}))
	r.Speed = p.Float("speed", r.Speed)
	r.Width = p.Float("width", r.Width)
	r.Decay = p.Float("decay", r.Decay)
	r.MinAmplitude = p.Float("min_amplitude", r.MinAmplitude)
	if r.Width <= 0 {
		return nil, errors.New("width must be positive")
	}
	if !(r.Speed >= 0) || !(r.Decay >= 0) || math.IsInf(r.Speed, 0) || math.IsInf(r.Decay, 0) {
		return nil, errors.New("speed and decay must be finite and not negative")
	}
	// a ring ends when it outgrows the board or fades out
	if r.Speed == 0 && (r.Decay == 0 || !(r.MinAmplitude > 0)) {
		return nil, errors.New("ripple needs a positive speed, or a positive decay and min_amplitude")
	}
	return r, nil
}

func (r *Ripple) Name() string { return "ripple" }

// Active is the number of live rings.
func (r *Ripple) Active() int { return len(r.rings) }

func (r *Ripple) Render(c *Canvas, dt time.Duration, triggers []event.Trigger) {
	sec := dt.Seconds()
	fade := math.Exp(-r.Decay * sec)
	w, h := c.extent()
	reach := math.Hypot(w, h) + r.Width
	live := r.rings[:0]
	for _, rg := range r.rings {
		rg.radius += r.Speed * sec
		rg.amp *= fade
		if rg.amp >= r.MinAmplitude && rg.radius <= reach {
			live = append(live, rg)
		}
	}
	r.rings = live

	for _, t := range triggers {
		if t.Kind != event.KeyPressed {
			continue
		}
		i, ok := c.Layout().Index(t.Key)
		if !ok {
			continue
		}
		if x, y, ok := c.Pos(i); ok {
			r.rings = append(r.rings, ring{x: x, y: y, amp: 1})
		}
	}
	if len(r.rings) == 0 {
		return
	}

	if len(r.acc) != c.Len() {
		r.acc = make([][3]float64, c.Len())
	}
	for i := 0; i < c.Len(); i++ {
		if !c.InMask(i) {
			continue
		}
		x, y, ok := c.Pos(i)
		if !ok {
			continue
		}
		a := &r.acc[i]
		*a = [3]float64{}
		hit := false
		for _, rg := range r.rings {
			d := math.Hypot(x-rg.x, y-rg.y)
			k := rg.amp * (1 - math.Abs(d-rg.radius)/r.Width)
			if k <= 0 {
				continue
			}
			hit = true
			a[0] += float64(r.Color.R) * k
			a[1] += float64(r.Color.G) * k
			a[2] += float64(r.Color.B) * k
		}
		if hit {
			c.Set(i, color.RGB(int(math.Round(a[0])), int(math.Round(a[1])), int(math.Round(a[2]))))
		}
	}
}
