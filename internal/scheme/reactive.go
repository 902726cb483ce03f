package scheme

import (
	"errors"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Reactive lights a key when it is pressed and fades it out linearly over
// Decay. With Hold set the key stays lit until released.
type Reactive struct {
	Color color.Color
	Decay time.Duration
	Hold  bool

	clock time.Duration
	keys  map[int]*pressed
}

type pressed struct {
	held  bool
	since time.Duration
}

func NewReactive(c color.Color, decay time.Duration) *Reactive {
	return &Reactive{Color: c, Decay: decay, Hold: true, keys: map[int]*pressed{}}
}

func newReactive(p Params) (Scheme, error) {
	r := NewReactive(p.Color(0, color.Color{R: 80, B: 255}), p.Duration("decay", 400*time.Millisecond))
	r.Hold = p.Bool("hold", true)
	if r.Decay < 0 {
		return nil, errors.New("decay must not be negative")
	}
	return r, nil
}

func (r *Reactive) Name() string { return "reactive" }

func (r *Reactive) Render(c *Canvas, dt time.Duration, triggers []event.Trigger) {
	r.clock += dt
	for _, t := range triggers {
		if t.Kind != event.KeyPressed && t.Kind != event.KeyReleased {
			continue
		}
		i, ok := c.Layout().Index(t.Key)
		if !ok || !c.InMask(i) {
			continue
		}
		switch t.Kind {
		case event.KeyPressed:
			r.keys[i] = &pressed{held: r.Hold, since: r.clock}
		case event.KeyReleased:
			if k, ok := r.keys[i]; ok && k.held {
				k.held, k.since = false, r.clock
			}
		}
	}
	for i, k := range r.keys {
		level := 1.0
		if !k.held {
			if r.Decay <= 0 {
				delete(r.keys, i)
				continue
			}
			level = 1 - float64(r.clock-k.since)/float64(r.Decay)
		}
		if level <= 0 {
			delete(r.keys, i)
			continue
		}
		c.Set(i, color.Scale(r.Color, level))
	}
}
