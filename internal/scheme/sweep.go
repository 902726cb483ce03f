package scheme

import (
	"errors"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Sweep scrolls a looping palette across the board. One full loop passes any
// key every Period; Repeat is the number of loops visible across the board.
type Sweep struct {
	Palette color.Palette
	Period  time.Duration
	Angle   float64
	Repeat  float64
	Reverse bool

	phase float64
}

func newSweep(p Params) (Scheme, error) {
	s := &Sweep{
		Palette: color.Palette(p.Colors),
		Period:  p.Duration("period", 4*time.Second),
		Angle:   p.Float("angle", 0),
		Repeat:  p.Float("repeat", 1),
		Reverse: p.Bool("reverse", false),
	}
	if s.Period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(s.Palette) == 0 {
		s.Palette = rainbow()
	}
	return s, nil
}

func rainbow() color.Palette {
	out := make(color.Palette, 6)
	for i := range out {
		out[i] = color.FromHue(float64(i) * 60)
	}
	return out
}

func (s *Sweep) Name() string { return "sweep" }

func (s *Sweep) Render(c *Canvas, dt time.Duration, _ []event.Trigger) {
	s.phase = advance(s.phase, dt, s.Period)
	w, h := c.extent()
	for i := 0; i < c.Len(); i++ {
		x, y, ok := c.Pos(i)
		if !ok {
			continue
		}
		pos := project(x, y, w, h, s.Angle) * s.Repeat
		if s.Reverse {
			c.Set(i, s.Palette.Cycle(pos+s.phase))
		} else {
			c.Set(i, s.Palette.Cycle(pos-s.phase))
		}
	}
}
