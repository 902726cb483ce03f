package scheme

import (
	"errors"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Static paints one colour on every key in scope.
type Static struct {
	Color color.Color
}

func NewStatic(c color.Color) *Static { return &Static{Color: c} }

func newStatic(p Params) (Scheme, error) { return NewStatic(p.Color(0, color.White)), nil }

func (s *Static) Name() string { return "static" }

func (s *Static) Render(c *Canvas, _ time.Duration, _ []event.Trigger) { c.Fill(s.Color) }

// Gradient lays a fixed gradient across the board along Angle degrees
// (0 = left to right, 90 = bottom to top).
type Gradient struct {
	Gradient color.Gradient
	Angle    float64
}

func newGradient(p Params) (Scheme, error) {
	return &Gradient{
		Gradient: p.Gradient(color.Even(color.Red, color.Blue)),
		Angle:    p.Float("angle", 0),
	}, nil
}

func (g *Gradient) Name() string { return "gradient" }

func (g *Gradient) Render(c *Canvas, _ time.Duration, _ []event.Trigger) {
	w, h := c.extent()
	for i := 0; i < c.Len(); i++ {
		x, y, ok := c.Pos(i)
		if !ok {
			continue
		}
		c.Set(i, g.Gradient.At(project(x, y, w, h, g.Angle)))
	}
}

// Cycle moves the whole scope through a palette once per Period.
type Cycle struct {
	Palette color.Palette
	Period  time.Duration

	phase float64
}

func newCycle(p Params) (Scheme, error) {
	period := p.Duration("period", 10*time.Second)
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	pal := color.Palette(p.Colors)
	if len(pal) == 0 {
		pal = color.Palette{color.Red, color.Green, color.Blue}
	}
	return &Cycle{Palette: pal, Period: period}, nil
}

func (s *Cycle) Name() string { return "cycle" }

func (s *Cycle) Render(c *Canvas, dt time.Duration, _ []event.Trigger) {
	s.phase = advance(s.phase, dt, s.Period)
	c.Fill(s.Palette.Cycle(s.phase))
}

// advance moves a [0,1) phase forward by dt over period.
func advance(phase float64, dt, period time.Duration) float64 {
	if period <= 0 {
		return phase
	}
	phase += dt.Seconds() / period.Seconds()
	return phase - float64(int(phase))
}
