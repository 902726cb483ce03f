package scheme

import (
	"fmt"
	"sort"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Calibration patterns for checking a layout against real hardware.
const (
	// IndexSweep walks a single lit key through the scope in packet order.
	IndexSweep = "index-sweep"
	// ChannelTest fills the scope with red, green, blue, then white.
	ChannelTest = "rgb"
)

type Calibration struct {
	Mode  string
	Step  time.Duration
	Color color.Color

	clock time.Duration
	order []int
}

func NewCalibration(mode string, step time.Duration) (*Calibration, error) {
	if mode != IndexSweep && mode != ChannelTest {
		return nil, fmt.Errorf("calibration mode %q", mode)
	}
	if step <= 0 {
		return nil, fmt.Errorf("calibration step %v must be positive", step)
	}
	return &Calibration{Mode: mode, Step: step, Color: color.White}, nil
}

func newCalibration(p Params) (Scheme, error) {
	mode := p.Mode
	if mode == "" {
		mode = IndexSweep
	}
	c, err := NewCalibration(mode, p.Duration("step", 250*time.Millisecond))
	if err != nil {
		return nil, err
	}
	c.Color = p.Color(0, color.White)
	return c, nil
}

func (s *Calibration) Name() string { return "calibration" }

// Current returns the step index being shown.
func (s *Calibration) Current() int { return int(s.clock / s.Step) }

func (s *Calibration) Render(c *Canvas, dt time.Duration, _ []event.Trigger) {
	s.clock += dt
	step := s.Current()
	if s.Mode == ChannelTest {
		seq := [...]color.Color{color.Red, color.Green, color.Blue, color.White}
		c.Fill(seq[step%len(seq)])
		return
	}
	if s.order == nil {
		s.order = packetOrder(c)
	}
	if len(s.order) == 0 {
		return
	}
	c.Fill(color.Black)
	c.Set(s.order[step%len(s.order)], s.Color)
}

func packetOrder(c *Canvas) []int {
	out := []int{}
	for i := 0; i < c.Len(); i++ {
		if c.InMask(i) {
			out = append(out, i)
		}
	}
	l := c.Layout()
	sort.Slice(out, func(a, b int) bool {
		ka, kb := l.Key(out[a]), l.Key(out[b])
		if ka.Packet != kb.Packet {
			return ka.Packet < kb.Packet
		}
		return ka.Offset < kb.Offset
	})
	return out
}
