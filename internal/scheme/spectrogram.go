package scheme

import (
	"math"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Spectrogram draws one bar per board column from the latest amplitude
// sample. Bars grow from the bottom row; keys above a bar stay unlit. Without
// a new sample the previous one is drawn again.
type Spectrogram struct {
	// Rows optionally colours bars by height instead of by frequency.
	Rows *color.Gradient
	// Background, when set, paints unlit keys instead of leaving them transparent.
	Background *color.Color

	last    []float64
	heights []float64
}

func NewSpectrogram() *Spectrogram { return &Spectrogram{} }

func newSpectrogram(p Params) (Scheme, error) {
	s := NewSpectrogram()
	if len(p.Colors) > 0 {
		g := p.Gradient(color.Gradient{})
		s.Rows = &g
	}
	if p.Bool("background", false) {
		bg := color.Black
		s.Background = &bg
	}
	return s, nil
}

func (s *Spectrogram) Name() string { return "spectrogram" }

// Last returns the sample currently drawn.
func (s *Spectrogram) Last() []float64 { return s.last }

func (s *Spectrogram) Render(c *Canvas, _ time.Duration, triggers []event.Trigger) {
	for _, t := range triggers {
		if t.Kind == event.AmplitudeSample && len(t.Bins) > 0 {
			s.last = t.Bins
		}
	}
	rows, cols := c.Layout().Grid()
	if cols == 0 || rows == 0 {
		return
	}
	s.heights = resample(s.heights[:0], s.last, cols)
	for col := 0; col < cols; col++ {
		h := s.heights[col]
		lit := int(math.Round(clampUnit(h) * float64(rows)))
		for _, i := range c.Layout().Column(col) {
			fromBottom := rows - 1 - c.Layout().Key(i).Row
			switch {
			case fromBottom < lit && s.Rows != nil:
				c.Set(i, s.Rows.At(float64(fromBottom)/math.Max(float64(rows-1), 1)))
			case fromBottom < lit:
				c.Set(i, color.FromSpectrumBin(col, cols, h))
			case s.Background != nil:
				c.Set(i, *s.Background)
			}
		}
	}
}

// resample averages bins onto n columns. Fewer bins than columns repeat the
// nearest bin.
func resample(dst, bins []float64, n int) []float64 {
	for col := 0; col < n; col++ {
		if len(bins) == 0 {
			dst = append(dst, 0)
			continue
		}
		lo := col * len(bins) / n
		hi := (col + 1) * len(bins) / n
		if hi <= lo {
			hi = lo + 1
		}
		sum := 0.0
		for _, b := range bins[lo:hi] {
			sum += b
		}
		dst = append(dst, sum/float64(hi-lo))
	}
	return dst
}

func clampUnit(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
