package render

import (
	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

// PostPipeline groups the stages applied to a composited frame; all are optional.
type PostPipeline struct {
	Brightness func(layout.Frame)
	Limiter    func(layout.Frame)
}

func (p PostPipeline) apply(f layout.Frame) {
	if p.Brightness != nil {
		p.Brightness(f)
	}
	if p.Limiter != nil {
		p.Limiter(f)
	}
}

// LimiterConfig drives the two-stage limiter.
//   - WhiteCap: per key cap on R+G+B as a fraction of full white (0 or >=1 disables)
//   - ChanMA: current per channel at full scale in mA
//   - BudgetMA: whole-board budget in mA (0 disables)
//   - Knee: fraction of the budget where soft limiting starts
type LimiterConfig struct {
	WhiteCap float64
	ChanMA   float64
	BudgetMA float64
	Knee     float64
}

// DefaultPost scales by brightness and applies the limiter.
func DefaultPost(brightness float64, lc LimiterConfig) PostPipeline {
	p := PostPipeline{Limiter: Limiter(lc)}
	if brightness >= 0 && brightness < 1 {
		p.Brightness = BrightnessStage(brightness)
	}
	return p
}

// BrightnessStage scales every key by b.
func BrightnessStage(b float64) func(layout.Frame) {
	return func(f layout.Frame) {
		for i := 0; i < f.Len(); i++ {
			f.Set(i, color.Scale(f.At(i), b))
		}
	}
}

// Limiter returns the white cap + global budget stage.
func Limiter(lc LimiterConfig) func(layout.Frame) {
	chanMA := lc.ChanMA
	if chanMA <= 0 {
		chanMA = 5
	}
	knee := lc.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	return func(f layout.Frame) {
		// 1) per key white cap
		if lc.WhiteCap > 0 && lc.WhiteCap < 1 {
			limit := lc.WhiteCap * 3 * 255
			for i := 0; i < f.Len(); i++ {
				c := f.At(i)
				s := float64(c.R) + float64(c.G) + float64(c.B)
				if s > limit {
					f.Set(i, scaleDown(c, limit/s))
				}
			}
		}

		// 2) global budget
		if lc.BudgetMA <= 0 {
			return
		}
		total := 0.0
		for i := 0; i < f.Len(); i++ {
			c := f.At(i)
			total += (float64(c.R) + float64(c.G) + float64(c.B)) / 255 * chanMA
		}
		if total <= 0 {
			return
		}
		ratio := total / lc.BudgetMA
		if ratio <= knee {
			return
		}
		s := lc.BudgetMA / total
		if ratio <= 1 {
			// soft knee: map ratio in [knee,1] to scale in [1, budget/total]
			t := (ratio - knee) / (1 - knee)
			s = 1 - t*(1-s)
		}
		for i := 0; i < f.Len(); i++ {
			f.Set(i, scaleDown(f.At(i), s))
		}
	}
}

// scaleDown never rounds a channel up, so the budget holds after scaling.
func scaleDown(c color.Color, s float64) color.Color {
	if s >= 1 {
		return c
	}
	return color.Color{R: uint8(float64(c.R) * s), G: uint8(float64(c.G) * s), B: uint8(float64(c.B) * s)}
}
