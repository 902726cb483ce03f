package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

func fill(l *layout.Layout, c color.Color) layout.Frame {
	f := layout.NewFrame(l)
	for i := 0; i < f.Len(); i++ {
		f.Set(i, c)
	}
	return f
}

// current estimate in mA using the same model as the limiter
func estCurrent(f layout.Frame, chanMA float64) float64 {
	total := 0.0
	for i := 0; i < f.Len(); i++ {
		c := f.At(i)
		total += (float64(c.R) + float64(c.G) + float64(c.B)) / 255 * chanMA
	}
	return total
}

func TestBrightness(t *testing.T) {
	f := fill(layout.DuckyOne2RGB(), color.Color{R: 200, G: 100, B: 50})
	BrightnessStage(0.5)(f)
	assert.Equal(t, color.Color{R: 100, G: 50, B: 25}, f.At(0))
}

func TestWhiteCap(t *testing.T) {
	f := fill(layout.DuckyOne2RGB(), color.White)
	Limiter(LimiterConfig{WhiteCap: 0.5})(f)
	c := f.At(0)
	sum := int(c.R) + int(c.G) + int(c.B)
	if sum > 383 {
		t.Fatalf("expected sum <= 382.5 after cap, got %d", sum)
	}
	assert.Equal(t, c.R, c.B)
}

func TestLimiterBudgetClamp(t *testing.T) {
	l := layout.DuckyOne2RGB()
	f := fill(l, color.White)
	// 108 keys * 3 channels * 5 mA = 1620 mA before limiting
	Limiter(LimiterConfig{ChanMA: 5, BudgetMA: 500})(f)
	if cur := estCurrent(f, 5); cur > 500.01 {
		t.Fatalf("expected <= 500mA after limit, got %.2f mA", cur)
	}
}

func TestLimiterUnderKneeUntouched(t *testing.T) {
	f := fill(layout.DuckyOne2RGB(), color.Color{R: 10})
	Limiter(LimiterConfig{ChanMA: 5, BudgetMA: 500})(f)
	assert.Equal(t, color.Color{R: 10}, f.At(0))
}

func TestDefaultPost(t *testing.T) {
	f := fill(layout.DuckyOne2RGB(), color.White)
	DefaultPost(1, LimiterConfig{}).apply(f)
	assert.Equal(t, color.White, f.At(0))

	DefaultPost(0.5, LimiterConfig{}).apply(f)
	assert.Equal(t, color.Color{R: 128, G: 128, B: 128}, f.At(0))
}
