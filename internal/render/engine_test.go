package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/scheme"
)

// recorder paints nothing and remembers what each render call received.
type recorder struct {
	dts      []time.Duration
	triggers [][]event.Trigger
}

func (r *recorder) Name() string { return "recorder" }
func (r *recorder) Render(_ *scheme.Canvas, dt time.Duration, tr []event.Trigger) {
	r.dts = append(r.dts, dt)
	r.triggers = append(r.triggers, tr)
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(layout.DuckyOne2RGB(), event.NewQueue(16))
	require.NoError(t, err)
	return e
}

func key(t *testing.T, f layout.Frame, addr layout.KeyAddress) color.Color {
	t.Helper()
	c, ok := f.Color(addr)
	require.True(t, ok, addr)
	return c
}

func TestEmptyEngineRendersBlack(t *testing.T) {
	e := newEngine(t)
	f := e.RenderOnce(0)
	require.Equal(t, e.Layout.Len(), f.Len())
	for i := 0; i < f.Len(); i++ {
		if f.At(i) != color.Black {
			t.Fatalf("key %d = %v, want black", i, f.At(i))
		}
	}
}

func TestOcclusion(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.AddLayer(scheme.NewStatic(color.Red), layout.All()))
	require.NoError(t, e.AddLayer(scheme.NewStatic(color.Blue), layout.Keys("X")))

	f := e.RenderOnce(0)
	for i := 0; i < f.Len(); i++ {
		want := color.Red
		if e.Layout.Key(i).Addr == "X" {
			want = color.Blue
		}
		if f.At(i) != want {
			t.Fatalf("%s = %v, want %v", e.Layout.Key(i).Addr, f.At(i), want)
		}
	}
}

func TestIdempotentFrames(t *testing.T) {
	e := newEngine(t)
	sweep := &scheme.Sweep{Palette: color.Palette{color.Red, color.Green}, Period: time.Second, Repeat: 1}
	grad := &scheme.Gradient{Gradient: color.Even(color.Blue, color.White), Angle: 45}
	require.NoError(t, e.AddLayer(scheme.NewStatic(color.Red), layout.All()))
	require.NoError(t, e.AddLayer(sweep, layout.Keys("Q", "W", "E")))
	require.NoError(t, e.AddLayer(grad, layout.Keys("Space")))

	a := e.RenderOnce(0)
	b := e.RenderOnce(0)
	assert.True(t, a.Equal(b))
}

func TestTriggersReachEveryLayerInOrder(t *testing.T) {
	e := newEngine(t)
	r1, r2 := &recorder{}, &recorder{}
	require.NoError(t, e.AddLayer(r1, layout.All()))
	require.NoError(t, e.AddLayer(r2, layout.Keys("Q")))

	now := time.Unix(10, 0)
	require.NoError(t, e.Queue.Push(event.Press("A", now)))
	require.NoError(t, e.Queue.Push(event.Press("B", now)))
	e.RenderOnce(0)
	e.RenderOnce(0)

	for _, r := range []*recorder{r1, r2} {
		require.Len(t, r.triggers, 2)
		require.Len(t, r.triggers[0], 2)
		assert.Equal(t, layout.KeyAddress("A"), r.triggers[0][0].Key)
		assert.Equal(t, layout.KeyAddress("B"), r.triggers[0][1].Key)
		assert.Empty(t, r.triggers[1], "triggers are consumed once")
	}
}

func TestTickMeasuresElapsedTime(t *testing.T) {
	e := newEngine(t)
	r := &recorder{}
	require.NoError(t, e.AddLayer(r, layout.All()))
	t0 := time.Unix(100, 0)
	e.Tick(t0)
	e.Tick(t0.Add(50 * time.Millisecond))
	e.Tick(t0.Add(40 * time.Millisecond)) // clock went backwards
	assert.Equal(t, []time.Duration{0, 50 * time.Millisecond, 0}, r.dts)
	assert.Equal(t, uint64(3), e.Frames())
}

func TestCompositeModes(t *testing.T) {
	tests := []struct {
		mode Mode
		top  color.Color
		want color.Color
	}{
		{Overwrite, color.Black, color.Black},
		{Overlay, color.Black, color.Color{R: 200, G: 100}},
		{Overlay, color.Blue, color.Blue},
		{Add, color.Color{R: 100, B: 10}, color.Color{R: 255, G: 100, B: 10}},
		{Subtract, color.Color{R: 50, G: 150}, color.Color{R: 150}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			e := newEngine(t)
			require.NoError(t, e.AddLayer(scheme.NewStatic(color.Color{R: 200, G: 100}), layout.All()))
			require.NoError(t, e.AddLayer(scheme.NewStatic(tt.top), layout.Keys("Q"), WithMode(tt.mode)))
			f := e.RenderOnce(0)
			assert.Equal(t, tt.want, key(t, f, "Q"))
			assert.Equal(t, color.Color{R: 200, G: 100}, key(t, f, "W"))
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Subtract")
	require.NoError(t, err)
	assert.Equal(t, Subtract, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Overwrite, m)
	_, err = ParseMode("multiply")
	assert.Error(t, err)
}

func TestAddLayerValidation(t *testing.T) {
	e := newEngine(t)
	assert.Error(t, e.AddLayer(nil, layout.All()))
	assert.ErrorIs(t, e.AddLayer(scheme.NewStatic(color.Red), layout.Keys("Nope")), layout.ErrUnknownKey)

	l := e.Layers()
	assert.Empty(t, l)
	require.NoError(t, e.AddLayer(scheme.NewStatic(color.Red), layout.All(), WithName("base")))
	assert.Equal(t, "base", e.Layers()[0].Name)
}

func TestRunStopsFromSink(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.AddLayer(scheme.NewStatic(color.Green), layout.All()))
	n := 0
	err := e.Run(context.Background(), time.Millisecond, func(f layout.Frame) error {
		n++
		assert.Equal(t, color.Green, key(t, f, "Q"))
		if n == 3 {
			e.Stop()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, Stopped, e.State())

	assert.ErrorIs(t, e.AddLayer(scheme.NewStatic(color.Red), layout.All()), ErrNotIdle)
	assert.ErrorIs(t, e.Run(context.Background(), time.Millisecond, nil), ErrNotIdle)
}

func TestRunEndsOnSinkError(t *testing.T) {
	e := newEngine(t)
	boom := errors.New("boom")
	err := e.Run(context.Background(), time.Millisecond, func(layout.Frame) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Stopped, e.State())
}

func TestRunHonoursContext(t *testing.T) {
	e := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	err := e.Run(ctx, time.Millisecond, func(layout.Frame) error {
		n++
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunCountsDroppedFrames(t *testing.T) {
	e := newEngine(t)
	var drops int
	e.OnDrop = func(el, budget time.Duration) {
		drops++
		assert.Greater(t, el, budget)
	}
	n := 0
	err := e.Run(context.Background(), time.Millisecond, func(layout.Frame) error {
		n++
		if n == 1 {
			time.Sleep(5 * time.Millisecond)
		}
		if n == 3 {
			e.Stop()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n, "a slow frame does not stop the loop")
	assert.GreaterOrEqual(t, e.Dropped(), uint64(1))
	assert.GreaterOrEqual(t, drops, 1)
}

func TestStopIdle(t *testing.T) {
	e := newEngine(t)
	e.Stop()
	e.Stop()
	assert.Equal(t, Stopped, e.State())
}

func TestNewEngineRejectsNilLayout(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.Error(t, err)
}

type sleeper time.Duration

func (sleeper) Name() string { return "sleeper" }
func (s sleeper) Render(*scheme.Canvas, time.Duration, []event.Trigger) {
	time.Sleep(time.Duration(s))
}

func TestLastTimingsReadWhileRunning(t *testing.T) {
	e := newEngine(t)
	require.NoError(t, e.AddLayer(sleeper(time.Millisecond), layout.All()))

	done := make(chan struct{})
	polled := make(chan Timings)
	go func() {
		var seen Timings
		for {
			select {
			case <-done:
				polled <- seen
				return
			default:
				if l := e.Last(); l.TotalMS > 0 {
					seen = l
				}
			}
		}
	}()

	n := 0
	err := e.Run(context.Background(), time.Millisecond, func(layout.Frame) error {
		n++
		if n == 5 {
			e.Stop()
		}
		return nil
	})
	require.NoError(t, err)
	close(done)
	seen := <-polled

	assert.GreaterOrEqual(t, e.Last().TotalMS, 1.0)
	assert.GreaterOrEqual(t, e.Last().TotalMS, e.Last().RenderMS)
	assert.Greater(t, seen.TotalMS, 0.0)
}
