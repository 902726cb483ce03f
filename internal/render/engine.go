package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/scheme"
)

// Timings are the durations of the last render in milliseconds.
type Timings struct {
	RenderMS float64
	PostMS   float64
	TotalMS  float64
}

// FrameSink receives each composited frame on the tick goroutine. An error
// ends the run.
type FrameSink func(layout.Frame) error

// Engine owns the ordered layers, drains triggers once per tick and composites
// every layer into a fresh frame.
type Engine struct {
	Layout *layout.Layout
	Queue  *event.Queue

	// OnDrop, when set, is called on the tick goroutine after a tick overran
	// its interval.
	OnDrop func(elapsed, budget time.Duration)

	mu      sync.Mutex
	state   State
	stop    chan struct{}
	layers  []*Layer
	post    PostPipeline
	last    time.Time
	timings Timings

	frames  atomic.Uint64
	dropped atomic.Uint64
}

// NewEngine returns an idle engine with no layers. A nil queue gets a default one.
func NewEngine(l *layout.Layout, q *event.Queue) (*Engine, error) {
	if l == nil || l.Len() == 0 {
		return nil, errors.New("engine needs a non-empty layout")
	}
	if q == nil {
		q = event.NewQueue(event.DefaultQueueSize)
	}
	return &Engine{Layout: l, Queue: q, stop: make(chan struct{})}, nil
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// AddLayer puts s on top of the existing layers. Only allowed while idle.
func (e *Engine) AddLayer(s scheme.Scheme, m layout.Mask, opts ...LayerOption) error {
	if s == nil {
		return errors.New("nil scheme")
	}
	sel, err := m.Resolve(e.Layout)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle {
		return ErrNotIdle
	}
	l := &Layer{Name: s.Name(), Scheme: s, Mask: m, canvas: scheme.NewCanvas(e.Layout, sel)}
	for _, o := range opts {
		o(l)
	}
	e.layers = append(e.layers, l)
	return nil
}

// Layers returns the layers in z-order.
func (e *Engine) Layers() []*Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Layer(nil), e.layers...)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Last returns the timings of the most recent render. Safe from any goroutine.
func (e *Engine) Last() Timings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timings
}

// Frames and Dropped count produced and overrun ticks.
func (e *Engine) Frames() uint64  { return e.frames.Load() }
func (e *Engine) Dropped() uint64 { return e.dropped.Load() }

// Tick renders the frame for wall time now. Elapsed time is measured from
// the previous tick; the first tick sees zero.
func (e *Engine) Tick(now time.Time) layout.Frame {
	var dt time.Duration
	if !e.last.IsZero() && now.After(e.last) {
		dt = now.Sub(e.last)
	}
	e.last = now
	return e.RenderOnce(dt)
}

// RenderOnce drains pending triggers and composites every layer after dt has
// elapsed.
func (e *Engine) RenderOnce(dt time.Duration) layout.Frame {
	start := time.Now()
	triggers := e.Queue.Drain()

	frame := layout.NewFrame(e.Layout)
	for _, l := range e.layers {
		l.canvas.Reset()
		l.Scheme.Render(l.canvas, dt, triggers)
		composite(frame, l.canvas, l.Mode)
	}
	var t Timings
	t.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0

	postStart := time.Now()
	e.post.apply(frame)
	t.PostMS = float64(time.Since(postStart).Microseconds()) / 1000.0
	t.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0

	e.mu.Lock()
	e.timings = t
	e.mu.Unlock()
	e.frames.Add(1)
	return frame
}

// Run ticks every interval until Stop, ctx cancellation or a sink error.
// Stop and cancellation are checked at the top of each tick.
func (e *Engine) Run(ctx context.Context, interval time.Duration, sink FrameSink) error {
	if interval <= 0 {
		return errors.New("tick interval must be positive")
	}
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return ErrNotIdle
	}
	e.state = Running
	e.mu.Unlock()
	defer e.setState(Stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.stop:
			return nil
		default:
		}

		start := time.Now()
		f := e.Tick(start)
		if sink != nil {
			if err := sink(f); err != nil {
				return err
			}
		}
		if el := time.Since(start); el > interval {
			n := e.dropped.Add(1)
			log.Warn().Dur("elapsed", el).Dur("budget", interval).Uint64("dropped", n).Msg("dropped frame")
			if e.OnDrop != nil {
				e.OnDrop(el, interval)
			}
		}

		select {
		case <-ctx.Done():
		case <-e.stop:
		case <-ticker.C:
		}
	}
}

// Stop asks a running engine to finish after the current tick. Stopping an
// idle engine moves it straight to Stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case Idle:
		e.state = Stopped
	case Running:
		e.state = Stopping
	default:
		return
	}
	close(e.stop)
}
