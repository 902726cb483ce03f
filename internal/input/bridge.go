// Package input turns external stimuli into triggers on the engine queue.
// Sources run on their own goroutines and never touch scheme state.
package input

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-keyglow/internal/event"
)

// Emit hands one trigger to the bridge.
type Emit func(event.Trigger)

// Source produces triggers until ctx is done.
type Source interface {
	Name() string
	Run(ctx context.Context, emit Emit) error
}

// Bridge fans the triggers of every source into one queue.
type Bridge struct {
	Queue *event.Queue
	// OnReject is called when a full queue refuses a key event.
	OnReject func(source string, dropped uint64)

	mu       sync.Mutex
	sources  []Source
	rejected uint64
}

func NewBridge(q *event.Queue) *Bridge { return &Bridge{Queue: q} }

func (b *Bridge) Add(s Source) {
	b.mu.Lock()
	b.sources = append(b.sources, s)
	b.mu.Unlock()
}

func (b *Bridge) Sources() []Source {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Source(nil), b.sources...)
}

// Rejected counts events refused by a full queue.
func (b *Bridge) Rejected() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejected
}

func (b *Bridge) emitter(name string) Emit {
	return func(t event.Trigger) {
		err := b.Queue.Push(t)
		if err == nil {
			return
		}
		b.mu.Lock()
		b.rejected++
		n := b.rejected
		b.mu.Unlock()
		if errors.Is(err, event.ErrQueueFull) {
			log.Warn().Str("source", name).Str("kind", t.Kind.String()).Uint64("rejected", n).Msg("trigger dropped")
		}
		if b.OnReject != nil {
			b.OnReject(name, n)
		}
	}
}

// Run starts every source and waits for all of them. A failing source is
// logged and does not stop the others.
func (b *Bridge) Run(ctx context.Context) error {
	srcs := b.Sources()
	errs := make([]error, len(srcs))
	var wg sync.WaitGroup
	for i, s := range srcs {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			log.Info().Str("source", s.Name()).Msg("input source started")
			if err := s.Run(ctx, b.emitter(s.Name())); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("source", s.Name()).Msg("input source failed")
				errs[i] = err
			}
		}(i, s)
	}
	wg.Wait()
	return errors.Join(errs...)
}
