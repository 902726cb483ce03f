// Package event carries input stimuli from producer goroutines to the render
// tick.
package event

import (
	"errors"
	"sync"
	"time"

	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

type Kind uint8

const (
	KeyPressed Kind = iota + 1
	KeyReleased
	AmplitudeSample
)

func (k Kind) String() string {
	switch k {
	case KeyPressed:
		return "key-pressed"
	case KeyReleased:
		return "key-released"
	case AmplitudeSample:
		return "amplitude"
	default:
		return "unknown"
	}
}

// Trigger is one stimulus. Key is set for key events, Bins for amplitude
// samples (normalised heights in [0,1], lowest frequency first).
type Trigger struct {
	Kind Kind
	Key  layout.KeyAddress
	Bins []float64
	At   time.Time
}

func Press(addr layout.KeyAddress, at time.Time) Trigger {
	return Trigger{Kind: KeyPressed, Key: addr, At: at}
}

func Release(addr layout.KeyAddress, at time.Time) Trigger {
	return Trigger{Kind: KeyReleased, Key: addr, At: at}
}

// Sample copies bins so the producer may reuse its buffer.
func Sample(bins []float64, at time.Time) Trigger {
	return Trigger{Kind: AmplitudeSample, Bins: append([]float64(nil), bins...), At: at}
}

var ErrQueueFull = errors.New("trigger queue full")

// DefaultQueueSize holds a few ticks worth of fast typing plus audio samples.
const DefaultQueueSize = 256

// Queue is a bounded FIFO shared by any number of producers and a single
// consumer. When full, the oldest amplitude sample is dropped to make room
// since a newer one supersedes it; key events are never dropped once queued.
type Queue struct {
	mu      sync.Mutex
	buf     []Trigger
	size    int
	dropped uint64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{buf: make([]Trigger, 0, size), size: size}
}

// Push appends t. It returns ErrQueueFull when the queue holds only key events.
func (q *Queue) Push(t Trigger) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) >= q.size {
		i := q.oldestSample()
		if i < 0 {
			q.dropped++
			return ErrQueueFull
		}
		q.buf = append(q.buf[:i], q.buf[i+1:]...)
		q.dropped++
	}
	q.buf = append(q.buf, t)
	return nil
}

func (q *Queue) oldestSample() int {
	for i, t := range q.buf {
		if t.Kind == AmplitudeSample {
			return i
		}
	}
	return -1
}

// Drain returns every queued trigger in arrival order and empties the queue.
func (q *Queue) Drain() []Trigger {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	out := q.buf
	q.buf = make([]Trigger, 0, q.size)
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Dropped counts triggers lost to a full queue.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
