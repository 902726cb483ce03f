package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/scheme"
)

// State is the engine lifecycle: Idle → Running → Stopping → Stopped.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ErrNotIdle is returned when layers are added or Run is called after the
// engine has started.
var ErrNotIdle = errors.New("engine not idle")

// Mode is how a layer's written keys combine with the layers below.
type Mode int

const (
	// Overwrite replaces the value below for every key the layer writes.
	Overwrite Mode = iota
	// Overlay replaces the value below unless the written colour is black.
	Overlay
	// Add sums channel-wise with saturation.
	Add
	// Subtract removes the written colour from the value below.
	Subtract
)

var modeNames = map[Mode]string{Overwrite: "overwrite", Overlay: "overlay", Add: "add", Subtract: "subtract"}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode reads a mode name; the empty string is Overwrite.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Overwrite, nil
	}
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return Overwrite, fmt.Errorf("unknown layer mode %q", s)
}

// Layer is one scheme with its mask. Z-order is the order layers were added.
type Layer struct {
	Name   string
	Scheme scheme.Scheme
	Mask   layout.Mask
	Mode   Mode

	canvas *scheme.Canvas
}

type LayerOption func(*Layer)

func WithMode(m Mode) LayerOption { return func(l *Layer) { l.Mode = m } }

func WithName(name string) LayerOption { return func(l *Layer) { l.Name = name } }
