//go:build !linux

package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

// Evdev is unavailable off linux; Run fails at once.
type Evdev struct {
	Path   string
	Layout *layout.Layout
}

func NewEvdev(path string, l *layout.Layout) *Evdev { return &Evdev{Path: path, Layout: l} }

func (e *Evdev) Name() string { return "evdev:" + e.Path }

func (e *Evdev) Run(context.Context, Emit) error {
	return fmt.Errorf("evdev %s: %w", e.Path, errors.ErrUnsupported)
}

// KeyboardDevices is empty where evdev is unavailable.
func KeyboardDevices() []string { return nil }
