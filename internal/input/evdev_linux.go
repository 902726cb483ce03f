//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

const (
	keyReleased = 0
	keyPressed  = 1
)

type keyReader interface {
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

func openDevice(path string) (keyReader, error) {
	d, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Evdev reads key events from a /dev/input event node. Autorepeat is ignored
// and codes the layout does not carry are skipped.
type Evdev struct {
	Path   string
	Layout *layout.Layout

	open func(path string) (keyReader, error)
}

func NewEvdev(path string, l *layout.Layout) *Evdev {
	return &Evdev{Path: path, Layout: l, open: openDevice}
}

func (e *Evdev) Name() string { return "evdev:" + e.Path }

func (e *Evdev) Run(ctx context.Context, emit Emit) error {
	d, err := e.open(e.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Path, err)
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		d.Close()
	}()
	for {
		ev, err := d.ReadOne()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", e.Path, err)
		}
		e.handle(ev, emit)
	}
}

func (e *Evdev) handle(ev *evdev.InputEvent, emit Emit) {
	if ev.Type != evdev.EV_KEY || (ev.Value != keyPressed && ev.Value != keyReleased) {
		return
	}
	addr, ok := LinuxKeys[uint16(ev.Code)]
	if !ok {
		log.Debug().Uint16("code", uint16(ev.Code)).Msg("unmapped key code")
		return
	}
	if _, ok := e.Layout.Index(addr); !ok {
		return
	}
	at := time.Unix(ev.Time.Unix())
	if ev.Value == keyPressed {
		emit(event.Press(addr, at))
	} else {
		emit(event.Release(addr, at))
	}
}

// KeyboardDevices lists the event nodes that report letter and space keys.
// Nodes that cannot be opened are skipped.
func KeyboardDevices() []string {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		log.Debug().Err(err).Msg("list input devices")
		return nil
	}
	var out []string
	for _, p := range paths {
		d, err := evdev.Open(p.Path)
		if err != nil {
			continue
		}
		if isKeyboard(d) {
			out = append(out, p.Path)
		}
		d.Close()
	}
	return out
}

type capabilities interface {
	CapableTypes() []evdev.EvType
	CapableEvents(t evdev.EvType) []evdev.EvCode
}

func isKeyboard(d capabilities) bool {
	hasKey := false
	for _, t := range d.CapableTypes() {
		if t == evdev.EV_KEY {
			hasKey = true
			break
		}
	}
	if !hasKey {
		return false
	}
	need := map[evdev.EvCode]bool{evdev.KEY_A: true, evdev.KEY_Z: true, evdev.KEY_SPACE: true}
	for _, c := range d.CapableEvents(evdev.EV_KEY) {
		delete(need, c)
	}
	return len(need) == 0
}
