package input

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

// MIDI turns note on/off into key presses. Note BaseNote maps to the first
// key of the layout, the next note to the second, in packet order.
type MIDI struct {
	Port     string
	BaseNote uint8
	Layout   *layout.Layout

	listen func(port string, recv func(msg midi.Message, timestampms int32)) (func(), error)
}

func NewMIDI(port string, baseNote uint8, l *layout.Layout) *MIDI {
	return &MIDI{Port: port, BaseNote: baseNote, Layout: l, listen: listenPort}
}

func (m *MIDI) Name() string { return "midi:" + m.Port }

func (m *MIDI) Run(ctx context.Context, emit Emit) error {
	stop, err := m.listen(m.Port, func(msg midi.Message, _ int32) { m.handle(msg, emit) })
	if err != nil {
		return err
	}
	<-ctx.Done()
	stop()
	return nil
}

func (m *MIDI) handle(msg midi.Message, emit Emit) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		addr, ok := m.keyFor(key)
		if !ok {
			return
		}
		if velocity > 0 {
			emit(event.Press(addr, time.Now()))
		} else {
			emit(event.Release(addr, time.Now()))
		}
	case msg.GetNoteOff(&channel, &key, &velocity):
		if addr, ok := m.keyFor(key); ok {
			emit(event.Release(addr, time.Now()))
		}
	}
}

func (m *MIDI) keyFor(note uint8) (layout.KeyAddress, bool) {
	if note < m.BaseNote {
		return "", false
	}
	i := int(note - m.BaseNote)
	if i >= m.Layout.Len() {
		return "", false
	}
	return m.Layout.Key(i).Addr, true
}

// listenPort opens the first input port whose name contains port; an empty
// name takes the first port.
func listenPort(port string, recv func(msg midi.Message, timestampms int32)) (func(), error) {
	for _, in := range midi.GetInPorts() {
		if port == "" || strings.Contains(in.String(), port) {
			stop, err := midi.ListenTo(in, recv)
			if err != nil {
				return nil, fmt.Errorf("listen %s: %w", in.String(), err)
			}
			return stop, nil
		}
	}
	return nil, fmt.Errorf("midi input port %q not found", port)
}

// MIDIPorts names the available MIDI inputs.
func MIDIPorts() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}
