//go:build linux

package input

import (
	"context"
	"errors"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-keyglow/internal/event"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
)

type scriptedKeys struct {
	events []*evdev.InputEvent
	err    error
}

func (s *scriptedKeys) ReadOne() (*evdev.InputEvent, error) {
	if len(s.events) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *scriptedKeys) Close() error { return nil }

var stamp = time.Unix(1700000000, 250000*int64(time.Microsecond))

func keyEvent(typ evdev.EvType, code evdev.EvCode, value int32) *evdev.InputEvent {
	return &evdev.InputEvent{
		Time:  syscall.NsecToTimeval(stamp.UnixNano()),
		Type:  typ,
		Code:  code,
		Value: value,
	}
}

func TestEvdevKeyEvents(t *testing.T) {
	keys := &scriptedKeys{events: []*evdev.InputEvent{
		keyEvent(evdev.EV_MSC, evdev.MSC_SCAN, 30),
		keyEvent(evdev.EV_KEY, evdev.KEY_A, 1),
		keyEvent(evdev.EV_SYN, evdev.SYN_REPORT, 0),
		keyEvent(evdev.EV_KEY, evdev.KEY_A, 2), // autorepeat
		keyEvent(evdev.EV_KEY, evdev.KEY_A, 0),
		keyEvent(evdev.EV_KEY, evdev.KEY_102ND, 1), // not on this board
		keyEvent(evdev.EV_KEY, evdev.KEY_SPACE, 1),
	}}
	e := NewEvdev("test", layout.DuckyOne2RGB())
	e.open = func(string) (keyReader, error) { return keys, nil }
	var c collect
	require.NoError(t, e.Run(context.Background(), c.emit))

	require.Len(t, c.tr, 3)
	assert.Equal(t, event.Press("A", stamp), c.tr[0])
	assert.Equal(t, event.KeyReleased, c.tr[1].Kind)
	assert.Equal(t, layout.KeyAddress("Space"), c.tr[2].Key)
}

func TestEvdevReadError(t *testing.T) {
	e := NewEvdev("test", layout.DuckyOne2RGB())
	e.open = func(string) (keyReader, error) { return &scriptedKeys{err: syscall.ENODEV}, nil }
	err := e.Run(context.Background(), func(event.Trigger) {})
	assert.ErrorIs(t, err, syscall.ENODEV)
}

func TestEvdevOpenError(t *testing.T) {
	e := NewEvdev("missing", layout.DuckyOne2RGB())
	e.open = func(string) (keyReader, error) { return nil, errors.New("permission denied") }
	assert.Error(t, e.Run(context.Background(), func(event.Trigger) {}))
}

type caps struct {
	types []evdev.EvType
	keys  []evdev.EvCode
}

func (c caps) CapableTypes() []evdev.EvType { return c.types }

func (c caps) CapableEvents(t evdev.EvType) []evdev.EvCode {
	if t == evdev.EV_KEY {
		return c.keys
	}
	return nil
}

func TestIsKeyboard(t *testing.T) {
	full := caps{
		types: []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY, evdev.EV_MSC, evdev.EV_LED},
		keys:  []evdev.EvCode{evdev.KEY_ESC, evdev.KEY_A, evdev.KEY_Z, evdev.KEY_SPACE},
	}
	assert.True(t, isKeyboard(full))

	power := caps{types: []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY}, keys: []evdev.EvCode{evdev.KEY_POWER}}
	assert.False(t, isKeyboard(power))

	mouse := caps{types: []evdev.EvType{evdev.EV_SYN, evdev.EV_REL}}
	assert.False(t, isKeyboard(mouse))
}
