package layout

import (
	"fmt"
	"strings"
)

// Mask selects the keys a layer may paint. The zero Mask selects nothing;
// All selects every key.
type Mask struct {
	all     bool
	include map[KeyAddress]struct{}
	exclude map[KeyAddress]struct{}
}

// All is the sentinel mask covering every key of any layout.
func All() Mask { return Mask{all: true} }

// Keys builds a mask from explicit addresses.
func Keys(addrs ...KeyAddress) Mask {
	m := Mask{include: make(map[KeyAddress]struct{}, len(addrs))}
	for _, a := range addrs {
		m.include[a] = struct{}{}
	}
	return m
}

func (m Mask) IsAll() bool { return m.all && len(m.exclude) == 0 }

// Contains reports whether addr is selected.
func (m Mask) Contains(addr KeyAddress) bool {
	if _, ok := m.exclude[addr]; ok {
		return false
	}
	if m.all {
		return true
	}
	_, ok := m.include[addr]
	return ok
}

// Union returns the keys selected by m or o.
func (m Mask) Union(o Mask) Mask {
	out := Mask{all: m.all || o.all, include: map[KeyAddress]struct{}{}, exclude: map[KeyAddress]struct{}{}}
	for a := range m.include {
		out.include[a] = struct{}{}
	}
	for a := range o.include {
		out.include[a] = struct{}{}
	}
	// a key stays excluded only if neither side selects it
	for a := range m.exclude {
		if !o.Contains(a) {
			out.exclude[a] = struct{}{}
		}
	}
	for a := range o.exclude {
		if !m.Contains(a) {
			out.exclude[a] = struct{}{}
		}
	}
	for a := range out.include {
		delete(out.exclude, a)
	}
	return out
}

// Without removes every key selected by o.
func (m Mask) Without(o Mask) Mask {
	if o.all {
		return Mask{}
	}
	out := Mask{all: m.all, include: map[KeyAddress]struct{}{}, exclude: map[KeyAddress]struct{}{}}
	for a := range m.include {
		if !o.Contains(a) {
			out.include[a] = struct{}{}
		}
	}
	for a := range m.exclude {
		out.exclude[a] = struct{}{}
	}
	for a := range o.include {
		out.exclude[a] = struct{}{}
	}
	return out
}

// Resolve turns the mask into a per-key selection for l. Naming a key that l
// does not have is an error.
func (m Mask) Resolve(l *Layout) ([]bool, error) {
	for a := range m.include {
		if _, ok := l.index[a]; !ok {
			return nil, fmt.Errorf("mask: %w %q", ErrUnknownKey, a)
		}
	}
	for a := range m.exclude {
		if _, ok := l.index[a]; !ok {
			return nil, fmt.Errorf("mask: %w %q", ErrUnknownKey, a)
		}
	}
	sel := make([]bool, len(l.keys))
	for i, k := range l.keys {
		sel[i] = m.Contains(k.Addr)
	}
	return sel, nil
}

// ParseMask reads a list of group names and key addresses. "all" selects every
// key; an entry prefixed with "-" is removed from what the earlier entries
// selected. An empty list selects every key.
func ParseMask(l *Layout, entries []string) (Mask, error) {
	if len(entries) == 0 {
		return All(), nil
	}
	m := Mask{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		remove := strings.HasPrefix(e, "-") && len(e) > 1
		if remove {
			e = e[1:]
		}
		var part Mask
		switch g, ok := l.Group(e); {
		case strings.EqualFold(e, "all"):
			part = All()
		case ok:
			part = Keys(g...)
		default:
			if _, ok := l.Index(KeyAddress(e)); !ok {
				return Mask{}, fmt.Errorf("mask entry %q: %w", e, ErrUnknownKey)
			}
			part = Keys(KeyAddress(e))
		}
		if remove {
			m = m.Without(part)
		} else {
			m = m.Union(part)
		}
	}
	return m, nil
}
