// Package layout describes a keyboard's addressable keys: where each key's
// colour triple lives in the device packets and where the key sits on the
// board for spatial effects.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedLayout marks a static layout defect: a duplicate address, a
// slot claimed twice, or a key that does not fit the packet shape.
var ErrMalformedLayout = errors.New("malformed layout")

// ErrUnknownKey is returned when a mask or trigger names a key the layout lacks.
var ErrUnknownKey = errors.New("unknown key")

// KeyAddress names one physical key, e.g. "Escape", "F1", "N7".
type KeyAddress string

// Key is one entry of the layout table.
type Key struct {
	Addr   KeyAddress
	Packet int // data packet index
	Offset int // byte offset of the red channel inside the packet payload

	// Grid position, row 0 is the top row. Only valid when HasPos is set.
	Row, Col int
	HasPos   bool
}

// X and Y give the key position in key units.
func (k Key) X() float64 { return float64(k.Col) }
func (k Key) Y() float64 { return float64(k.Row) }

// Layout is an immutable key table. Key indexes are stable and are the order
// frames store colours in.
type Layout struct {
	name   string
	keys   []Key
	index  map[KeyAddress]int
	groups map[string][]KeyAddress

	rows, cols int
	columns    [][]int
}

// New validates keys and builds a layout. Groups name reusable masks.
func New(name string, keys []Key, groups map[string][]KeyAddress) (*Layout, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s has no keys", ErrMalformedLayout, name)
	}
	l := &Layout{
		name:   name,
		keys:   append([]Key(nil), keys...),
		index:  make(map[KeyAddress]int, len(keys)),
		groups: map[string][]KeyAddress{},
	}
	type slot struct{ packet, offset int }
	slots := make(map[slot]KeyAddress, len(keys))
	cells := map[[2]int]KeyAddress{}
	for i, k := range l.keys {
		if k.Addr == "" {
			return nil, fmt.Errorf("%w: key %d has no address", ErrMalformedLayout, i)
		}
		if _, dup := l.index[k.Addr]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformedLayout, k.Addr)
		}
		if k.Packet < 0 || k.Offset < 0 {
			return nil, fmt.Errorf("%w: key %q has negative slot (%d, %#x)", ErrMalformedLayout, k.Addr, k.Packet, k.Offset)
		}
		s := slot{k.Packet, k.Offset}
		if other, dup := slots[s]; dup {
			return nil, fmt.Errorf("%w: keys %q and %q share packet %d offset %#x", ErrMalformedLayout, other, k.Addr, k.Packet, k.Offset)
		}
		slots[s] = k.Addr
		l.index[k.Addr] = i
		if !k.HasPos {
			continue
		}
		if k.Row < 0 || k.Col < 0 {
			return nil, fmt.Errorf("%w: key %q has negative position", ErrMalformedLayout, k.Addr)
		}
		c := [2]int{k.Row, k.Col}
		if other, dup := cells[c]; dup {
			return nil, fmt.Errorf("%w: keys %q and %q share grid cell %v", ErrMalformedLayout, other, k.Addr, c)
		}
		cells[c] = k.Addr
		if k.Row+1 > l.rows {
			l.rows = k.Row + 1
		}
		if k.Col+1 > l.cols {
			l.cols = k.Col + 1
		}
	}
	for g, addrs := range groups {
		for _, a := range addrs {
			if _, ok := l.index[a]; !ok {
				return nil, fmt.Errorf("%w: group %q: %w %q", ErrMalformedLayout, g, ErrUnknownKey, a)
			}
		}
		l.groups[strings.ToLower(g)] = append([]KeyAddress(nil), addrs...)
	}
	l.columns = make([][]int, l.cols)
	for i, k := range l.keys {
		if k.HasPos {
			l.columns[k.Col] = append(l.columns[k.Col], i)
		}
	}
	for _, col := range l.columns {
		sort.Slice(col, func(a, b int) bool { return l.keys[col[a]].Row > l.keys[col[b]].Row })
	}
	return l, nil
}

func (l *Layout) Name() string { return l.name }

// Len is the number of keys.
func (l *Layout) Len() int { return len(l.keys) }

// Key returns the key at index i.
func (l *Layout) Key(i int) Key { return l.keys[i] }

// Keys returns a copy of the key table in index order.
func (l *Layout) Keys() []Key { return append([]Key(nil), l.keys...) }

// Index resolves an address to its key index.
func (l *Layout) Index(addr KeyAddress) (int, bool) {
	i, ok := l.index[addr]
	return i, ok
}

// Grid reports the number of rows and columns spanned by positioned keys.
func (l *Layout) Grid() (rows, cols int) { return l.rows, l.cols }

// Column returns the key indexes of grid column c ordered bottom row first.
func (l *Layout) Column(c int) []int {
	if c < 0 || c >= len(l.columns) {
		return nil
	}
	return l.columns[c]
}

// Group returns the addresses registered under a group name.
func (l *Layout) Group(name string) ([]KeyAddress, bool) {
	g, ok := l.groups[strings.ToLower(name)]
	return g, ok
}

// Groups lists group names in sorted order.
func (l *Layout) Groups() []string {
	out := make([]string, 0, len(l.groups))
	for g := range l.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Packets is the number of data packets the layout spans.
func (l *Layout) Packets() int {
	n := 0
	for _, k := range l.keys {
		if k.Packet+1 > n {
			n = k.Packet + 1
		}
	}
	return n
}
