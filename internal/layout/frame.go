package layout

import "github.com/coreman2200/funtimes-keyglow/internal/color"

// Frame holds one colour for every key of a layout, in key index order.
type Frame struct {
	layout *Layout
	colors []color.Color
}

// NewFrame returns an all-black frame for l.
func NewFrame(l *Layout) Frame {
	return Frame{layout: l, colors: make([]color.Color, l.Len())}
}

func (f Frame) Layout() *Layout { return f.layout }
func (f Frame) Len() int        { return len(f.colors) }

func (f Frame) At(i int) color.Color { return f.colors[i] }

func (f Frame) Set(i int, c color.Color) { f.colors[i] = c }

// Color looks a key up by address.
func (f Frame) Color(addr KeyAddress) (color.Color, bool) {
	i, ok := f.layout.Index(addr)
	if !ok {
		return color.Black, false
	}
	return f.colors[i], true
}

// Colors returns a copy of the colour slice.
func (f Frame) Colors() []color.Color { return append([]color.Color(nil), f.colors...) }

func (f Frame) Clone() Frame { return Frame{layout: f.layout, colors: f.Colors()} }

// Equal reports whether both frames carry identical colours for the same layout.
func (f Frame) Equal(o Frame) bool {
	if f.layout != o.layout || len(f.colors) != len(o.colors) {
		return false
	}
	for i := range f.colors {
		if f.colors[i] != o.colors[i] {
			return false
		}
	}
	return true
}
