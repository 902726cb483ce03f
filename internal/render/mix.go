package render

import (
	"github.com/coreman2200/funtimes-keyglow/internal/color"
	"github.com/coreman2200/funtimes-keyglow/internal/layout"
	"github.com/coreman2200/funtimes-keyglow/internal/scheme"
)

// composite folds the keys a layer wrote into dst. Keys the layer left
// untouched keep the value from the layers below.
func composite(dst layout.Frame, src *scheme.Canvas, m Mode) {
	for i := 0; i < dst.Len(); i++ {
		c, ok := src.Written(i)
		if !ok {
			continue
		}
		switch m {
		case Overlay:
			if !c.IsBlack() {
				dst.Set(i, c)
			}
		case Add:
			dst.Set(i, color.Add(dst.At(i), c))
		case Subtract:
			dst.Set(i, color.Sub(dst.At(i), c))
		default:
			dst.Set(i, c)
		}
	}
}
