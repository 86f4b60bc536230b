package calabash

import (
	"fmt"

	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
)

// Rect is an element's bounds. Frames never carry a center.
type Rect struct {
	X       int
	Y       int
	Width   int
	Height  int
	CenterX *int
	CenterY *int
}

// rectFrom decodes a rect mapping. Missing coordinates read as zero.
func rectFrom(d decode.Descriptor, withCenter bool) *Rect {
	r := &Rect{}
	r.X, _ = d.Int("x")
	r.Y, _ = d.Int("y")
	r.Width, _ = d.Int("width")
	r.Height, _ = d.Int("height")
	if withCenter {
		if cx, ok := d.Int("center_x"); ok {
			r.CenterX = &cx
		}
		if cy, ok := d.Int("center_y"); ok {
			r.CenterY = &cy
		}
	}
	return r
}

// Equal compares every coordinate, including whether a center is present.
func (r *Rect) Equal(o *Rect) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.X == o.X && r.Y == o.Y &&
		r.Width == o.Width && r.Height == o.Height &&
		intPtrEqual(r.CenterX, o.CenterX) &&
		intPtrEqual(r.CenterY, o.CenterY)
}

func (r *Rect) String() string {
	if r == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("{x=%d, y=%d, width=%d, height=%d", r.X, r.Y, r.Width, r.Height)
	if r.CenterX != nil && r.CenterY != nil {
		s += fmt.Sprintf(", center_x=%d, center_y=%d", *r.CenterX, *r.CenterY)
	}
	return s + "}"
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
