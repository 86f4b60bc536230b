package calabash

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
)

// Element is one matched UI element. It holds the query that locates it and
// the fields captured when it was decoded; every action re-issues the query,
// so the captured fields can be stale.
type Element struct {
	bridge *Bridge
	query  string
	desc   decode.Descriptor
}

func newElement(b *Bridge, query string, desc decode.Descriptor) *Element {
	return &Element{bridge: b, query: query, desc: desc}
}

// Query returns the query locating this element.
func (e *Element) Query() string { return e.query }

// Descriptor returns the captured fields.
func (e *Element) Descriptor() decode.Descriptor { return e.desc }

// Class returns the element class, e.g. UIButton.
func (e *Element) Class() (string, bool) { return e.desc.String("class") }

// ID returns the accessibility identifier.
func (e *Element) ID() (string, bool) { return e.desc.String("id") }

// Label returns the accessibility label.
func (e *Element) Label() (string, bool) { return e.desc.String("label") }

// Description returns the view description.
func (e *Element) Description() (string, bool) { return e.desc.String("description") }

// Text returns the text field, present on text inputs and labels.
func (e *Element) Text() (string, bool) { return e.desc.String("text") }

// Rect returns the on-screen rect, or nil when it was not reported.
func (e *Element) Rect() *Rect {
	d, ok := e.desc.Descriptor("rect")
	if !ok {
		return nil
	}
	return rectFrom(d, true)
}

// Frame returns the frame in the parent's coordinates, or nil.
func (e *Element) Frame() *Rect {
	d, ok := e.desc.Descriptor("frame")
	if !ok {
		return nil
	}
	return rectFrom(d, false)
}

// Exists re-runs the query and reports whether it still matches.
func (e *Element) Exists(ctx context.Context) (bool, error) {
	return e.bridge.ElementExists(ctx, e.query)
}

// Touch taps the element.
func (e *Element) Touch(ctx context.Context) error {
	return e.bridge.Touch(ctx, e.query)
}

// Flash highlights the element.
func (e *Element) Flash(ctx context.Context) error {
	return e.bridge.Flash(ctx, e.query)
}

// PinchIn pinches in on the element.
func (e *Element) PinchIn(ctx context.Context) error {
	return e.bridge.Pinch(ctx, e.query, PinchIn)
}

// PinchOut pinches out on the element.
func (e *Element) PinchOut(ctx context.Context) error {
	return e.bridge.Pinch(ctx, e.query, PinchOut)
}

// Scroll scrolls the element.
func (e *Element) Scroll(ctx context.Context, dir Direction) error {
	return e.bridge.Scroll(ctx, e.query, dir)
}

// Swipe swipes on the element. opts may be nil.
func (e *Element) Swipe(ctx context.Context, dir Direction, opts *SwipeOptions) error {
	return e.bridge.Swipe(ctx, e.query, dir, opts)
}

// Children queries the element's direct children.
func (e *Element) Children(ctx context.Context) (*Elements, error) {
	return e.bridge.Query(ctx, e.query+" child *")
}

// ScrollToCell scrolls this table to the cell in opts.
func (e *Element) ScrollToCell(ctx context.Context, opts *ScrollOptions) error {
	return e.bridge.ScrollToCell(ctx, e.query, opts)
}

// ScrollThroughEachCell visits every cell of this table. See
// Bridge.ScrollThroughEachCell.
func (e *Element) ScrollThroughEachCell(ctx context.Context, opts *ScrollOptions, fn CellFunc) error {
	return e.bridge.ScrollThroughEachCell(ctx, e.query, opts, fn)
}

// PropertyValue reads a property through a query projection, e.g. "text"
// or "isEnabled". It returns Null when nothing matched.
func (e *Element) PropertyValue(ctx context.Context, property string) (decode.Value, error) {
	v, err := e.bridge.query(ctx, e.query, []interface{}{property})
	if err != nil {
		return decode.Null(), err
	}
	return v.First(), nil
}

// SetText replaces the text of an input without using the keyboard.
func (e *Element) SetText(ctx context.Context, text string) error {
	_, err := e.bridge.query(ctx, e.query, []interface{}{map[string]interface{}{"setText": text}})
	return err
}

// Inspect renders the captured fields.
func (e *Element) Inspect() string {
	return e.desc.Dump()
}

func (e *Element) String() string {
	return fmt.Sprintf("%s %s", e.query, e.desc.Dump())
}

// Equal compares frame, rect, id, label and class, skipping any field absent
// on either side. Two elements with no field populated on both sides are
// equal.
func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}

	if a, b := e.Frame(), o.Frame(); a != nil && b != nil && !a.Equal(b) {
		return false
	}
	if a, b := e.Rect(), o.Rect(); a != nil && b != nil && !a.Equal(b) {
		return false
	}

	fields := []func(*Element) (string, bool){(*Element).ID, (*Element).Label, (*Element).Class}
	for _, get := range fields {
		a, okA := get(e)
		b, okB := get(o)
		if okA && okB && a != b {
			return false
		}
	}
	return true
}
