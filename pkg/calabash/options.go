package calabash

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/calabash-bridge/pkg/transport"
)

// Direction of a scroll, swipe or rotation.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection converts "up", "down", "left" or "right".
func ParseDirection(s string) (Direction, error) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// PinchMode selects pinching in or out.
type PinchMode int

const (
	PinchIn PinchMode = iota
	PinchOut
)

func (m PinchMode) String() string {
	if m == PinchOut {
		return "out"
	}
	return "in"
}

// Force is the strength of a swipe.
type Force int

const (
	ForceNormal Force = iota
	ForceLight
	ForceStrong
)

func (f Force) String() string {
	switch f {
	case ForceLight:
		return "light"
	case ForceStrong:
		return "strong"
	}
	return "normal"
}

// ScrollPosition is where a cell ends up after scrolling to it.
type ScrollPosition int

const (
	PositionTop ScrollPosition = iota
	PositionMiddle
	PositionBottom
)

func (p ScrollPosition) String() string {
	switch p {
	case PositionMiddle:
		return "middle"
	case PositionBottom:
		return "bottom"
	}
	return "top"
}

// RotateDirection turns the device left or right.
type RotateDirection int

const (
	RotateLeft RotateDirection = iota
	RotateRight
)

func (r RotateDirection) String() string {
	if r == RotateRight {
		return "right"
	}
	return "left"
}

// Offset is a point offset used by swipes and playback.
type Offset struct {
	X int
	Y int
}

func (o Offset) args() map[string]interface{} {
	return map[string]interface{}{"x": o.X, "y": o.Y}
}

// SwipeOptions tune a swipe gesture.
type SwipeOptions struct {
	Force  Force
	Offset *Offset
}

// ScrollOptions select a table cell and how to reveal it.
type ScrollOptions struct {
	Row      int
	Section  int
	Position ScrollPosition
	Animate  bool

	// PostScroll pauses after each scroll while iterating cells.
	PostScroll time.Duration
}

// DefaultScrollOptions animates to the top of the first cell.
func DefaultScrollOptions() *ScrollOptions {
	return &ScrollOptions{Position: PositionTop, Animate: true}
}

// PlaybackOptions anchor a recorded gesture.
type PlaybackOptions struct {
	Query  string
	Offset *Offset
}

func swipeArgs(query string, dir Direction, opts *SwipeOptions) transport.Args {
	options := map[string]interface{}{"query": query}
	if opts != nil {
		options["force"] = opts.Force.String()
		if opts.Offset != nil {
			options["offset"] = opts.Offset.args()
		}
	}
	return transport.Args{"direction": dir.String(), "options": options}
}

func scrollArgs(query string, opts *ScrollOptions) transport.Args {
	args := transport.Args{"query": query}
	if opts != nil {
		args["row"] = opts.Row
		args["section"] = opts.Section
		args["scroll_position"] = opts.Position.String()
		args["animate"] = opts.Animate
	}
	return args
}

func playbackArgs(name, events string, opts *PlaybackOptions) transport.Args {
	options := map[string]interface{}{}
	if opts != nil {
		if opts.Query != "" {
			options["query"] = opts.Query
		}
		if opts.Offset != nil {
			options["offset"] = opts.Offset.args()
		}
	}
	return transport.Args{"name": name, "events": events, "options": options}
}
