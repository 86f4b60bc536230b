package calabash

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
	"github.com/devicelab-dev/calabash-bridge/pkg/transport"
	"github.com/devicelab-dev/calabash-bridge/pkg/transport/mock"
)

// tableTransport serves a table with the given row count per section. The
// cell at (1, 0) has no label.
func tableTransport(rows ...int) *mock.Transport {
	return mock.New().On("query", func(_ context.Context, args transport.Args) (*transport.Reply, error) {
		projections := args["projections"].([]interface{})
		if len(projections) == 1 {
			switch p := projections[0].(type) {
			case string:
				if p == "numberOfSections" {
					return &transport.Reply{Value: decode.List(decode.Int(len(rows)))}, nil
				}
			case map[string]interface{}:
				sec := p["numberOfRowsInSection"].(int)
				return &transport.Reply{Value: decode.List(decode.Int(rows[sec]))}, nil
			}
		}

		var row, sec int
		if _, err := fmt.Sscanf(args["query"].(string), "tableViewCell indexPath:%d,%d label", &row, &sec); err != nil {
			return nil, &transport.RemoteError{Op: "query", Reason: "unexpected query"}
		}
		if row == 1 && sec == 0 {
			return &transport.Reply{Value: decode.List()}, nil
		}
		return &transport.Reply{Value: decode.FromAny([]interface{}{
			map[string]interface{}{"label": fmt.Sprintf("cell %d-%d", sec, row)},
		})}, nil
	})
}

type visit struct {
	row, sec int
	label    string
}

func TestScrollThroughEachCell_VisitsInOrder(t *testing.T) {
	tr := tableTransport(2, 1)
	b := newTestBridge(t, tr)
	slept := recordSleeps(b)

	var visits []visit
	err := b.ScrollThroughEachCell(context.Background(), "tableView", &ScrollOptions{
		Position:   PositionMiddle,
		PostScroll: 100 * time.Millisecond,
	}, func(_ context.Context, row, sec int, el *Element) error {
		v := visit{row: row, sec: sec}
		if el != nil {
			v.label, _ = el.Label()
		}
		visits = append(visits, v)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []visit{
		{0, 0, "cell 0-0"},
		{1, 0, ""},
		{0, 1, "cell 1-0"},
	}, visits)

	var scrolled [][2]interface{}
	for _, c := range tr.Calls() {
		if c.Op == "scroll_to_cell" {
			assert.Equal(t, "middle", c.Args["scroll_position"])
			scrolled = append(scrolled, [2]interface{}{c.Args["row"], c.Args["section"]})
		}
	}
	assert.Equal(t, [][2]interface{}{{0, 0}, {1, 0}, {0, 1}}, scrolled)

	pauses := 0
	for _, d := range *slept {
		if d == 100*time.Millisecond {
			pauses++
		}
	}
	assert.Equal(t, 3, pauses)
}

func TestScrollThroughEachCell_CallbackErrorAborts(t *testing.T) {
	tr := tableTransport(3)
	b := newTestBridge(t, tr)
	stop := errors.New("seen enough")

	calls := 0
	err := b.ScrollThroughEachCell(context.Background(), "", nil, func(context.Context, int, int, *Element) error {
		calls++
		return stop
	})

	assert.Same(t, stop, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, tr.CallCount("scroll_to_cell"))

	first := tr.Calls()[0]
	assert.Equal(t, "tableView", first.Args["query"])
}

func TestScrollThroughEachCell_ScrollFailure(t *testing.T) {
	tr := tableTransport(2)
	tr.Fail("scroll_to_cell", "table is gone")
	b := newTestBridge(t, tr)

	err := b.ScrollThroughEachCell(context.Background(), "tableView", nil, func(context.Context, int, int, *Element) error {
		t.Error("callback must not run")
		return nil
	})
	assert.True(t, errors.Is(err, core.ErrActionFailed))
	assert.Contains(t, err.Error(), "table is gone")
}

func TestScrollThroughEachCell_BadSectionCount(t *testing.T) {
	tr := mock.New().Reply("query", []interface{}{"many"})
	b := newTestBridge(t, tr)

	err := b.ScrollThroughEachCell(context.Background(), "tableView", nil, func(context.Context, int, int, *Element) error { return nil })
	assert.True(t, errors.Is(err, core.ErrActionFailed))
}

func TestScrollThroughEachCell_RequiresCallback(t *testing.T) {
	b := newTestBridge(t, mock.New())
	err := b.ScrollThroughEachCell(context.Background(), "tableView", nil, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
}

func TestElement_ScrollThroughEachCell(t *testing.T) {
	tr := tableTransport(1)
	b := newTestBridge(t, tr)
	table := newElement(b, "tableView index:0", decode.Descriptor{})

	visited := 0
	require.NoError(t, table.ScrollThroughEachCell(context.Background(), nil, func(context.Context, int, int, *Element) error {
		visited++
		return nil
	}))
	assert.Equal(t, 1, visited)

	call, _ := tr.LastCall("scroll_to_cell")
	assert.Equal(t, "tableView index:0", call.Args["query"])
}
