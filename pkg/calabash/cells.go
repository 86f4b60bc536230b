package calabash

import (
	"context"
	"errors"
	"fmt"

	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
)

// CellFunc is called for each table cell. el is nil when the cell has no
// label to match. Returning an error stops the iteration.
type CellFunc func(ctx context.Context, row, section int, el *Element) error

// ScrollThroughEachCell scrolls the table matching query to every cell in
// order and calls fn after each scroll. The next cell is not visited until
// fn returns; an error from fn aborts and is returned as is. When query is
// empty "tableView" is used.
func (b *Bridge) ScrollThroughEachCell(ctx context.Context, query string, opts *ScrollOptions, fn CellFunc) error {
	if err := b.ensureNotDisposed(); err != nil {
		return err
	}
	if fn == nil {
		return core.ErrInvalidArgument.WithMessage("cell callback is required")
	}
	if query == "" {
		query = "tableView"
	}
	logger.Info("Starting to scroll through each cells for query - %s", query)

	scroll := DefaultScrollOptions()
	if opts != nil {
		cp := *opts
		scroll = &cp
	}

	sections, err := b.count(ctx, query, "numberOfSections")
	if err != nil {
		return err
	}
	for sec := 0; sec < sections; sec++ {
		rows, err := b.count(ctx, query, map[string]interface{}{"numberOfRowsInSection": sec})
		if err != nil {
			return err
		}
		for row := 0; row < rows; row++ {
			scroll.Row, scroll.Section = row, sec
			if err := b.ScrollToCell(ctx, query, scroll); err != nil {
				return err
			}
			b.sleep(ctx, scroll.PostScroll)

			if err := b.visitCell(ctx, row, sec, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bridge) visitCell(ctx context.Context, row, sec int, fn CellFunc) error {
	q := fmt.Sprintf("tableViewCell indexPath:%d,%d label", row, sec)
	elements, err := b.Query(ctx, q)
	if err != nil {
		return err
	}

	var el *Element
	if elements.Len() > 0 {
		el, _ = elements.First()
	}
	if err := fn(ctx, row, sec, el); err != nil {
		var ee *core.ExecutionError
		if !errors.As(err, &ee) {
			logger.Error("Cell callback failed at row %d section %d: %v", row, sec, err)
		}
		return err
	}
	return nil
}

// count reads an integer projection from the first match of query.
func (b *Bridge) count(ctx context.Context, query string, projection interface{}) (int, error) {
	v, err := b.query(ctx, query, []interface{}{projection})
	if err != nil {
		return 0, err
	}
	n, ok := v.First().Int()
	if !ok {
		return 0, core.ErrActionFailed.
			WithMessage(fmt.Sprintf("Failed to scroll through each cell for query '%s'", query)).
			WithDetails(map[string]interface{}{"projection": projection, "result": v.String()})
	}
	return n, nil
}
