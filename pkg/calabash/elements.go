package calabash

import (
	"fmt"

	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
)

// Elements is the result of one query. It never refreshes; query again for
// current state.
type Elements struct {
	bridge *Bridge
	query  string
	items  []decode.Value
}

func newElements(b *Bridge, query string, v decode.Value) *Elements {
	items, _ := v.List()
	return &Elements{bridge: b, query: query, items: items}
}

// Query returns the query that produced the collection.
func (es *Elements) Query() string { return es.query }

// Len returns the number of matches.
func (es *Elements) Len() int { return len(es.items) }

// At returns a new Element for the i-th match, located by "<query> index:<i>".
func (es *Elements) At(i int) (*Element, error) {
	if i < 0 || i >= len(es.items) {
		return nil, core.ErrIndexOutOfRange.
			WithMessage(fmt.Sprintf("index %d out of range for %d elements", i, len(es.items))).
			WithDetails(map[string]interface{}{"query": es.query, "index": i, "size": len(es.items)})
	}
	desc, _ := es.items[i].Descriptor()
	return newElement(es.bridge, fmt.Sprintf("%s index:%d", es.query, i), desc), nil
}

// First returns the first match.
func (es *Elements) First() (*Element, error) {
	return es.At(0)
}

// All returns every match.
func (es *Elements) All() []*Element {
	out := make([]*Element, 0, len(es.items))
	for i := range es.items {
		el, _ := es.At(i)
		out = append(out, el)
	}
	return out
}
