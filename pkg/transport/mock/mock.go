// Package mock provides a scripted transport for testing without a device.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
	"github.com/devicelab-dev/calabash-bridge/pkg/transport"
)

// Call records one invocation.
type Call struct {
	Op   string
	Args transport.Args
}

// Handler computes the reply for one invocation.
type Handler func(ctx context.Context, args transport.Args) (*transport.Reply, error)

// Transport is an in-memory transport.Transport. Operations without a handler
// succeed with a null result.
//
// Calls are not serialized: MaxConcurrent reports the highest overlap seen so
// tests can check that callers keep a single call in flight.
type Transport struct {
	// Delay adds artificial latency per call
	Delay time.Duration

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	closed   bool
	inFlight int
	maxSeen  int
}

// New creates an empty mock transport.
func New() *Transport {
	return &Transport{handlers: make(map[string]Handler)}
}

// On installs a handler for op.
func (t *Transport) On(op string, h Handler) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[op] = h
	return t
}

// Reply makes op always succeed with result (plain Go data or decode.Value).
func (t *Transport) Reply(op string, result interface{}) *Transport {
	v := decode.FromAny(result)
	return t.On(op, func(context.Context, transport.Args) (*transport.Reply, error) {
		return &transport.Reply{Value: v}, nil
	})
}

// Sequence makes op return results in order, repeating the last one.
func (t *Transport) Sequence(op string, results ...interface{}) *Transport {
	values := make([]decode.Value, len(results))
	for i, r := range results {
		values[i] = decode.FromAny(r)
	}
	var mu sync.Mutex
	next := 0
	return t.On(op, func(context.Context, transport.Args) (*transport.Reply, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return &transport.Reply{}, nil
		}
		v := values[next]
		if next < len(values)-1 {
			next++
		}
		return &transport.Reply{Value: v}, nil
	})
}

// Fail makes op fail with a remote error carrying reason.
func (t *Transport) Fail(op, reason string) *Transport {
	return t.On(op, func(context.Context, transport.Args) (*transport.Reply, error) {
		return nil, &transport.RemoteError{Op: op, Status: 500, Reason: reason}
	})
}

// Invoke records the call and runs the handler for op.
func (t *Transport) Invoke(ctx context.Context, op string, args transport.Args) (*transport.Reply, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, transport.ErrClosed
	}
	t.calls = append(t.calls, Call{Op: op, Args: args})
	h := t.handlers[op]
	t.inFlight++
	if t.inFlight > t.maxSeen {
		t.maxSeen = t.inFlight
	}
	delay := t.Delay
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inFlight--
		t.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}
	if h == nil {
		return &transport.Reply{}, nil
	}
	return h(ctx, args)
}

// Close marks the transport closed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// Ops returns the recorded operation names in order.
func (t *Transport) Ops() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ops := make([]string, len(t.calls))
	for i, c := range t.calls {
		ops[i] = c.Op
	}
	return ops
}

// CallCount returns how many times op was invoked.
func (t *Transport) CallCount(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call to op.
func (t *Transport) LastCall(op string) (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.calls) - 1; i >= 0; i-- {
		if t.calls[i].Op == op {
			return t.calls[i], true
		}
	}
	return Call{}, false
}

// MaxConcurrent returns the highest number of overlapping calls observed.
func (t *Transport) MaxConcurrent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxSeen
}
