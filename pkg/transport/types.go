// Package transport sends named operations to the Calabash server.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
)

// Args is the argument mapping of one remote operation.
type Args map[string]interface{}

// Embed is a screenshot the server reports having captured.
type Embed struct {
	Path string
	Type string
	Name string
}

// Reply is the decoded result of a successful operation.
type Reply struct {
	Value  decode.Value
	Embeds []Embed
}

// Transport invokes operations on one remote automation session.
// Implementations serialize invocations: at most one is in flight at a time.
type Transport interface {
	Invoke(ctx context.Context, op string, args Args) (*Reply, error)
	Close() error
}

// ErrClosed is returned by Invoke after Close.
var ErrClosed = errors.New("session closed")

// RemoteError is a failure raised by the server itself.
type RemoteError struct {
	Op      string
	Status  int
	Reason  string
	Details string
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = fmt.Sprintf("server error %d", e.Status)
	}
	if e.Details != "" {
		msg += "\n" + e.Details
	}
	return msg
}

// MarshalError is a local failure to serialize one argument. The remote
// call is never attempted.
type MarshalError struct {
	Op  string
	Arg string
	Err error
}

// Error implements the error interface
func (e *MarshalError) Error() string {
	return fmt.Sprintf("marshal argument %q of %s: %v", e.Arg, e.Op, e.Err)
}

// Unwrap returns the encoder error.
func (e *MarshalError) Unwrap() error {
	return e.Err
}
