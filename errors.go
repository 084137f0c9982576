package solo

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateRegistration indicates Acquire was called more than once.
	// Callbacks may be registered exactly once; this is a programming error,
	// not something to recover from.
	ErrDuplicateRegistration = errors.New("callbacks already registered, acquire may only be called once")
	// ErrStopped indicates the Negotiator was stopped while it was still
	// negotiating. This state is terminal.
	ErrStopped = errors.New("the negotiator has been stopped")
)

// TransportError is a failure talking to the other instance: connecting to,
// writing to or reading from a peer, or accepting peers at all.
type TransportError struct {
	// Op is one of "dial", "write", "read" or "accept".
	Op   string
	Addr string
	Err  error
	// BindErr is the last bind failure that made this process consider itself
	// a duplicate, if any. When the handshake fails because nothing is
	// listening, it usually means the port is held by something other than
	// an original.
	BindErr error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.BindErr != nil {
		msg += fmt.Sprintf(" (after bind failure: %v)", e.BindErr)
	}
	return msg
}

// Cause allows errors.Cause to find the underlying error.
func (e *TransportError) Cause() error { return e.Err }

func (e *TransportError) Unwrap() error { return e.Err }
