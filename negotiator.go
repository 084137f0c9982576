package solo

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/ngrok/solo/internal/proto"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

// Role is what a process turned out to be after negotiating.
type Role string

const (
	// RoleUndetermined is the role before negotiation has resolved, while a
	// replacing duplicate renegotiates, and after Stop.
	RoleUndetermined Role = "undetermined"
	// RoleOriginal is the role of the process holding the instance port.
	RoleOriginal Role = "original"
	// RoleDuplicate is the role of a process that found an original running.
	RoleDuplicate Role = "duplicate"
)

// Negotiator determines whether the calling process is the original instance
// or a duplicate, and drives the handover between the two.
type Negotiator struct {
	cfg Config

	registered atomic.Bool
	cb         Callbacks
	stopOnce   sync.Once

	stateLock sync.Mutex
	state     negotiatorState
	// ln is the listening resource. It is only set while the state is
	// original, and is closed by Stop.
	ln          net.Listener
	listenerErr error
	// conn is the duplicate connection the listener is reading from, if
	// any. Stop closes it so a stalled duplicate cannot hold up the release.
	conn net.Conn

	// listenerDoneC is closed when the listener stops accepting duplicates,
	// or on Stop if this process never became the original.
	listenerDoneC chan struct{}

	l log15.Logger

	// mocks
	clock clock.Clock
	net   netIface
}

// Option is an option function for Negotiator.
type Option func(n *Negotiator)

// WithLogger configures the logger to use for negotiation.
// By default, nothing will be logged.
func WithLogger(l log15.Logger) Option {
	return func(n *Negotiator) {
		n.l = l
	}
}

// New constructs a Negotiator for the given configuration. Nothing is bound
// until Acquire is called.
func New(cfg Config, opts ...Option) (*Negotiator, error) {
	return newNegotiator(clock.RealClock{}, realNet{}, cfg, opts...)
}

func newNegotiator(clk clock.Clock, netI netIface, cfg Config, opts ...Option) (*Negotiator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	n := &Negotiator{
		cfg:           cfg,
		state:         negotiatorStateAcquiring,
		listenerDoneC: make(chan struct{}),
		l:             noopLogger,
		clock:         clk,
		net:           netI,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.l = n.l.New("addr", cfg.address())
	return n, nil
}

var processRegistered atomic.Bool

// Acquire constructs a Negotiator and negotiates with it. It is the entry
// point for programs: it may be called at most once per process, a second
// call returns ErrDuplicateRegistration.
//
// The returned Negotiator is nil only if the configuration was invalid or
// Acquire had already been called.
func Acquire(ctx context.Context, cfg Config, cb Callbacks, opts ...Option) (*Negotiator, Role, error) {
	if !processRegistered.CompareAndSwap(false, true) {
		return nil, RoleUndetermined, ErrDuplicateRegistration
	}
	n, err := New(cfg, opts...)
	if err != nil {
		return nil, RoleUndetermined, err
	}
	role, err := n.Acquire(ctx, cb)
	return n, role, err
}

// Acquire negotiates whether this process is the original. It may only be
// called once per Negotiator.
//
// If the port can be bound, this process becomes the original: a listener is
// started in the background to deliver duplicates' messages to
// cb.HandleMessage, and Acquire returns RoleOriginal immediately.
//
// Otherwise the bind is retried, and once the attempts are exhausted this
// process is a duplicate. It sends cb.DuplicateMessage() to the original and
// asks cb.DuplicateCleanup whether it is replacing the original. If it is,
// Acquire waits for the original to release the port and negotiates again
// from the start. If it is not, Acquire returns RoleDuplicate; exiting is up
// to the caller.
//
// Acquire blocks during bind retries, the handover wait and the handshake.
// Canceling ctx interrupts those waits and the dial to the original.
func (n *Negotiator) Acquire(ctx context.Context, cb Callbacks) (Role, error) {
	if cb == nil {
		return n.Role(), errors.New("nil callbacks")
	}
	if !n.registered.CompareAndSwap(false, true) {
		return n.Role(), ErrDuplicateRegistration
	}
	n.cb = cb

	for handovers := 0; ; handovers++ {
		ln, bindErr, err := n.bind(ctx)
		if err != nil {
			return n.Role(), err
		}
		if bindErr == nil {
			if err := n.becomeOriginal(ln); err != nil {
				ln.Close()
				return n.Role(), err
			}
			n.l.Info("became original", "handovers", handovers)
			return RoleOriginal, nil
		}

		if err := n.transitionTo(negotiatorStateDuplicate); err != nil {
			return n.Role(), ErrStopped
		}
		n.l.Info("another instance holds the port, acting as duplicate", "err", bindErr)
		replacing, err := n.handshake(ctx, bindErr)
		if err != nil {
			n.l.Error("abandoning handshake with original", "err", err)
			return RoleDuplicate, err
		}
		if !replacing {
			n.l.Info("duplicate finished, not replacing original")
			return RoleDuplicate, nil
		}

		if err := n.transitionTo(negotiatorStateAcquiring); err != nil {
			return n.Role(), ErrStopped
		}
		n.l.Info("replacing original, waiting for it to release the port", "wait", n.cfg.HandoverWaitDelay)
		if err := n.sleep(ctx, n.cfg.HandoverWaitDelay); err != nil {
			return n.Role(), err
		}
	}
}

// bind tries to bind the instance port up to MaxBindAttempts times.
// bindErr is the last bind failure if every attempt failed; err is only set
// if ctx was canceled while waiting between attempts.
func (n *Negotiator) bind(ctx context.Context) (ln net.Listener, bindErr error, err error) {
	for attempt := 1; ; attempt++ {
		ln, bindErr = n.net.Listen("tcp", n.cfg.address())
		if bindErr == nil {
			return ln, nil, nil
		}
		n.l.Debug("unable to bind port", "attempt", attempt, "contention", isAddrInUse(bindErr), "err", bindErr)
		if attempt >= n.cfg.MaxBindAttempts {
			return nil, bindErr, nil
		}
		if err := n.sleep(ctx, n.cfg.BindRetryDelay); err != nil {
			return nil, bindErr, err
		}
	}
}

// handshake sends this duplicate's message to the original and returns
// whether this duplicate is replacing it.
func (n *Negotiator) handshake(ctx context.Context, bindErr error) (bool, error) {
	msg := n.cb.DuplicateMessage()

	addr := n.cfg.address()
	conn, err := n.net.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, errors.Wrap(ctxErr, err.Error())
		}
		return false, &TransportError{Op: "dial", Addr: addr, Err: err, BindErr: bindErr}
	}
	err = proto.WriteMessage(conn, msg)
	conn.Close()
	if err != nil {
		return false, &TransportError{Op: "write", Addr: addr, Err: err, BindErr: bindErr}
	}
	n.l.Info("sent message to original", "len", len(msg))

	return n.cb.DuplicateCleanup(msg), nil
}

func (n *Negotiator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := n.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func (n *Negotiator) becomeOriginal(ln net.Listener) error {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	if err := n.state.transitionTo(negotiatorStateOriginal); err != nil {
		return ErrStopped
	}
	n.ln = ln
	go n.serveDuplicates(ln)
	return nil
}

func (n *Negotiator) transitionTo(state negotiatorState) error {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	return n.state.transitionTo(state)
}

func (n *Negotiator) mustTransitionTo(state negotiatorState) {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	if err := n.state.transitionTo(state); err != nil {
		panic(fmt.Sprintf("BUG: error transitioning to %q: %v", state, err))
	}
}

// Role returns what this process currently is.
func (n *Negotiator) Role() Role {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	return n.state.role()
}

// Addr returns the address of the listening resource while this process is
// the original, and nil otherwise.
func (n *Negotiator) Addr() net.Addr {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	if n.ln == nil {
		return nil
	}
	return n.ln.Addr()
}

// ListenerDone returns a channel which is closed when this process stops
// listening for duplicates, either because Stop was called or because
// accepting connections failed. See ListenerErr.
func (n *Negotiator) ListenerDone() <-chan struct{} {
	return n.listenerDoneC
}

// ListenerErr returns the error that made the listener stop accepting
// duplicates. It is nil while the listener runs and if it was stopped by
// Stop.
func (n *Negotiator) ListenerErr() error {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	return n.listenerErr
}

// Stop releases the instance port, if this process holds it. A negotiation
// in progress fails with ErrStopped, and a message still being read from a
// duplicate is dropped.
// Stop does not wait for the listener to exit, so it is safe to call from
// HandleMessage; use ListenerDone to wait for it.
// Stop may be called more than once.
func (n *Negotiator) Stop() {
	n.mustTransitionTo(negotiatorStateStopped)
	n.stopOnce.Do(func() {
		n.stateLock.Lock()
		ln, conn := n.ln, n.conn
		n.ln, n.conn = nil, nil
		n.stateLock.Unlock()

		if ln == nil {
			close(n.listenerDoneC)
			return
		}
		n.l.Info("releasing instance port")
		if conn != nil {
			conn.Close()
		}
		// Interrupt the pending accept; this is how the listener exits.
		ln.Close()
	})
}
