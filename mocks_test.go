package solo

import (
	"context"
	"net"
	"sync"
)

// mockNet uses the real network unless told otherwise, and counts binds.
type mockNet struct {
	realNet

	mu      sync.Mutex
	listens int
	// listenErr, if set, is returned by every Listen
	listenErr error
	// wrapListener, if set, wraps every listener that was bound
	wrapListener func(net.Listener) net.Listener
}

func (m *mockNet) Listen(network, address string) (net.Listener, error) {
	m.mu.Lock()
	m.listens++
	listenErr, wrap := m.listenErr, m.wrapListener
	m.mu.Unlock()

	if listenErr != nil {
		return nil, listenErr
	}
	ln, err := m.realNet.Listen(network, address)
	if err != nil || wrap == nil {
		return ln, err
	}
	return wrap(ln), nil
}

func (m *mockNet) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return m.realNet.DialContext(ctx, network, address)
}

func (m *mockNet) Listens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listens
}

// failingListener fails every Accept with err, without being closed.
type failingListener struct {
	net.Listener
	err error
}

func (f failingListener) Accept() (net.Conn, error) {
	return nil, f.err
}

// recorder is a Callbacks implementation that records everything it sees.
type recorder struct {
	msg     string
	replace func(msg string) bool

	mu       sync.Mutex
	received []string
	cleanups []string
	// receivedC gets every handled message, if non-nil
	receivedC chan string
}

func (r *recorder) DuplicateMessage() string {
	return r.msg
}

func (r *recorder) HandleMessage(msg string) {
	r.mu.Lock()
	r.received = append(r.received, msg)
	r.mu.Unlock()
	if r.receivedC != nil {
		r.receivedC <- msg
	}
}

func (r *recorder) DuplicateCleanup(msg string) bool {
	r.mu.Lock()
	r.cleanups = append(r.cleanups, msg)
	r.mu.Unlock()
	if r.replace == nil {
		return false
	}
	return r.replace(msg)
}

func (r *recorder) Received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.received...)
}

func (r *recorder) Cleanups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cleanups...)
}
