package solo

import (
	"context"
	"net"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type netIface interface {
	Listen(network, address string) (net.Listener, error)
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type realNet struct{}

func (realNet) Listen(network, address string) (net.Listener, error) {
	return net.Listen(network, address)
}

func (realNet) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

// isAddrInUse reports whether a bind failure was caused by the address being
// held by another socket, as opposed to e.g. a permission problem.
func isAddrInUse(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == unix.EADDRINUSE
}
