package solo

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultHost is the interface instances bind and dial on.
	DefaultHost = "127.0.0.1"
	// DefaultMaxBindAttempts is the number of times a process tries to bind
	// the instance port before it considers itself a duplicate.
	DefaultMaxBindAttempts = 3
	// DefaultBindRetryDelay is the wait between two bind attempts.
	DefaultBindRetryDelay = 100 * time.Millisecond
	// DefaultHandoverWaitDelay is how long a duplicate that is replacing the
	// original waits for the original to release the port.
	DefaultHandoverWaitDelay = 1000 * time.Millisecond
)

// Config configures a Negotiator. It must not be modified after it has been
// passed to New.
type Config struct {
	// Port is the loopback port every instance of the program agrees on.
	Port int
	// Host is the address the port is bound and dialed on. It defaults to
	// DefaultHost.
	Host string

	MaxBindAttempts   int
	BindRetryDelay    time.Duration
	HandoverWaitDelay time.Duration

	// ReadTimeout bounds how long the original waits for a duplicate to finish
	// sending its message. Zero means no deadline: a duplicate that never
	// closes its connection stalls the original's listener.
	ReadTimeout time.Duration

	// JoinLines makes the original drop line terminators from received
	// messages, the way older originals did.
	JoinLines bool
}

// DefaultConfig returns the configuration used for port unless overridden.
func DefaultConfig(port int) Config {
	return Config{
		Port:              port,
		Host:              DefaultHost,
		MaxBindAttempts:   DefaultMaxBindAttempts,
		BindRetryDelay:    DefaultBindRetryDelay,
		HandoverWaitDelay: DefaultHandoverWaitDelay,
	}
}

// Validate reports whether c can be used to negotiate.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.MaxBindAttempts < 1 {
		return errors.Errorf("invalid max bind attempts %d, must be at least 1", c.MaxBindAttempts)
	}
	if c.BindRetryDelay < 0 {
		return errors.Errorf("invalid bind retry delay %v", c.BindRetryDelay)
	}
	if c.HandoverWaitDelay < 0 {
		return errors.Errorf("invalid handover wait delay %v", c.HandoverWaitDelay)
	}
	if c.ReadTimeout < 0 {
		return errors.Errorf("invalid read timeout %v", c.ReadTimeout)
	}
	return nil
}

func (c *Config) address() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}
