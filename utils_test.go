package solo

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
	fakeclock "k8s.io/utils/clock/testing"
)

var l = log15.New()

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// freePort returns a loopback port that nothing was listening on a moment
// ago.
func freePort(t *testing.T) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to find a free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// testConfig is DefaultConfig with delays short enough for tests on a real
// clock.
func testConfig(port int) Config {
	cfg := DefaultConfig(port)
	cfg.BindRetryDelay = 10 * time.Millisecond
	cfg.HandoverWaitDelay = 50 * time.Millisecond
	return cfg
}

// stepWhileWaiting advances clock by d every time something waits on it,
// until done is closed. It returns how many times it stepped.
func stepWhileWaiting(clock *fakeclock.FakeClock, d time.Duration, done <-chan struct{}) <-chan int {
	steps := make(chan int, 1)
	go func() {
		n := 0
		for {
			select {
			case <-done:
				steps <- n
				return
			default:
			}
			if clock.HasWaiters() {
				clock.Step(d)
				n++
				continue
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return steps
}
