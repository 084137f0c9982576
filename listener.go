package solo

import (
	"net"
	"time"

	"github.com/ngrok/solo/internal/proto"
)

// serveDuplicates accepts duplicates on ln and delivers their messages to
// HandleMessage. Connections are handled one at a time, so messages are
// delivered in the order duplicates connected and never concurrently.
func (n *Negotiator) serveDuplicates(ln net.Listener) {
	defer close(n.listenerDoneC)
	for {
		conn, err := ln.Accept()
		if err != nil {
			n.stateLock.Lock()
			defer n.stateLock.Unlock()
			if n.state == negotiatorStateStopped {
				n.l.Info("instance port closed, no longer listening for duplicates")
				return
			}
			// The port is still held, so no other process can become the
			// original, but duplicates can no longer reach us.
			n.l.Error("error accepting duplicates, no longer listening for duplicates", "err", err)
			n.listenerErr = &TransportError{Op: "accept", Addr: ln.Addr().String(), Err: err}
			return
		}

		if !n.trackConn(conn) {
			conn.Close()
			n.l.Info("instance port closed, no longer listening for duplicates")
			return
		}
		msg, err := n.readMessage(conn)
		if n.untrackConn() {
			n.l.Info("instance port released, dropping message from duplicate", "remote", conn.RemoteAddr())
			return
		}
		if err != nil {
			n.l.Warn("dropping message from duplicate", "remote", conn.RemoteAddr(), "err", err)
			continue
		}
		n.l.Info("received message from duplicate", "remote", conn.RemoteAddr(), "len", len(msg))
		n.cb.HandleMessage(msg)
	}
}

// trackConn records conn as the one being read, so Stop can close it. It
// returns false if Stop was already called.
func (n *Negotiator) trackConn(conn net.Conn) bool {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	if n.state == negotiatorStateStopped {
		return false
	}
	n.conn = conn
	return true
}

// untrackConn reports whether Stop was called while the conn was read.
func (n *Negotiator) untrackConn() (stopped bool) {
	n.stateLock.Lock()
	defer n.stateLock.Unlock()
	n.conn = nil
	return n.state == negotiatorStateStopped
}

func (n *Negotiator) readMessage(conn net.Conn) (string, error) {
	defer conn.Close()
	if n.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(n.cfg.ReadTimeout)); err != nil {
			return "", &TransportError{Op: "read", Addr: conn.RemoteAddr().String(), Err: err}
		}
	}
	msg, err := proto.ReadMessage(conn, n.cfg.JoinLines)
	if err != nil {
		return "", &TransportError{Op: "read", Addr: conn.RemoteAddr().String(), Err: err}
	}
	return msg, nil
}
