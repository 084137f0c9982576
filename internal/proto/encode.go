package proto

import (
	"io"
	"io/ioutil"
	"net"

	"github.com/pkg/errors"
)

// ErrMessageTooLarge is returned by ReadMessage when the peer sent more than
// MaxMessageSize bytes before closing.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

type closeWriter interface {
	CloseWrite() error
}

// WriteMessage writes msg as the entire body of conn and then closes the
// sending side of conn to mark the end of the message.
// Connections that cannot half-close are closed fully. The caller still owns
// conn and should Close it.
func WriteMessage(conn net.Conn, msg string) error {
	if _, err := io.WriteString(conn, msg); err != nil {
		return errors.Wrap(err, "could not write message")
	}
	if cw, ok := conn.(closeWriter); ok {
		if err := cw.CloseWrite(); err != nil {
			return errors.Wrap(err, "could not close write side")
		}
		return nil
	}
	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "could not close connection")
	}
	return nil
}

// ReadMessage reads from src until the peer closes and returns everything it
// read as the message. If joinLines is set, line terminators are dropped and
// the lines concatenated.
func ReadMessage(src io.Reader, joinLines bool) (string, error) {
	// read one byte past the limit so an oversized body can be told apart from
	// one that is exactly MaxMessageSize long
	data, err := ioutil.ReadAll(io.LimitReader(src, MaxMessageSize+1))
	if err != nil {
		return "", errors.Wrap(err, "could not read message")
	}
	if len(data) > MaxMessageSize {
		return "", ErrMessageTooLarge
	}
	if joinLines {
		return string(stripLineTerminators(data)), nil
	}
	return string(data), nil
}
