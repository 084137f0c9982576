package proto

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestQuickcheckMessageRoundtrip(t *testing.T) {
	if err := quick.Check(func(msg string) bool {
		server, client := net.Pipe()
		defer server.Close()

		writeErr := make(chan error, 1)
		go func() {
			writeErr <- WriteMessage(client, msg)
		}()
		got, err := ReadMessage(server, false)
		if err != nil {
			t.Fatalf("read error: %v", err)
			return false
		}
		if err := <-writeErr; err != nil {
			t.Fatalf("write error: %v", err)
			return false
		}
		if got != msg {
			t.Errorf("roundtrip error: %q != %q", msg, got)
			return false
		}
		return true
	}, &quick.Config{}); err != nil {
		t.Error(err)
	}
}

// TestWriteMessageHalfCloses verifies that a TCP writer only closes its
// sending side, so the reader sees EOF while the connection is still open.
func TestWriteMessageHalfCloses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	accepted, err := ln.Accept()
	require.NoError(t, err)
	defer accepted.Close()

	require.NoError(t, WriteMessage(conn, "PING\nPONG"))

	msg, err := ReadMessage(accepted, false)
	require.NoError(t, err)
	require.Equal(t, "PING\nPONG", msg)

	// the writer's read side is still usable after the half close
	_, err = accepted.Write([]byte("x"))
	require.NoError(t, err)
	var b [1]byte
	_, err = conn.Read(b[:])
	require.NoError(t, err)
	require.Equal(t, byte('x'), b[0])
}

func TestReadMessageJoinLines(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Unminimize you freak", "Unminimize you freak"},
		{"one\ntwo\n", "onetwo"},
		{"one\r\ntwo\r\nthree", "onetwothree"},
		{"a\rb", "ab"},
	} {
		got, err := ReadMessage(strings.NewReader(tc.in), true)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestReadMessageSizeLimit(t *testing.T) {
	exact := bytes.Repeat([]byte("a"), MaxMessageSize)
	msg, err := ReadMessage(bytes.NewReader(exact), false)
	require.NoError(t, err)
	require.Len(t, msg, MaxMessageSize)

	tooLarge := bytes.Repeat([]byte("a"), MaxMessageSize+1)
	_, err = ReadMessage(bytes.NewReader(tooLarge), false)
	require.Equal(t, ErrMessageTooLarge, err)
}
