// Package proto encapsulates the wire format spoken between a duplicate
// process and the original process holding the instance port, as well as the
// functions for reading and writing it off the wire.
//
// There is exactly one message per connection and no framing at all: no
// header, no length prefix, no version byte. The duplicate connects, writes
// the message as raw bytes and closes its sending side. The original reads
// until the peer closes and treats everything it read as the message.
//
// There is no acknowledgement. A duplicate that wrote its message
// successfully does not know whether the original read it, let alone acted
// on it.
//
// Older originals read the body line by line and concatenated the lines,
// dropping line terminators. ReadMessage can reproduce that with joinLines;
// by default the body is returned byte for byte.
//
// Adding a length prefix or an acknowledgement to this format is a protocol
// break: existing duplicates and originals would no longer interoperate.
package proto
