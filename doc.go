// Package solo keeps a single active instance of a program per machine.
//
// Instances coordinate over a well-known loopback port. Whichever process
// manages to bind that port is the original; every other process that tries
// is a duplicate. The operating system's exclusive bind is the only arbiter
// of who is the original, solo layers no election of its own on top of it.
//
// A duplicate does not simply exit. It retries the bind a few times, in case
// the previous original is in the middle of shutting down, and then connects
// to the original and hands it a short text message, such as a request to
// bring its window to the front. After the message is sent the duplicate's
// callbacks decide whether the duplicate is done, or whether it has made the
// original go away and should take over. In the latter case the duplicate
// waits for the port to be released and starts over, so that a chain of
// duplicates each replacing the previous one ends with exactly one original.
//
// Both processes must agree on the port out of band. A bind failure caused
// by an unrelated program holding the port looks exactly like a running
// original; solo reports the bind error alongside any handshake failure so
// callers can tell the two apart after the fact.
package solo
