package proto

const (
	// MaxMessageSize is the largest message body an original will read from a
	// single duplicate connection. Messages are short control strings; anything
	// larger is treated as a transport failure.
	MaxMessageSize = 64 * 1024
)
