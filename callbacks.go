package solo

// Callbacks is the policy a program supplies to decide what a duplicate tells
// the original and what either side does about it.
type Callbacks interface {
	// DuplicateMessage is called on the duplicate once it has decided it is a
	// duplicate. It returns the message to send to the original and must not
	// block indefinitely.
	//
	// Do not exit the process here, the message would never reach the
	// original. Use DuplicateCleanup.
	DuplicateMessage() string

	// HandleMessage is called on the original once for every message received
	// from a duplicate, one at a time, in the order the duplicates connected.
	HandleMessage(msg string)

	// DuplicateCleanup is called on the duplicate after msg has been sent to
	// the original. It returns true if this duplicate is replacing the
	// original (for example because msg asked the original to exit) and
	// should become the original itself.
	DuplicateCleanup(msg string) bool
}

// CallbackFuncs adapts plain functions to Callbacks. A nil Duplicate sends an
// empty message, a nil Handle ignores messages and a nil Cleanup never
// replaces the original.
type CallbackFuncs struct {
	Duplicate func() string
	Handle    func(msg string)
	Cleanup   func(msg string) bool
}

var _ Callbacks = CallbackFuncs{}

func (f CallbackFuncs) DuplicateMessage() string {
	if f.Duplicate == nil {
		return ""
	}
	return f.Duplicate()
}

func (f CallbackFuncs) HandleMessage(msg string) {
	if f.Handle != nil {
		f.Handle(msg)
	}
}

func (f CallbackFuncs) DuplicateCleanup(msg string) bool {
	if f.Cleanup == nil {
		return false
	}
	return f.Cleanup(msg)
}
