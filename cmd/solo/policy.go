package main

import (
	"fmt"
	"io"
	"sync"
)

// policy is the example program's answer to what duplicates say and how the
// original reacts: a duplicate asks the original to come to the front, or,
// when replacing, to step down.
type policy struct {
	out     io.Writer
	message string
	replace bool

	stepDownOnce sync.Once
	stepDownC    chan struct{}
}

func newPolicy(out io.Writer, cfg runConfig) *policy {
	return &policy{
		out:       out,
		message:   cfg.Message,
		replace:   cfg.Replace,
		stepDownC: make(chan struct{}),
	}
}

func (p *policy) DuplicateMessage() string {
	if p.replace {
		return stepDownMessage
	}
	return p.message
}

func (p *policy) HandleMessage(msg string) {
	switch msg {
	case stepDownMessage:
		fmt.Fprintln(p.out, "I was asked to step down.")
		p.stepDownOnce.Do(func() { close(p.stepDownC) })
	case unminimizeMessage:
		fmt.Fprintln(p.out, "I was asked to unminimize.")
	default:
		fmt.Fprintf(p.out, "A duplicate said: %q\n", msg)
	}
}

func (p *policy) DuplicateCleanup(msg string) bool {
	if p.replace {
		fmt.Fprintln(p.out, "Asked the original to step down, taking over.")
		return true
	}
	fmt.Fprintln(p.out, "Sent message to the original, exiting.")
	return false
}

// StepDown is closed once a duplicate has asked this original to exit.
func (p *policy) StepDown() <-chan struct{} {
	return p.stepDownC
}
