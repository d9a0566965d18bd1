// Package conversation provides the mailbox of a chat conversation and the
// blocking waits a dialogue is written with.
package conversation

import (
	"errors"
	"fmt"

	"chatshop/internal/transport/chat"
)

// Item is anything that can be delivered to a conversation mailbox.
type Item interface{ item() }

type Message struct{ chat.Message }
type Callback struct{ chat.Callback }
type PreCheckout struct{ chat.PreCheckout }

// Cancel asks the current cancellable wait to give up.
type Cancel struct{}

// Stop ends the conversation at its next wait, whatever that wait is.
type Stop struct{ Reason string }

func (Message) item()     {}
func (Callback) item()    {}
func (PreCheckout) item() {}
func (Cancel) item()      {}
func (Stop) item()        {}

// Stop reasons.
const (
	ReasonTimeout  = "timeout"
	ReasonReplaced = "replaced"
	ReasonShutdown = "shutdown"
)

// ErrCancelled is returned by a cancellable wait that received a Cancel.
var ErrCancelled = errors.New("conversation: cancelled")

// StopError unwinds a dialogue back to its run loop.
type StopError struct{ Reason string }

func (e *StopError) Error() string { return fmt.Sprintf("conversation: stopped (%s)", e.Reason) }

// AsStop reports whether err carries a stop request.
func AsStop(err error) (*StopError, bool) {
	var s *StopError
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}
