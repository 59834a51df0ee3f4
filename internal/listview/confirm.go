// Package listview holds the framework-agnostic core of a list page: the
// canonical record cache, the derived visible subset, and the challenge-gated
// confirmation flow for soft delete and recover.
package listview

import (
	"errors"

	"drp/internal/challenge"
)

// ActionKind identifies the destructive operation awaiting confirmation.
type ActionKind int

const (
	ActionDelete ActionKind = iota
	ActionRecover
	ActionRecoverAll
)

func (k ActionKind) String() string {
	switch k {
	case ActionDelete:
		return "delete"
	case ActionRecover:
		return "recover"
	case ActionRecoverAll:
		return "recover all"
	}
	return "unknown"
}

// RecoverAllTarget is the TargetID used when the action fans out over every
// deleted record instead of a single one.
const RecoverAllTarget = "ALL"

// PendingAction is the destructive operation awaiting challenge confirmation.
// At most one exists at a time.
type PendingAction struct {
	TargetID    string
	TargetLabel string
	Kind        ActionKind
	Reason      *string
}

// ConfirmState is the confirmation dialog's lifecycle state.
type ConfirmState int

const (
	StateIdle ConfirmState = iota
	StateAwaitingChallenge
	StateSubmitting
)

// MismatchMessage is shown when the typed code does not match. The code is
// regenerated at the same time, so the old one is never reusable.
const MismatchMessage = "The code you entered did not match. A new code has been generated."

// ErrActionPending is returned when a second confirmation is requested while
// one is already open.
var ErrActionPending = errors.New("listview: another action is awaiting confirmation")

// Confirmation is the delete/recover confirmation state machine:
// Idle -> AwaitingChallenge (fresh code) -> Submitting -> Idle. A mismatched
// submission stays in AwaitingChallenge with a regenerated code; cancel
// discards everything.
type Confirmation struct {
	generate func() string

	state   ConfirmState
	code    string
	errMsg  string
	pending *PendingAction
}

// NewConfirmation returns an idle confirmation flow using the package-level
// challenge generator.
func NewConfirmation() *Confirmation {
	return &Confirmation{generate: challenge.Generate}
}

func (c *Confirmation) State() ConfirmState { return c.state }

// Code is the challenge the user must retype. Empty while idle.
func (c *Confirmation) Code() string { return c.code }

// ErrorMessage is the current mismatch notice, or empty.
func (c *Confirmation) ErrorMessage() string { return c.errMsg }

// Pending returns a copy of the action awaiting confirmation, or nil.
func (c *Confirmation) Pending() *PendingAction {
	if c.pending == nil {
		return nil
	}
	copied := *c.pending
	return &copied
}

// Begin opens the dialog for the given action with a fresh challenge.
// Only one action may be pending at a time.
func (c *Confirmation) Begin(action PendingAction) error {
	if c.state != StateIdle {
		return ErrActionPending
	}
	c.pending = &action
	c.code = c.generate()
	c.errMsg = ""
	c.state = StateAwaitingChallenge
	return nil
}

// Submit checks the user's input against the displayed code and reports
// whether the action is confirmed. Empty input is a no-op and does not
// consume a regeneration; a mismatch regenerates the code and sets the
// mismatch notice.
func (c *Confirmation) Submit(input string) bool {
	if c.state != StateAwaitingChallenge {
		return false
	}
	if isBlank(input) {
		return false
	}
	if !challenge.Matches(c.code, input) {
		c.code = c.generate()
		c.errMsg = MismatchMessage
		return false
	}
	c.errMsg = ""
	c.state = StateSubmitting
	return true
}

// Cancel discards the pending action and challenge.
func (c *Confirmation) Cancel() {
	c.reset()
}

// Finish closes the dialog after the API call resolved, success or not.
// Failures are surfaced at page level, never by reopening the challenge.
func (c *Confirmation) Finish() {
	c.reset()
}

func (c *Confirmation) reset() {
	c.state = StateIdle
	c.pending = nil
	c.code = ""
	c.errMsg = ""
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
