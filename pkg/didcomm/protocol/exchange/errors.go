/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConcurrentModification is returned when a record update lost a compare-and-swap race.
	ErrConcurrentModification = errors.New("record was modified concurrently")
	// ErrDuplicateThread is returned when saving a second record for a thread id.
	ErrDuplicateThread = errors.New("a record already exists for this thread")
	// ErrDuplicateMessage marks the redelivery of a message that was already applied.
	ErrDuplicateMessage = errors.New("message was already handled")
	// ErrMessageNotFound is returned by stores when no message of a kind was stored for a record.
	ErrMessageNotFound = errors.New("message not found")
)

// Problem report codes.
const (
	CodeRejected          = "rejected"
	CodeAbandoned         = "abandoned"
	CodeInternal          = "internal"
	CodeInvalidMessage    = "invalid-message"
	CodeIllegalTransition = "illegal-transition"
	CodeUnsupportedFormat = "unsupported-format"
	CodeVerification      = "verification-failed"
)

// ValidationError reports a structurally invalid message or attachment.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Reason, e.Err)
	}

	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError returns a ValidationError.
func NewValidationError(err error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// TransitionError reports an event that is not legal from the current state.
type TransitionError struct {
	Protocol Protocol
	From     State
	Role     Role
	Kind     MessageKind
	Outbound bool
	Err      error
}

func (e *TransitionError) Error() string {
	direction := "inbound"
	if e.Outbound {
		direction = "outbound"
	}

	msg := fmt.Sprintf("invalid %s transition: %s %s in state %q as %s", e.Protocol, direction, e.Kind, e.From, e.Role)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *TransitionError) Unwrap() error { return e.Err }

// MissingPredecessorError reports that a message needed to build a reply was never stored.
type MissingPredecessorError struct {
	RecordID string
	Kind     MessageKind
}

func (e *MissingPredecessorError) Error() string {
	return fmt.Sprintf("no %s message stored for record %s", e.Kind, e.RecordID)
}

// FormatNegotiationError reports that the parties share no attachment format, or that a required
// attachment is missing.
type FormatNegotiationError struct {
	Stage  string
	Local  []string
	Remote []string
	Reason string
}

func (e *FormatNegotiationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("format negotiation (%s): %s", e.Stage, e.Reason)
	}

	return fmt.Sprintf("format negotiation (%s): no common format between local [%s] and peer [%s]",
		e.Stage, strings.Join(e.Local, ", "), strings.Join(e.Remote, ", "))
}

// VerificationError reports a payload that contradicts the payload the local party sent before it.
type VerificationError struct {
	Format string
	Err    error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify %s payload: %v", e.Format, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// RecordNotFoundError reports a failed record lookup.
type RecordNotFoundError struct {
	ID           string
	ThreadID     string
	ConnectionID string
}

func (e *RecordNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %s not found", e.ID)
	}

	return fmt.Sprintf("record not found for thread %s and connection %q", e.ThreadID, e.ConnectionID)
}

// ConnectionMissingError reports that an operation needed a connection that is unknown or not usable.
type ConnectionMissingError struct {
	ConnectionID string
	Err          error
}

func (e *ConnectionMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection %q missing: %v", e.ConnectionID, e.Err)
	}

	return fmt.Sprintf("connection %q missing", e.ConnectionID)
}

func (e *ConnectionMissingError) Unwrap() error { return e.Err }

// ProblemCode maps an error to the problem report code sent to the peer.
func ProblemCode(err error) string {
	var (
		validationErr  *ValidationError
		transitionErr  *TransitionError
		negotiationErr *FormatNegotiationError
		verifyErr      *VerificationError
	)

	switch {
	case errors.As(err, &negotiationErr):
		return CodeUnsupportedFormat
	case errors.As(err, &verifyErr):
		return CodeVerification
	case errors.As(err, &transitionErr):
		return CodeIllegalTransition
	case errors.As(err, &validationErr):
		return CodeInvalidMessage
	default:
		return CodeInternal
	}
}
