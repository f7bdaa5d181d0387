package sync

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure for the caller's retry decision.
type Kind int

const (
	// KindNetwork is a transport or HTTP-level failure; retryable.
	KindNetwork Kind = iota
	// KindRemoteRejected is a non-success status from the remote API.
	KindRemoteRejected
	// KindLocalStore is a storage I/O failure; fatal to the current pass.
	KindLocalStore
	// KindInconsistentState is a record violating a sync invariant.
	KindInconsistentState
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindLocalStore:
		return "local_store"
	case KindInconsistentState:
		return "inconsistent_state"
	default:
		return "unknown"
	}
}

// Error is a classified sync failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified sync error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification from an error chain.
func KindOf(err error) (Kind, bool) {
	var syncErr *Error
	if errors.As(err, &syncErr) {
		return syncErr.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether a later sync pass may succeed without any
// local change. Local store failures and invariant violations are not
// retried within the same cadence.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindNetwork || kind == KindRemoteRejected
}
