package core

import "errors"

// Sentinel reasons wrapped by the typed errors below. Callers should use
// errors.Is against these, or errors.As against the wrapper types when
// they need the offending field.
var (
	errEmptyID       = errors.New("order id is empty")
	errNonPositive   = errors.New("price or size must be strictly positive")
	errDuplicateID   = errors.New("order id already present in book")
	errOutOfOrderSeq = errors.New("event timestamp precedes the last observed timestamp")
)

// InvalidOrderError is returned by insert paths for malformed input: an
// empty id, a non-positive price or size, or an id already resident in
// the book. The book is left unchanged.
type InvalidOrderError struct {
	OrderID string
	Reason  error
}

func (e *InvalidOrderError) Error() string {
	if e.OrderID == "" {
		return "invalid order: " + e.Reason.Error()
	}
	return "invalid order " + e.OrderID + ": " + e.Reason.Error()
}

func (e *InvalidOrderError) Unwrap() error { return e.Reason }

func newInvalidOrder(id string, reason error) *InvalidOrderError {
	return &InvalidOrderError{OrderID: id, Reason: reason}
}

// NewInvalidOrderError constructs an InvalidOrderError for id with reason.
func NewInvalidOrderError(id string, reason error) *InvalidOrderError {
	return newInvalidOrder(id, reason)
}

// ProtocolError reports an ill-formed or out-of-order external event.
// The replay simulator aborts the run on this error; a live loop is
// expected to disconnect and reconnect.
type ProtocolError struct {
	Reason error
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason.Error() }

func (e *ProtocolError) Unwrap() error { return e.Reason }

// NewProtocolError wraps reason as a ProtocolError.
func NewProtocolError(reason error) *ProtocolError {
	return &ProtocolError{Reason: reason}
}

// EngineFault reports that a book invariant was observed broken. It is
// unrecoverable: the caller must treat book state as undefined and abort.
type EngineFault struct {
	Reason string
}

func (e *EngineFault) Error() string { return "engine fault: " + e.Reason }

// NewEngineFault constructs an EngineFault with the given description.
func NewEngineFault(reason string) *EngineFault {
	return &EngineFault{Reason: reason}
}

// ErrEmptyID reports an empty order_id was supplied to insert_resting.
var ErrEmptyID = errEmptyID

// ErrNonPositive reports a non-positive price or size was supplied.
var ErrNonPositive = errNonPositive

// ErrDuplicateID reports the id already exists in the book's index.
var ErrDuplicateID = errDuplicateID

// ErrOutOfOrderEvent reports an event stream delivered a ts that
// regresses the simulator's logical clock.
var ErrOutOfOrderEvent = errOutOfOrderSeq
