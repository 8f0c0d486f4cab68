package reservation

import (
	"errors"
	"fmt"

	"parkspot/internal/cancellation"
)

// ValidationError reports malformed or out-of-range input. Field names match
// the JSON request fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError means the request was well formed but the current state does
// not allow it. Callers may re-query and retry once.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

var (
	ErrLotFull          = &ConflictError{Code: "lot_full", Message: "lot full"}
	ErrSlotTaken        = &ConflictError{Code: "slot_taken", Message: "slot is already reserved for that window"}
	ErrNoFreeSlot       = &ConflictError{Code: "no_free_slot", Message: "no slot is free for that window"}
	ErrAlreadyCancelled = &ConflictError{Code: "already_cancelled", Message: "booking already cancelled"}
	ErrAlreadyCompleted = &ConflictError{Code: "booking_completed", Message: "booking window has already ended"}
	ErrAlreadyProcessed = &ConflictError{Code: "already_processed", Message: "refund already processed"}
	ErrNoRefundPending  = &ConflictError{Code: "no_refund_pending", Message: "booking has no refund awaiting a decision"}
	ErrNoChargeRecorded = &ConflictError{Code: "no_charge_recorded", Message: "booking has no recorded payment to refund"}
	ErrPaymentDeclined  = &ConflictError{Code: "payment_declined", Message: "payment declined"}
)

// PolicyError is a cancellation the active policy forbids. It is terminal.
type PolicyError struct {
	Reason          cancellation.Reason
	HoursUntilStart float64
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("cancellation not allowed: %s", e.Reason)
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

var (
	ErrLotNotFound     = &NotFoundError{Resource: "lot"}
	ErrBookingNotFound = &NotFoundError{Resource: "booking"}
)

// TransientError wraps a storage or gateway failure. Nothing was committed,
// so the whole operation is safe to retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindPolicy
	KindNotFound
	KindTransient
)

func KindOf(err error) Kind {
	var (
		verr *ValidationError
		cerr *ConflictError
		perr *PolicyError
		nerr *NotFoundError
		terr *TransientError
	)
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &cerr):
		return KindConflict
	case errors.As(err, &perr):
		return KindPolicy
	case errors.As(err, &nerr):
		return KindNotFound
	case errors.As(err, &terr):
		return KindTransient
	default:
		return KindInternal
	}
}

// fail leaves typed errors alone and marks everything else transient.
func fail(op string, err error) error {
	if err == nil || KindOf(err) != KindInternal {
		return err
	}
	return &TransientError{Op: op, Err: err}
}
