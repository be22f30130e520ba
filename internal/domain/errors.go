package domain

import (
	"errors"
	"fmt"
)

// Conflict codes surfaced to callers so they can show a specific message.
const (
	CodeBudgetExhausted               = "budget_exhausted"
	CodeAmountExceedsDue              = "amount_exceeds_due"
	CodePaymentAlreadyPending         = "payment_already_pending"
	CodeProofRequired                 = "proof_required"
	CodeInsufficientWalletBalance     = "insufficient_wallet_balance"
	CodeInvalidTransition             = "invalid_transition"
	CodeVersionMismatch               = "version_mismatch"
	CodeRefundRequiresApprovedPayment = "refund_requires_approved_payment"
	CodeRefundRequiresCancellation    = "refund_requires_cancellation"
	CodeRefundExists                  = "refund_exists"
	CodeDiscountLocked                = "discount_locked"
	CodeCapBelowUsed                  = "cap_below_used"
	CodeRegistrationCancelled         = "registration_cancelled"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError reports a business rule that blocks the operation. Code is one
// of the Code* constants above.
type ConflictError struct {
	Code     string
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	case e.Code != "":
		return e.Code
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// TransientError wraps storage failures that left no aggregate mutated. Safe to retry.
type TransientError struct {
	Op  string
	Err error
}

func (e TransientError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: temporarily unavailable", e.Op)
	}
	return "temporarily unavailable"
}

func (e TransientError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target TransientError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// ConflictCode returns the conflict code carried by err, or "".
func ConflictCode(err error) string {
	var target ConflictError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}

// HasConflictCode reports whether err is a ConflictError with the given code.
func HasConflictCode(err error, code string) bool {
	return ConflictCode(err) == code
}

func Conflict(code, msg string) ConflictError {
	return ConflictError{Code: code, Msg: msg}
}
