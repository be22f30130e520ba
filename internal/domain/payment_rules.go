package domain

import (
	"strings"

	"musafir/internal/domain/models"
)

// MaxPaymentAmount bounds each portion of a payment so sums of stored amounts stay in int64.
const MaxPaymentAmount int64 = 1_000_000_000_000

// ValidateSubmission rejects malformed payment input before any aggregate is touched.
func ValidateSubmission(sub models.PaymentSubmission) error {
	if sub.RegistrationID <= 0 {
		return ValidationError{Field: "registrationId", Msg: "required"}
	}
	if sub.CashAmount < 0 {
		return ValidationError{Field: "amount", Msg: "must not be negative"}
	}
	if sub.WalletAmount < 0 {
		return ValidationError{Field: "walletAmount", Msg: "must not be negative"}
	}
	if sub.CashAmount > MaxPaymentAmount {
		return ValidationError{Field: "amount", Msg: "too large"}
	}
	if sub.WalletAmount > MaxPaymentAmount {
		return ValidationError{Field: "walletAmount", Msg: "too large"}
	}
	if sub.CashAmount == 0 && sub.WalletAmount == 0 && sub.DiscountKind == nil {
		return ValidationError{Field: "amount", Msg: "nothing to pay"}
	}
	if sub.DiscountKind != nil && !sub.DiscountKind.Valid() {
		return ValidationError{Field: "discountType", Msg: "unknown discount kind"}
	}
	if sub.WalletAmount > 0 && strings.TrimSpace(sub.WalletUseID) == "" {
		return ValidationError{Field: "walletUseId", Msg: "required when paying from wallet"}
	}
	return nil
}

// CheckSubmission applies the ordered business preconditions of a payment
// against the locked registration. due is the amount due after any discount
// reserved by this submission.
func CheckSubmission(reg models.Registration, hasPending bool, due int64, sub models.PaymentSubmission) error {
	if err := CheckPayable(reg, hasPending); err != nil {
		return err
	}
	// compared without adding so huge inputs cannot wrap
	if sub.CashAmount > due || sub.WalletAmount > due-sub.CashAmount {
		return ConflictError{Code: CodeAmountExceedsDue, Resource: "payment", Msg: "amount exceeds amount due"}
	}
	if sub.CashAmount > 0 && strings.TrimSpace(sub.ProofRef) == "" {
		return ConflictError{Code: CodeProofRequired, Resource: "payment", Msg: "proof of transfer is required for cash payments"}
	}
	return nil
}

// CheckPayable is the part of CheckSubmission that does not depend on the amount.
func CheckPayable(reg models.Registration, hasPending bool) error {
	if reg.Cancelled() {
		return ConflictError{Code: CodeRegistrationCancelled, Resource: "registration", Msg: "registration is cancelled"}
	}
	if hasPending {
		return ConflictError{Code: CodePaymentAlreadyPending, Resource: "payment", Msg: "a payment is already pending approval"}
	}
	return nil
}
