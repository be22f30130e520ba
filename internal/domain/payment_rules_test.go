package domain

import (
	"math"
	"testing"
	"time"

	"musafir/internal/domain/models"
)

func TestValidateSubmission(t *testing.T) {
	bad := models.DiscountKind("vip")
	cases := []struct {
		name string
		sub  models.PaymentSubmission
		ok   bool
	}{
		{"missing registration", models.PaymentSubmission{CashAmount: 10}, false},
		{"negative cash", models.PaymentSubmission{RegistrationID: 1, CashAmount: -1}, false},
		{"negative wallet", models.PaymentSubmission{RegistrationID: 1, WalletAmount: -1}, false},
		{"nothing", models.PaymentSubmission{RegistrationID: 1}, false},
		{"bad discount", models.PaymentSubmission{RegistrationID: 1, CashAmount: 5, DiscountKind: &bad}, false},
		{"cash too large", models.PaymentSubmission{RegistrationID: 1, CashAmount: math.MaxInt64, ProofRef: "p.png"}, false},
		{"wallet too large", models.PaymentSubmission{RegistrationID: 1, WalletAmount: MaxPaymentAmount + 1, WalletUseID: "k1"}, false},
		{"wallet without key", models.PaymentSubmission{RegistrationID: 1, WalletAmount: 5}, false},
		{"valid", models.PaymentSubmission{RegistrationID: 1, WalletAmount: 5, CashAmount: 5, WalletUseID: "k1"}, true},
	}
	for _, tc := range cases {
		err := ValidateSubmission(tc.sub)
		if tc.ok != (err == nil) {
			t.Fatalf("%s: got %v", tc.name, err)
		}
		if err != nil && !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %T", tc.name, err)
		}
	}
}

func TestCheckSubmissionOrder(t *testing.T) {
	reg := models.Registration{ID: 1, Price: 3000}
	sub := models.PaymentSubmission{RegistrationID: 1, CashAmount: 2000, WalletAmount: 1000, ProofRef: "proof.png"}

	if err := CheckSubmission(reg, false, 3000, sub); err != nil {
		t.Fatalf("exact amount should pass, got %v", err)
	}
	if err := CheckSubmission(reg, true, 3000, sub); !HasConflictCode(err, CodePaymentAlreadyPending) {
		t.Fatalf("expected payment_already_pending, got %v", err)
	}
	if err := CheckSubmission(reg, false, 2999, sub); !HasConflictCode(err, CodeAmountExceedsDue) {
		t.Fatalf("expected amount_exceeds_due, got %v", err)
	}
	huge := models.PaymentSubmission{RegistrationID: 1, CashAmount: math.MaxInt64, WalletAmount: 1, ProofRef: "proof.png"}
	if err := CheckSubmission(reg, false, 3000, huge); !HasConflictCode(err, CodeAmountExceedsDue) {
		t.Fatalf("sum past int64 must not slip through, got %v", err)
	}
	huge = models.PaymentSubmission{RegistrationID: 1, CashAmount: 1, WalletAmount: math.MaxInt64, ProofRef: "proof.png"}
	if err := CheckSubmission(reg, false, 3000, huge); !HasConflictCode(err, CodeAmountExceedsDue) {
		t.Fatalf("expected amount_exceeds_due for huge wallet amount, got %v", err)
	}

	sub.ProofRef = " "
	if err := CheckSubmission(reg, false, 3000, sub); !HasConflictCode(err, CodeProofRequired) {
		t.Fatalf("expected proof_required, got %v", err)
	}
	sub.CashAmount = 0
	if err := CheckSubmission(reg, false, 3000, sub); err != nil {
		t.Fatalf("wallet-only payment needs no proof, got %v", err)
	}
	now := time.Now()
	reg.CancelledAt = &now
	if err := CheckSubmission(reg, false, 3000, sub); !HasConflictCode(err, CodeRegistrationCancelled) {
		t.Fatalf("expected registration_cancelled, got %v", err)
	}
}
