package domain

import (
	"strings"

	"musafir/internal/domain/models"
)

// DiscountPolicy holds the tunable eligibility rules.
type DiscountPolicy struct {
	GroupMinSize           int
	MusafirMinTenureMonths int
}

func DefaultDiscountPolicy() DiscountPolicy {
	return DiscountPolicy{GroupMinSize: 4, MusafirMinTenureMonths: 6}
}

// GroupState is what the resolver knows about the registrant's group.
type GroupState struct {
	Size          int
	AllRegistered bool
}

// EvaluateEligibility decides one kind for one registration against the
// current budget. The checks run in a fixed order: lock, enabled, policy,
// budget, group completeness.
func EvaluateEligibility(policy DiscountPolicy, kind models.DiscountKind, budget models.DiscountBudget, configured bool, reg models.Registration, group GroupState) models.Eligibility {
	if reg.DiscountLocked() {
		if *reg.DiscountType == kind {
			return models.Eligibility{Eligible: true, Amount: reg.DiscountApplied, Reason: models.ReasonLocked}
		}
		return models.Eligibility{Reason: models.ReasonLocked}
	}
	if !configured || !budget.Enabled || budget.AmountPerUnit <= 0 {
		return models.Eligibility{Reason: models.ReasonDisabled}
	}
	if !qualifies(policy, kind, reg, group) {
		return models.Eligibility{Reason: models.ReasonNotEligible}
	}
	if !budget.CanCover(1) {
		return models.Eligibility{Reason: models.ReasonBudgetExhausted}
	}
	if kind == models.DiscountGroup && !group.AllRegistered {
		return models.Eligibility{Amount: budget.AmountPerUnit, Reason: models.ReasonAwaitingMembers}
	}
	return models.Eligibility{Eligible: true, Amount: budget.AmountPerUnit, Reason: models.ReasonEligible}
}

func qualifies(policy DiscountPolicy, kind models.DiscountKind, reg models.Registration, group GroupState) bool {
	switch kind {
	case models.DiscountSoloFemale:
		return isFemale(reg.Profile.Gender)
	case models.DiscountGroup:
		min := policy.GroupMinSize
		if min <= 0 {
			min = DefaultDiscountPolicy().GroupMinSize
		}
		return reg.TripType == models.TripTypeGroup && group.Size >= min
	case models.DiscountMusafir:
		return reg.Profile.CommunityTenureMonth >= policy.MusafirMinTenureMonths
	}
	return false
}

func isFemale(g string) bool {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "female", "f", "woman":
		return true
	}
	return false
}

// EvaluateAll runs EvaluateEligibility for every kind of the trip.
func EvaluateAll(policy DiscountPolicy, trip models.Trip, reg models.Registration, group GroupState) models.EligibilityReport {
	eval := func(kind models.DiscountKind) models.Eligibility {
		b, ok := trip.Discount(kind)
		return EvaluateEligibility(policy, kind, b, ok, reg, group)
	}
	return models.EligibilityReport{
		SoloFemale: eval(models.DiscountSoloFemale),
		Group:      eval(models.DiscountGroup),
		Musafir:    eval(models.DiscountMusafir),
	}
}

// GroupFeedback summarizes group discount eligibility for the registration response.
func GroupFeedback(policy DiscountPolicy, trip models.Trip, reg models.Registration, group GroupState) models.GroupDiscountFeedback {
	b, ok := trip.Discount(models.DiscountGroup)
	e := EvaluateEligibility(policy, models.DiscountGroup, b, ok, reg, group)
	fb := models.GroupDiscountFeedback{Status: e.Reason, GroupSize: group.Size}
	if ok {
		fb.PerMember = b.AmountPerUnit
	}
	return fb
}
