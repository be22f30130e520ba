package domain

import (
	"testing"

	"musafir/internal/domain/models"
)

func groupBudget(used int64) models.DiscountBudget {
	return models.DiscountBudget{
		Kind:          models.DiscountGroup,
		Enabled:       true,
		AmountPerUnit: 500,
		TotalCount:    10,
		UsedCount:     used,
		UsedValue:     used * 500,
	}
}

func TestGroupEligibilityBelowThreshold(t *testing.T) {
	reg := models.Registration{TripType: models.TripTypeGroup}
	e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountGroup, groupBudget(0), true, reg, GroupState{Size: 3, AllRegistered: true})
	if e.Eligible || e.Reason != models.ReasonNotEligible {
		t.Fatalf("group of 3 must be not_eligible, got %+v", e)
	}
}

func TestGroupEligibilityBudgetExhausted(t *testing.T) {
	reg := models.Registration{TripType: models.TripTypeGroup}
	e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountGroup, groupBudget(10), true, reg, GroupState{Size: 5, AllRegistered: true})
	if e.Eligible || e.Reason != models.ReasonBudgetExhausted {
		t.Fatalf("exhausted budget must report budget_exhausted, got %+v", e)
	}
}

func TestGroupEligibilityAwaitingMembers(t *testing.T) {
	reg := models.Registration{TripType: models.TripTypeGroup}
	e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountGroup, groupBudget(2), true, reg, GroupState{Size: 5})
	if e.Eligible || e.Reason != models.ReasonAwaitingMembers {
		t.Fatalf("incomplete group must wait, got %+v", e)
	}
	e = EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountGroup, groupBudget(2), true, reg, GroupState{Size: 5, AllRegistered: true})
	if !e.Eligible || e.Amount != 500 {
		t.Fatalf("complete group should be eligible for 500, got %+v", e)
	}
}

func TestGroupThresholdIsConfigurable(t *testing.T) {
	reg := models.Registration{TripType: models.TripTypeGroup}
	policy := DiscountPolicy{GroupMinSize: 3}
	e := EvaluateEligibility(policy, models.DiscountGroup, groupBudget(0), true, reg, GroupState{Size: 3, AllRegistered: true})
	if !e.Eligible {
		t.Fatalf("threshold 3 should accept group of 3, got %+v", e)
	}
}

func TestSoloFemaleAndMusafir(t *testing.T) {
	budget := models.DiscountBudget{Enabled: true, AmountPerUnit: 300, TotalCount: 5}
	female := models.Registration{TripType: models.TripTypeSolo, Profile: models.Profile{Gender: "Female"}}
	male := models.Registration{TripType: models.TripTypeSolo, Profile: models.Profile{Gender: "male", CommunityTenureMonth: 12}}

	if e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountSoloFemale, budget, true, female, GroupState{Size: 1}); !e.Eligible {
		t.Fatalf("female registrant should qualify, got %+v", e)
	}
	if e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountSoloFemale, budget, true, male, GroupState{Size: 1}); e.Reason != models.ReasonNotEligible {
		t.Fatalf("male registrant should not qualify, got %+v", e)
	}
	if e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountMusafir, budget, true, male, GroupState{Size: 1}); !e.Eligible {
		t.Fatalf("12 months tenure should qualify for musafir, got %+v", e)
	}
	if e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountMusafir, budget, true, female, GroupState{Size: 1}); e.Reason != models.ReasonNotEligible {
		t.Fatalf("no tenure should not qualify for musafir, got %+v", e)
	}
	budget.Enabled = false
	if e := EvaluateEligibility(DefaultDiscountPolicy(), models.DiscountSoloFemale, budget, true, female, GroupState{Size: 1}); e.Reason != models.ReasonDisabled {
		t.Fatalf("disabled kind should report disabled, got %+v", e)
	}
}

func TestLockedDiscountIsExclusive(t *testing.T) {
	kind := models.DiscountMusafir
	reg := models.Registration{
		TripType:        models.TripTypeGroup,
		DiscountType:    &kind,
		DiscountApplied: 300,
		Profile:         models.Profile{Gender: "female", CommunityTenureMonth: 24},
	}
	trip := models.Trip{Discounts: []models.DiscountBudget{
		{Kind: models.DiscountSoloFemale, Enabled: true, AmountPerUnit: 400, TotalCount: 5},
		groupBudget(0),
		{Kind: models.DiscountMusafir, Enabled: true, AmountPerUnit: 300, TotalCount: 5, UsedCount: 1, UsedValue: 300},
	}}
	r := EvaluateAll(DefaultDiscountPolicy(), trip, reg, GroupState{Size: 6, AllRegistered: true})
	if !r.Musafir.Eligible || r.Musafir.Amount != 300 || r.Musafir.Reason != models.ReasonLocked {
		t.Fatalf("locked kind should stay applied, got %+v", r.Musafir)
	}
	if r.SoloFemale.Eligible || r.Group.Eligible {
		t.Fatalf("other kinds must be unavailable once locked, got %+v", r)
	}
}
