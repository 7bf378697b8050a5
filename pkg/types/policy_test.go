package types

import "testing"

func TestStaticTransitionPolicyValidate(t *testing.T) {
	policy := DefaultTransitionPolicy()

	if err := policy.Validate(PlanStatusDraft, PlanStatusPublished); err != nil {
		t.Fatalf("expected draft->published to be allowed: %v", err)
	}

	if err := policy.Validate(PlanStatusArchived, PlanStatusDraft); err != nil {
		t.Fatalf("expected archived->draft allowed: %v", err)
	}

	if err := policy.Validate(PlanStatusPublished, PlanStatusDraft); err == nil {
		t.Fatalf("expected published->draft to be rejected")
	}
}

func TestStaticTransitionPolicyAllowedTargets(t *testing.T) {
	policy := DefaultTransitionPolicy()
	targets := policy.AllowedTargets(PlanStatusDraft)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets for draft, got %d", len(targets))
	}
}
