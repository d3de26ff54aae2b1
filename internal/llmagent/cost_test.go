package llmagent

import (
	"testing"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

func TestCallCostMultipliesTokensByPrice(t *testing.T) {
	cfg := ModelConfig{PriceInPerToken: 0.01, PriceOutPerToken: 0.02}
	cost := callCost(cfg, interfaces.TokenUsage{Input: 100, Output: 50})
	want := 100*0.01 + 50*0.02
	if cost != want {
		t.Fatalf("cost = %v, want %v", cost, want)
	}
}

func TestCostTrackerReserveAllowsUnderLimit(t *testing.T) {
	tracker := newCostTracker(10)
	if err := tracker.reserve(5); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := tracker.reserve(4); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if tracker.total() != 9 {
		t.Errorf("total = %v, want 9", tracker.total())
	}
}

func TestCostTrackerReserveRejectsOverLimit(t *testing.T) {
	tracker := newCostTracker(10)
	if err := tracker.reserve(5); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	err := tracker.reserve(6)
	if err == nil {
		t.Fatal("expected CostLimitExceededError")
	}
	if _, ok := err.(*interfaces.CostLimitExceededError); !ok {
		t.Fatalf("expected *CostLimitExceededError, got %T", err)
	}
	if tracker.total() != 5 {
		t.Errorf("rejected reservation should not book cost, total = %v, want 5", tracker.total())
	}
}

func TestCostTrackerNoLimitAlwaysAllows(t *testing.T) {
	tracker := newCostTracker(0)
	if err := tracker.reserve(1_000_000); err != nil {
		t.Fatalf("expected no limit to allow any reservation, got %v", err)
	}
}

func TestCostTrackerReconcileAdjustsSpentToActual(t *testing.T) {
	tracker := newCostTracker(10)
	if err := tracker.reserve(5); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	tracker.reconcile(5, 2) // actual cost came in lower than projected
	if tracker.total() != 2 {
		t.Errorf("total = %v, want 2", tracker.total())
	}
}
