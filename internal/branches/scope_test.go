package branches

import "testing"

func TestParseSelectorMapsGlobalSentinel(t *testing.T) {
	scope := ParseSelector(GlobalSelector)
	if !scope.IsGlobal() {
		t.Fatalf("expected global scope for sentinel selector")
	}
	if scope.BranchID() != "" {
		t.Fatalf("expected empty branch id for global scope, got %q", scope.BranchID())
	}
	if scope.Selector() != GlobalSelector {
		t.Fatalf("expected selector round trip, got %q", scope.Selector())
	}
}

func TestParseSelectorTreatsOtherValuesAsBranches(t *testing.T) {
	scope := ParseSelector("bdg")
	if scope.IsGlobal() {
		t.Fatalf("expected branch scope for real branch id")
	}
	if scope.BranchID() != "bdg" {
		t.Fatalf("unexpected branch id: %q", scope.BranchID())
	}
	if scope.Selector() != "bdg" {
		t.Fatalf("expected selector round trip, got %q", scope.Selector())
	}
}

func TestSeedContainsTenStableBranches(t *testing.T) {
	seed := Seed()
	if len(seed) != 10 {
		t.Fatalf("expected ten seeded branches, got %d", len(seed))
	}
	seen := make(map[string]bool, len(seed))
	for _, branch := range seed {
		if branch.ID == "" || branch.Name == "" {
			t.Fatalf("seed branch with empty identity: %+v", branch)
		}
		if branch.ID == GlobalSelector {
			t.Fatalf("global selector must never appear in the stored directory")
		}
		if seen[branch.ID] {
			t.Fatalf("duplicate branch id %q", branch.ID)
		}
		seen[branch.ID] = true
	}
	if !seen["bdg"] || !seen["cuiaba"] {
		t.Fatalf("expected well-known branch ids in seed, got %v", seen)
	}
}
