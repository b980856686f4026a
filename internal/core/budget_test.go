package core

import (
	"sync"
	"testing"
	"time"
)

func TestBudgetTracker_ReserveCommit(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 100})

	grant, ok := tr.Reserve(60)
	if !ok {
		t.Fatalf("expected reservation to succeed")
	}
	if tr.Remaining().Tokens != 40 {
		t.Fatalf("expected 40 remaining while reserved, got %d", tr.Remaining().Tokens)
	}

	grant.Commit(30)
	if tr.TokensUsed() != 30 {
		t.Fatalf("expected 30 used, got %d", tr.TokensUsed())
	}
	if tr.Remaining().Tokens != 70 {
		t.Fatalf("expected 70 remaining after commit, got %d", tr.Remaining().Tokens)
	}
	if tr.Iterations() != 1 {
		t.Fatalf("expected one iteration, got %d", tr.Iterations())
	}
}

func TestBudgetTracker_CommitClampsOverReport(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 100})
	grant, _ := tr.Reserve(40)
	grant.Commit(500)
	if tr.TokensUsed() != 40 {
		t.Fatalf("over-report must clamp to reservation, used %d", tr.TokensUsed())
	}
}

func TestBudgetTracker_Release(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 50})
	grant, _ := tr.Reserve(50)
	grant.Release()
	if tr.TokensUsed() != 0 {
		t.Fatalf("release must not consume tokens")
	}
	if tr.Iterations() != 0 {
		t.Fatalf("release must not count an iteration")
	}
	if _, ok := tr.Reserve(50); !ok {
		t.Fatalf("full budget should be reservable after release")
	}
}

func TestBudgetTracker_DeniesOvercommit(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 100})
	if _, ok := tr.Reserve(80); !ok {
		t.Fatalf("first reservation should succeed")
	}
	if _, ok := tr.Reserve(30); ok {
		t.Fatalf("second reservation would overcommit and must be denied")
	}
}

func TestBudgetTracker_NoOvercommitUnderRace(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if grant, ok := tr.Reserve(100); ok {
				time.Sleep(time.Millisecond)
				grant.Commit(100)
			}
		}()
	}
	wg.Wait()

	if used := tr.TokensUsed(); used > 1000 {
		t.Fatalf("concurrent reservations overcommitted: %d > 1000", used)
	}
	if used := tr.TokensUsed(); used != 1000 {
		t.Fatalf("expected the full budget to be granted, got %d", used)
	}
}

func TestBudgetTracker_IterationExhaustion(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxIterations: 2})
	for i := 0; i < 2; i++ {
		grant, ok := tr.Reserve(10)
		if !ok {
			t.Fatalf("reservation %d should succeed", i)
		}
		grant.Commit(10)
	}
	if !tr.Exhausted() {
		t.Fatalf("expected exhaustion after max iterations")
	}
	if _, ok := tr.Reserve(10); ok {
		t.Fatalf("reservation must be denied after exhaustion")
	}
}

func TestBudgetTracker_PendingReservationHoldsIteration(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxIterations: 1})

	grant, ok := tr.Reserve(10)
	if !ok {
		t.Fatalf("first reservation should succeed")
	}
	if _, ok := tr.Reserve(10); ok {
		t.Fatalf("second reservation would exceed max iterations and must be denied")
	}
	if tr.Remaining().Iterations != 0 {
		t.Fatalf("expected 0 iterations remaining while reserved, got %d", tr.Remaining().Iterations)
	}

	grant.Release()
	if _, ok := tr.Reserve(10); !ok {
		t.Fatalf("released iteration should be reservable again")
	}
}

func TestBudgetTracker_NoIterationOvercommitUnderRace(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxIterations: 10})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if grant, ok := tr.Reserve(10); ok {
				time.Sleep(time.Millisecond)
				grant.Commit(10)
			}
		}()
	}
	wg.Wait()

	if got := tr.Iterations(); got != 10 {
		t.Fatalf("expected exactly 10 committed iterations, got %d", got)
	}
}

func TestBudgetTracker_WallTime(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	tr := NewBudgetTrackerWithClock(Budget{MaxWallTime: time.Minute}, clock)

	if tr.Exhausted() {
		t.Fatalf("fresh tracker must not be exhausted")
	}

	now = now.Add(30 * time.Second)
	if tr.Remaining().Time != 30*time.Second {
		t.Fatalf("expected 30s remaining, got %s", tr.Remaining().Time)
	}

	now = now.Add(31 * time.Second)
	if !tr.Exhausted() {
		t.Fatalf("expected exhaustion after wall time elapsed")
	}
}

func TestBudgetTracker_UnlimitedDimensions(t *testing.T) {
	tr := NewBudgetTracker(Budget{})
	r := tr.Remaining()
	if r.Tokens != -1 || r.Iterations != -1 || r.Time != -1 {
		t.Fatalf("unconstrained dimensions must report -1, got %+v", r)
	}
	if tr.Exhausted() {
		t.Fatalf("unlimited budget can never exhaust")
	}
	grant, ok := tr.Reserve(1 << 20)
	if !ok {
		t.Fatalf("unlimited budget must grant any reservation")
	}
	grant.Commit(1 << 20)
}

func TestBudgetTracker_TokenShareUsed(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 200})
	grant, _ := tr.Reserve(140)
	grant.Commit(140)
	if share := tr.TokenShareUsed(); share < 0.69 || share > 0.71 {
		t.Fatalf("expected share ~0.7, got %f", share)
	}
}

func TestGrant_DoubleSettleIsNoop(t *testing.T) {
	tr := NewBudgetTracker(Budget{MaxTokens: 100})
	grant, _ := tr.Reserve(50)
	grant.Commit(50)
	grant.Commit(50)
	grant.Release()
	if tr.TokensUsed() != 50 {
		t.Fatalf("double settle must not change counters, used %d", tr.TokensUsed())
	}
}
