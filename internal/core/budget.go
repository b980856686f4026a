package core

import (
	"sync"
	"time"
)

// Budget holds the configured session limits. A zero value for any field
// means that dimension is unconstrained.
type Budget struct {
	MaxTokens     int           `json:"max_tokens"`
	MaxIterations int           `json:"max_iterations"`
	MaxWallTime   time.Duration `json:"max_wall_time"`
}

// Unlimited reports whether no limit is configured at all.
func (b Budget) Unlimited() bool {
	return b.MaxTokens <= 0 && b.MaxIterations <= 0 && b.MaxWallTime <= 0
}

// Remaining is a snapshot of what is left of each budget dimension.
// A negative value means the dimension is unconstrained.
type Remaining struct {
	Tokens     int
	Iterations int
	Time       time.Duration
}

// TokensLimited reports whether the token dimension is constrained.
func (r Remaining) TokensLimited() bool { return r.Tokens >= 0 }

// BudgetTracker tracks live consumption against a Budget. All mutation goes
// through Reserve/Commit under a single mutex so concurrent reservations can
// never jointly overcommit a maximum even though each passes its own
// pre-check against a stale snapshot.
type BudgetTracker struct {
	mu            sync.Mutex
	budget        Budget
	used          int
	reserved      int
	iters         int
	reservedIters int
	started       time.Time
	now           func() time.Time
}

// NewBudgetTracker creates a tracker with elapsed time measured from now.
// Elapsed time is monotonic and never paused.
func NewBudgetTracker(b Budget) *BudgetTracker {
	return NewBudgetTrackerWithClock(b, time.Now)
}

// NewBudgetTrackerWithClock creates a tracker using the given clock.
// Tests use it to make the wall-time dimension deterministic.
func NewBudgetTrackerWithClock(b Budget, clock func() time.Time) *BudgetTracker {
	return &BudgetTracker{
		budget:  b,
		started: clock(),
		now:     clock,
	}
}

// Budget returns the configured limits.
func (t *BudgetTracker) Budget() Budget {
	return t.budget
}

// Remaining returns a snapshot of the remaining budget. Reserved but not
// yet committed tokens count as spent.
func (t *BudgetTracker) Remaining() Remaining {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

func (t *BudgetTracker) remainingLocked() Remaining {
	r := Remaining{Tokens: -1, Iterations: -1, Time: -1}
	if t.budget.MaxTokens > 0 {
		r.Tokens = t.budget.MaxTokens - t.used - t.reserved
		if r.Tokens < 0 {
			r.Tokens = 0
		}
	}
	if t.budget.MaxIterations > 0 {
		r.Iterations = t.budget.MaxIterations - t.iters - t.reservedIters
		if r.Iterations < 0 {
			r.Iterations = 0
		}
	}
	if t.budget.MaxWallTime > 0 {
		r.Time = t.budget.MaxWallTime - t.now().Sub(t.started)
		if r.Time < 0 {
			r.Time = 0
		}
	}
	return r
}

// Grant is a provisional reservation of tokens plus one iteration, returned
// by Reserve. Exactly one of Commit or Release must be called once the
// associated call resolves.
type Grant struct {
	tracker *BudgetTracker
	tokens  int
	settled bool
}

// Tokens returns the reserved token count.
func (g *Grant) Tokens() int { return g.tokens }

// Commit reconciles the reservation with the tokens actually consumed.
// Over-reports are clamped to the reservation. The earmarked iteration
// becomes a committed one.
func (g *Grant) Commit(actual int) {
	if g == nil || g.settled {
		return
	}
	if actual < 0 {
		actual = 0
	}
	if actual > g.tokens {
		actual = g.tokens
	}
	t := g.tracker
	t.mu.Lock()
	t.reserved -= g.tokens
	t.used += actual
	t.reservedIters--
	t.iters++
	t.mu.Unlock()
	g.settled = true
}

// Release returns the full reservation without consuming tokens or an
// iteration. Used when a call fails before consuming anything.
func (g *Grant) Release() {
	if g == nil || g.settled {
		return
	}
	t := g.tracker
	t.mu.Lock()
	t.reserved -= g.tokens
	t.reservedIters--
	t.mu.Unlock()
	g.settled = true
}

// Reserve provisionally earmarks tokens and one iteration against the
// remaining budget. It is the single checkpoint every dispatch must pass;
// the check and the earmark are atomic so two concurrent reservations can
// never together push any committed counter past its configured maximum.
// Returns false when the reservation is denied.
func (t *BudgetTracker) Reserve(tokens int) (*Grant, bool) {
	if tokens < 0 {
		tokens = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exhaustedLocked() {
		return nil, false
	}
	if t.budget.MaxTokens > 0 && t.used+t.reserved+tokens > t.budget.MaxTokens {
		return nil, false
	}
	if t.budget.MaxIterations > 0 && t.iters+t.reservedIters+1 > t.budget.MaxIterations {
		return nil, false
	}
	t.reserved += tokens
	t.reservedIters++
	return &Grant{tracker: t, tokens: tokens}, true
}

// TokensUsed returns the committed token count.
func (t *BudgetTracker) TokensUsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used
}

// Iterations returns the committed iteration count.
func (t *BudgetTracker) Iterations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.iters
}

// Elapsed returns time since session start.
func (t *BudgetTracker) Elapsed() time.Duration {
	return t.now().Sub(t.started)
}

// Exhausted reports whether any configured maximum has been reached.
func (t *BudgetTracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exhaustedLocked()
}

func (t *BudgetTracker) exhaustedLocked() bool {
	if t.budget.MaxTokens > 0 && t.used >= t.budget.MaxTokens {
		return true
	}
	if t.budget.MaxIterations > 0 && t.iters >= t.budget.MaxIterations {
		return true
	}
	if t.budget.MaxWallTime > 0 && t.now().Sub(t.started) >= t.budget.MaxWallTime {
		return true
	}
	return false
}

// TokenShareUsed returns the fraction of the token budget consumed, or 0
// when tokens are unconstrained.
func (t *BudgetTracker) TokenShareUsed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.budget.MaxTokens <= 0 {
		return 0
	}
	return float64(t.used) / float64(t.budget.MaxTokens)
}
