package orchestrator

import (
	"testing"

	"github.com/chorus-dev/chorus/internal/core"
)

func entry(speaker core.VoiceID, content string) core.TranscriptEntry {
	return core.TranscriptEntry{Phase: core.PhaseAnalysis, Speaker: speaker, Content: content}
}

func TestConvergence_MarkerQuorum(t *testing.T) {
	c := NewConvergenceChecker(0.9)

	current := []core.TranscriptEntry{
		entry("alpha", "I think we are done here [READY]"),
		entry("beta", "agreed, nothing to add [READY]"),
		entry("gamma", "one more consideration: error handling"),
	}

	if !c.Converged(current, nil, 2) {
		t.Fatalf("two markers should satisfy quorum of 2")
	}
	if c.Converged(current, nil, 3) {
		t.Fatalf("two markers must not satisfy quorum of 3")
	}
}

func TestConvergence_Stabilization(t *testing.T) {
	c := NewConvergenceChecker(0.9)

	previous := []core.TranscriptEntry{
		entry("alpha", "The request needs a concise factual answer."),
		entry("beta", "We should cover edge cases and cite sources."),
	}
	current := []core.TranscriptEntry{
		entry("alpha", "The request needs a concise, factual answer."),
		entry("beta", "We should cover edge cases and cite sources!"),
	}

	if !c.Converged(current, previous, 2) {
		t.Fatalf("near-identical consecutive turns should converge")
	}

	divergent := []core.TranscriptEntry{
		entry("alpha", "Actually this changes everything, reconsider the approach entirely."),
		entry("beta", "New angle: performance implications were not discussed at all."),
	}
	if c.Converged(divergent, previous, 2) {
		t.Fatalf("divergent turns must not converge")
	}
}

func TestConvergence_FirstRoundNeverStabilizes(t *testing.T) {
	c := NewConvergenceChecker(0.9)
	current := []core.TranscriptEntry{entry("alpha", "initial thoughts")}

	if c.Converged(current, nil, 1) {
		t.Fatalf("no previous round, no marker: must not converge")
	}
}

func TestConvergence_EmptyRound(t *testing.T) {
	c := NewConvergenceChecker(0.9)
	if c.Converged(nil, nil, 1) {
		t.Fatalf("empty round must not converge")
	}
}

func TestJaccardSimilarity(t *testing.T) {
	a := wordSet("the quick brown fox")
	b := wordSet("the quick brown fox")
	if got := JaccardSimilarity(a, b); got != 1.0 {
		t.Fatalf("identical sets: expected 1.0, got %f", got)
	}

	c := wordSet("completely different words here")
	if got := JaccardSimilarity(a, c); got != 0.0 {
		t.Fatalf("disjoint sets: expected 0.0, got %f", got)
	}

	if got := JaccardSimilarity(wordSet(""), wordSet("")); got != 1.0 {
		t.Fatalf("empty sets: expected 1.0, got %f", got)
	}
}

func TestWordSet_Normalization(t *testing.T) {
	a := wordSet("Hello, World! 42")
	for _, w := range []string{"hello", "world", "42"} {
		if !a[w] {
			t.Fatalf("expected %q in set %v", w, a)
		}
	}
	if len(a) != 3 {
		t.Fatalf("expected 3 words, got %d", len(a))
	}
}
