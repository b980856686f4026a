package orchestrator

import (
	"strings"
	"unicode"

	"github.com/chorus-dev/chorus/internal/core"
)

// ReadyMarker is the literal a voice emits when it considers the current
// discussion settled.
const ReadyMarker = "[READY]"

// DefaultSimilarityThreshold is the Jaccard similarity above which two
// successive turns from the same voice count as stabilized.
const DefaultSimilarityThreshold = 0.9

// ConvergenceChecker decides whether a discussion round has settled.
// Two signals are combined: an explicit ready marker emitted by the voices
// themselves, and textual stabilization measured as Jaccard similarity
// between a voice's current and previous turn. Either signal reaching the
// quorum ends the phase early.
type ConvergenceChecker struct {
	SimilarityThreshold float64
}

// NewConvergenceChecker creates a checker with the given similarity
// threshold. Values outside (0, 1] fall back to the default.
func NewConvergenceChecker(threshold float64) *ConvergenceChecker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &ConvergenceChecker{SimilarityThreshold: threshold}
}

// Converged implements core.ConvergenceDetector.
func (c *ConvergenceChecker) Converged(current, previous []core.TranscriptEntry, quorum int) bool {
	if len(current) == 0 {
		return false
	}
	if quorum < 1 {
		quorum = 1
	}

	markerVotes := 0
	for _, e := range current {
		if strings.Contains(e.Content, ReadyMarker) {
			markerVotes++
		}
	}
	if markerVotes >= quorum {
		return true
	}

	if len(previous) == 0 {
		return false
	}

	prior := make(map[core.VoiceID]string, len(previous))
	for _, e := range previous {
		prior[e.Speaker] = e.Content
	}

	stableVotes := 0
	for _, e := range current {
		before, ok := prior[e.Speaker]
		if !ok {
			continue
		}
		if JaccardSimilarity(wordSet(before), wordSet(e.Content)) >= c.SimilarityThreshold {
			stableVotes++
		}
	}
	return stableVotes >= quorum
}

// JaccardSimilarity calculates the Jaccard index |A ∩ B| / |A ∪ B|.
func JaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	intersection := 0
	for item := range a {
		if b[item] {
			intersection++
		}
	}

	union := len(a)
	for item := range b {
		if !a[item] {
			union++
		}
	}

	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// wordSet lowercases, strips punctuation, and splits into a word set.
func wordSet(text string) map[string]bool {
	text = strings.ToLower(text)

	var builder strings.Builder
	prevSpace := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			builder.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			builder.WriteRune(' ')
			prevSpace = true
		}
	}

	set := make(map[string]bool)
	for _, w := range strings.Fields(builder.String()) {
		set[w] = true
	}
	return set
}

var _ core.ConvergenceDetector = (*ConvergenceChecker)(nil)
