package core

import (
	"sync"
	"time"
)

// Reserved speaker identifiers for non-voice transcript entries.
const (
	SpeakerUser   VoiceID = "user"
	SpeakerSystem VoiceID = "system"
)

// TranscriptEntry is one turn of the shared conversation.
// Entries are immutable once appended.
type TranscriptEntry struct {
	Phase     Phase     `json:"phase"`
	Speaker   VoiceID   `json:"speaker"`
	Content   string    `json:"content"`
	TokenCost int       `json:"token_cost"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is the append-only ordered log of turns forming the shared
// context all voices read from. Append is serialized so entries have a
// total order; reads return copies.
type Transcript struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{entries: make([]TranscriptEntry, 0, 16)}
}

// Append adds an entry to the end of the transcript.
// Prior entries are never mutated or removed.
func (t *Transcript) Append(entry TranscriptEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
}

// Entries returns a copy of the full history in append order.
func (t *Transcript) Entries() []TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// PhaseEntries returns the entries recorded during a single phase.
func (t *Transcript) PhaseEntries(p Phase) []TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TranscriptEntry, 0)
	for _, e := range t.entries {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

// TokenCost returns the summed token cost of all entries.
func (t *Transcript) TokenCost() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	total := 0
	for _, e := range t.entries {
		total += e.TokenCost
	}
	return total
}
