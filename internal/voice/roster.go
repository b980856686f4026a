package voice

import (
	"sync"

	"github.com/chorus-dev/chorus/internal/core"
)

// Roster is the live voice set for a session. It starts from the immutable
// configured descriptor list; dropping a persistently failing voice is a
// data-level removal that leaves the descriptors untouched. Live order is
// always descriptor order, which is the deterministic tie-break for
// transcript appends within a concurrent round.
type Roster struct {
	mu      sync.RWMutex
	voices  []*Voice
	dropped map[core.VoiceID]string
}

// NewRoster builds a roster from voices in descriptor order.
func NewRoster(voices []*Voice) *Roster {
	return &Roster{
		voices:  voices,
		dropped: make(map[core.VoiceID]string),
	}
}

// Live returns the remaining voices in descriptor order.
func (r *Roster) Live() []*Voice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Voice, 0, len(r.voices))
	for _, v := range r.voices {
		if _, gone := r.dropped[v.ID()]; !gone {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of live voices.
func (r *Roster) Len() int {
	return len(r.Live())
}

// Get returns the live voice with the given id, if present.
func (r *Roster) Get(id core.VoiceID) (*Voice, bool) {
	for _, v := range r.Live() {
		if v.ID() == id {
			return v, true
		}
	}
	return nil, false
}

// Drop excludes a voice from the remainder of the session.
func (r *Roster) Drop(id core.VoiceID, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[id] = reason
}

// Dropped returns the excluded voices and the reasons they were dropped.
func (r *Roster) Dropped() map[core.VoiceID]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[core.VoiceID]string, len(r.dropped))
	for id, reason := range r.dropped {
		out[id] = reason
	}
	return out
}

// AnyDropped reports whether the roster has been reduced.
func (r *Roster) AnyDropped() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dropped) > 0
}

// Rotate returns the live voice at position i modulo the live count.
// Used to rotate the proposer and drafter roles across rounds.
func (r *Roster) Rotate(i int) (*Voice, bool) {
	live := r.Live()
	if len(live) == 0 {
		return nil, false
	}
	return live[i%len(live)], true
}
