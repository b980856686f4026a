package core

import "fmt"

// Phase represents a stage in the collaborative response sequence.
type Phase string

const (
	// PhaseInitialization is the first phase where each voice produces one
	// short statement of its understanding and role.
	PhaseInitialization Phase = "initialization"

	// PhaseAnalysis is the second phase where voices discuss the request,
	// bounded by internal rounds and a convergence signal.
	PhaseAnalysis Phase = "analysis"

	// PhasePlanning is the third phase where a designated voice proposes a
	// response strategy and the others may add one critique round.
	PhasePlanning Phase = "planning"

	// PhaseGeneration is the drafting phase: one voice drafts, the others
	// refine, bounded by rounds and per-round budget reservations.
	PhaseGeneration Phase = "generation"

	// PhaseIntegration merges contributions into the final answer.
	// It always runs exactly once, falling back to the best draft when the
	// budget cannot afford another call.
	PhaseIntegration Phase = "integration"

	// PhaseDone is the terminal state after integration completes.
	PhaseDone Phase = "done"

	// PhaseAborted is the terminal state reached when the budget is
	// exhausted before integration can run normally.
	PhaseAborted Phase = "aborted"
)

// AllPhases returns the executable phases in their fixed forward order.
func AllPhases() []Phase {
	return []Phase{PhaseInitialization, PhaseAnalysis, PhasePlanning, PhaseGeneration, PhaseIntegration}
}

// PhaseOrder returns the numeric order of a phase (0-indexed).
func PhaseOrder(p Phase) int {
	switch p {
	case PhaseInitialization:
		return 0
	case PhaseAnalysis:
		return 1
	case PhasePlanning:
		return 2
	case PhaseGeneration:
		return 3
	case PhaseIntegration:
		return 4
	case PhaseDone:
		return 5
	default:
		return -1
	}
}

// NextPhase returns the phase following the given phase.
// Returns empty string if the phase has no successor.
func NextPhase(p Phase) Phase {
	switch p {
	case PhaseInitialization:
		return PhaseAnalysis
	case PhaseAnalysis:
		return PhasePlanning
	case PhasePlanning:
		return PhaseGeneration
	case PhaseGeneration:
		return PhaseIntegration
	case PhaseIntegration:
		return PhaseDone
	default:
		return ""
	}
}

// ValidPhase checks if a phase string is valid.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseInitialization, PhaseAnalysis, PhasePlanning, PhaseGeneration, PhaseIntegration, PhaseDone, PhaseAborted:
		return true
	default:
		return false
	}
}

// ParsePhase converts a string to a Phase with validation.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !ValidPhase(p) {
		return "", fmt.Errorf("invalid phase: %s", s)
	}
	return p, nil
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Terminal reports whether the phase is a terminal state.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseAborted
}

// Description returns a human-readable description of the phase.
func (p Phase) Description() string {
	switch p {
	case PhaseInitialization:
		return "Voices state their understanding and role"
	case PhaseAnalysis:
		return "Voices discuss the request until convergence"
	case PhasePlanning:
		return "One voice proposes a strategy, others critique"
	case PhaseGeneration:
		return "Iterative drafting and refinement"
	case PhaseIntegration:
		return "Merge contributions into the final answer"
	case PhaseDone:
		return "Session completed"
	case PhaseAborted:
		return "Session aborted on budget exhaustion"
	default:
		return "Unknown phase"
	}
}

// PhaseStatus represents the lifecycle state of a phase record.
type PhaseStatus string

const (
	PhaseStatusPending   PhaseStatus = "pending"
	PhaseStatusActive    PhaseStatus = "active"
	PhaseStatusSatisfied PhaseStatus = "satisfied"
	PhaseStatusAborted   PhaseStatus = "aborted"
)

// PhaseRecord tracks one phase of a session.
type PhaseRecord struct {
	Tag       Phase       `json:"tag"`
	Status    PhaseStatus `json:"status"`
	MaxRounds int         `json:"max_rounds"`
	Rounds    int         `json:"rounds"`
}

// PhaseMachine advances a session through the fixed phase sequence.
// Exactly one phase is active at a time; transitions are strictly forward,
// plus an abort transition reachable from any phase.
type PhaseMachine struct {
	records []PhaseRecord
	current int
	aborted bool
}

// NewPhaseMachine creates a machine covering all executable phases.
// maxRounds bounds internal sub-rounds for the discussion phases.
func NewPhaseMachine(maxRounds int) *PhaseMachine {
	if maxRounds < 1 {
		maxRounds = 1
	}
	phases := AllPhases()
	records := make([]PhaseRecord, len(phases))
	for i, p := range phases {
		rounds := maxRounds
		switch p {
		case PhaseInitialization, PhaseIntegration:
			rounds = 1
		case PhasePlanning:
			// proposal plus at most one critique round
			rounds = 2
		}
		records[i] = PhaseRecord{Tag: p, Status: PhaseStatusPending, MaxRounds: rounds}
	}
	records[0].Status = PhaseStatusActive
	return &PhaseMachine{records: records}
}

// Current returns the active phase record, or nil in a terminal state.
func (m *PhaseMachine) Current() *PhaseRecord {
	if m.aborted || m.current >= len(m.records) {
		return nil
	}
	return &m.records[m.current]
}

// CurrentPhase returns the tag of the active phase, or a terminal tag.
func (m *PhaseMachine) CurrentPhase() Phase {
	if m.aborted {
		return PhaseAborted
	}
	if m.current >= len(m.records) {
		return PhaseDone
	}
	return m.records[m.current].Tag
}

// Satisfy marks the active phase satisfied and activates the next one.
func (m *PhaseMachine) Satisfy() {
	if m.aborted || m.current >= len(m.records) {
		return
	}
	m.records[m.current].Status = PhaseStatusSatisfied
	m.current++
	if m.current < len(m.records) {
		m.records[m.current].Status = PhaseStatusActive
	}
}

// Skip marks the active phase aborted without satisfying it and moves on.
// Used when budget pressure forces a jump to integration.
func (m *PhaseMachine) Skip() {
	if m.aborted || m.current >= len(m.records) {
		return
	}
	m.records[m.current].Status = PhaseStatusAborted
	m.current++
	if m.current < len(m.records) {
		m.records[m.current].Status = PhaseStatusActive
	}
}

// SkipTo aborts phases until the given phase is active.
func (m *PhaseMachine) SkipTo(target Phase) {
	for {
		cur := m.Current()
		if cur == nil || cur.Tag == target {
			return
		}
		m.Skip()
	}
}

// Abort moves the machine into the aborted terminal state.
func (m *PhaseMachine) Abort() {
	if m.current < len(m.records) {
		m.records[m.current].Status = PhaseStatusAborted
	}
	m.aborted = true
}

// Done reports whether every phase has been satisfied.
func (m *PhaseMachine) Done() bool {
	return !m.aborted && m.current >= len(m.records)
}

// Aborted reports whether the machine was aborted.
func (m *PhaseMachine) Aborted() bool {
	return m.aborted
}

// SatisfiedCount returns how many phases completed normally.
func (m *PhaseMachine) SatisfiedCount() int {
	n := 0
	for _, r := range m.records {
		if r.Status == PhaseStatusSatisfied {
			n++
		}
	}
	return n
}

// Records returns a copy of all phase records.
func (m *PhaseMachine) Records() []PhaseRecord {
	out := make([]PhaseRecord, len(m.records))
	copy(out, m.records)
	return out
}
