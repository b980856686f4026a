package events

import "time"

// Event type constants for session lifecycle events.
const (
	TypePhaseStarted     = "phase_started"
	TypePhaseSatisfied   = "phase_satisfied"
	TypeVoiceCompleted   = "voice_completed"
	TypeVoiceDropped     = "voice_dropped"
	TypeBudgetExhausted  = "budget_exhausted"
	TypeSessionDegraded  = "session_degraded"
	TypeSessionCompleted = "session_completed"
)

// PhaseStartedEvent is emitted when a phase becomes active.
type PhaseStartedEvent struct {
	BaseEvent
	Phase string `json:"phase"`
}

// NewPhaseStartedEvent creates a new phase started event.
func NewPhaseStartedEvent(sessionID, phase string) PhaseStartedEvent {
	return PhaseStartedEvent{
		BaseEvent: NewBaseEvent(TypePhaseStarted, sessionID),
		Phase:     phase,
	}
}

// PhaseSatisfiedEvent is emitted when a phase's exit criterion is met.
type PhaseSatisfiedEvent struct {
	BaseEvent
	Phase    string        `json:"phase"`
	Rounds   int           `json:"rounds"`
	Duration time.Duration `json:"duration"`
}

// NewPhaseSatisfiedEvent creates a new phase satisfied event.
func NewPhaseSatisfiedEvent(sessionID, phase string, rounds int, duration time.Duration) PhaseSatisfiedEvent {
	return PhaseSatisfiedEvent{
		BaseEvent: NewBaseEvent(TypePhaseSatisfied, sessionID),
		Phase:     phase,
		Rounds:    rounds,
		Duration:  duration,
	}
}

// VoiceCompletedEvent is emitted after a voice call resolves.
type VoiceCompletedEvent struct {
	BaseEvent
	Voice  string `json:"voice"`
	Phase  string `json:"phase"`
	Tokens int    `json:"tokens"`
}

// NewVoiceCompletedEvent creates a new voice completed event.
func NewVoiceCompletedEvent(sessionID, voice, phase string, tokens int) VoiceCompletedEvent {
	return VoiceCompletedEvent{
		BaseEvent: NewBaseEvent(TypeVoiceCompleted, sessionID),
		Voice:     voice,
		Phase:     phase,
		Tokens:    tokens,
	}
}

// VoiceDroppedEvent is emitted when a voice is excluded from the session.
type VoiceDroppedEvent struct {
	BaseEvent
	Voice  string `json:"voice"`
	Reason string `json:"reason"`
}

// NewVoiceDroppedEvent creates a new voice dropped event.
func NewVoiceDroppedEvent(sessionID, voice, reason string) VoiceDroppedEvent {
	return VoiceDroppedEvent{
		BaseEvent: NewBaseEvent(TypeVoiceDropped, sessionID),
		Voice:     voice,
		Reason:    reason,
	}
}

// BudgetExhaustedEvent is emitted when a budget dimension runs out.
type BudgetExhaustedEvent struct {
	BaseEvent
	Phase      string `json:"phase"`
	TokensUsed int    `json:"tokens_used"`
	Iterations int    `json:"iterations"`
}

// NewBudgetExhaustedEvent creates a new budget exhausted event.
func NewBudgetExhaustedEvent(sessionID, phase string, tokensUsed, iterations int) BudgetExhaustedEvent {
	return BudgetExhaustedEvent{
		BaseEvent:  NewBaseEvent(TypeBudgetExhausted, sessionID),
		Phase:      phase,
		TokensUsed: tokensUsed,
		Iterations: iterations,
	}
}

// SessionDegradedEvent is emitted the first time a fallback path is taken.
type SessionDegradedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

// NewSessionDegradedEvent creates a new session degraded event.
func NewSessionDegradedEvent(sessionID, reason string) SessionDegradedEvent {
	return SessionDegradedEvent{
		BaseEvent: NewBaseEvent(TypeSessionDegraded, sessionID),
		Reason:    reason,
	}
}

// SessionCompletedEvent is emitted when the final answer is produced.
type SessionCompletedEvent struct {
	BaseEvent
	TokensUsed int           `json:"tokens_used"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	Degraded   bool          `json:"degraded"`
}

// NewSessionCompletedEvent creates a new session completed event.
func NewSessionCompletedEvent(sessionID string, tokensUsed, iterations int, elapsed time.Duration, degraded bool) SessionCompletedEvent {
	return SessionCompletedEvent{
		BaseEvent:  NewBaseEvent(TypeSessionCompleted, sessionID),
		TokensUsed: tokensUsed,
		Iterations: iterations,
		Elapsed:    elapsed,
		Degraded:   degraded,
	}
}
