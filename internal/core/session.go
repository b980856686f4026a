package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionID uniquely identifies a session run.
type SessionID string

// NewSessionID generates a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID("ses-" + uuid.NewString())
}

// SessionOptions tune a single session's behavior.
type SessionOptions struct {
	// SkipInitialization drops the initialization phase entirely.
	SkipInitialization bool

	// MaxPhaseRounds bounds internal sub-rounds within the discussion
	// phases (analysis, generation).
	MaxPhaseRounds int

	// Temperature passed to every voice call.
	Temperature float64
}

// DefaultSessionOptions returns the option defaults.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		MaxPhaseRounds: 3,
		Temperature:    0.7,
	}
}

// Session is the aggregate root for one user request: the configured
// voices, the shared transcript, the live budget, and the phase machine.
// A session lives for the duration of one request and is discarded after
// the final answer is returned.
type Session struct {
	ID         SessionID
	Prompt     string
	Voices     []VoiceDescriptor
	Transcript *Transcript
	Budget     *BudgetTracker
	Phases     *PhaseMachine
	Options    SessionOptions
	CreatedAt  time.Time

	degraded bool
}

// NewSession validates the configuration and assembles a session.
// At least one voice descriptor must be present.
func NewSession(prompt string, voices []VoiceDescriptor, budget Budget, opts SessionOptions) (*Session, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrInvalidConfiguration(CodeEmptyPrompt, "prompt cannot be empty")
	}
	if len(voices) == 0 {
		return nil, ErrInvalidConfiguration(CodeNoVoices, "at least one voice must be configured")
	}
	if opts.MaxPhaseRounds < 1 {
		opts.MaxPhaseRounds = DefaultSessionOptions().MaxPhaseRounds
	}

	normalized := make([]VoiceDescriptor, len(voices))
	seen := make(map[VoiceID]bool, len(voices))
	for i, d := range voices {
		d = d.Normalize()
		if seen[d.ID] {
			return nil, ErrInvalidConfiguration(CodeInvalidConfig, "duplicate voice id: "+string(d.ID))
		}
		seen[d.ID] = true
		normalized[i] = d
	}

	s := &Session{
		ID:         NewSessionID(),
		Prompt:     prompt,
		Voices:     normalized,
		Transcript: NewTranscript(),
		Budget:     NewBudgetTracker(budget),
		Phases:     NewPhaseMachine(opts.MaxPhaseRounds),
		Options:    opts,
		CreatedAt:  time.Now(),
	}
	s.Transcript.Append(TranscriptEntry{
		Phase:   PhaseInitialization,
		Speaker: SpeakerUser,
		Content: prompt,
	})
	return s, nil
}

// MarkDegraded records that a fallback or reduced-roster path was taken.
func (s *Session) MarkDegraded() {
	s.degraded = true
}

// Degraded reports whether any fallback path was taken.
func (s *Session) Degraded() bool {
	return s.degraded
}

// Usage returns the session's resource usage summary so far.
func (s *Session) Usage() UsageSummary {
	return UsageSummary{
		TokensUsed:      s.Budget.TokensUsed(),
		IterationsUsed:  s.Budget.Iterations(),
		Elapsed:         s.Budget.Elapsed(),
		PhasesCompleted: s.Phases.SatisfiedCount(),
		Degraded:        s.degraded,
	}
}

// UsageSummary reports what a session consumed.
type UsageSummary struct {
	TokensUsed      int           `json:"tokens_used"`
	IterationsUsed  int           `json:"iterations_used"`
	Elapsed         time.Duration `json:"elapsed"`
	PhasesCompleted int           `json:"phases_completed"`
	Degraded        bool          `json:"degraded"`
}

// Result is the final output of a session: one synthesized answer plus the
// usage summary.
type Result struct {
	Answer string       `json:"answer"`
	Usage  UsageSummary `json:"usage"`
}
