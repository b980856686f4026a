package core

import "context"

// ModelClient is the boundary to the model-hosting API. Implementations
// turn a conversation context and generation parameters into a completion
// or a typed DomainError; the orchestration core treats this as injectable
// so tests can substitute scripted voices.
type ModelClient interface {
	// Call dispatches one generation request for the given descriptor.
	// The context carries the per-call deadline; entries are the
	// conversation context in transcript order.
	Call(ctx context.Context, desc VoiceDescriptor, entries []TranscriptEntry, params GenerateParams) (*Completion, error)
}

// ModelClientFunc adapts a function to the ModelClient interface.
type ModelClientFunc func(ctx context.Context, desc VoiceDescriptor, entries []TranscriptEntry, params GenerateParams) (*Completion, error)

// Call implements ModelClient.
func (f ModelClientFunc) Call(ctx context.Context, desc VoiceDescriptor, entries []TranscriptEntry, params GenerateParams) (*Completion, error) {
	return f(ctx, desc, entries, params)
}

// ConvergenceDetector decides whether a discussion round has settled.
// The heuristic is inherently fuzzy, so it lives behind an interface and
// can be swapped independently of the phase transition logic.
type ConvergenceDetector interface {
	// Converged inspects the current round's outputs against the prior
	// round's. quorum is the number of live voices that must agree.
	Converged(current, previous []TranscriptEntry, quorum int) bool
}
