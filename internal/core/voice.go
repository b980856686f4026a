package core

import "time"

// VoiceID uniquely identifies a voice within a session.
type VoiceID string

// VoiceDescriptor describes one configured remote model participant.
// Descriptors are created at session configuration time and are immutable
// for the session's lifetime.
type VoiceDescriptor struct {
	ID          VoiceID       `json:"id"`
	Model       string        `json:"model"`
	Role        string        `json:"role,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
	CallTimeout time.Duration `json:"call_timeout"`
}

// DefaultMaxCallTokens is used when a descriptor omits a per-call ceiling.
const DefaultMaxCallTokens = 1000

// DefaultCallTimeout is used when a descriptor omits a per-call timeout.
const DefaultCallTimeout = 60 * time.Second

// Normalize fills in defaults for zero-valued descriptor fields.
func (d VoiceDescriptor) Normalize() VoiceDescriptor {
	if d.ID == "" {
		d.ID = VoiceID(d.Model)
	}
	if d.MaxTokens <= 0 {
		d.MaxTokens = DefaultMaxCallTokens
	}
	if d.CallTimeout <= 0 {
		d.CallTimeout = DefaultCallTimeout
	}
	return d
}

// GenerateParams configures a single voice call.
type GenerateParams struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Completion is the successful result of a voice call.
// TokensConsumed is reported even for truncated or partial output.
type Completion struct {
	Text           string
	TokensConsumed int
}
