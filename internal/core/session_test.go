package core

import (
	"testing"
	"time"
)

func testDescriptors() []VoiceDescriptor {
	return []VoiceDescriptor{
		{ID: "alpha", Model: "provider/alpha", MaxTokens: 500, CallTimeout: time.Second},
		{ID: "beta", Model: "provider/beta", MaxTokens: 500, CallTimeout: time.Second},
	}
}

func TestNewSession_SeedsTranscript(t *testing.T) {
	s, err := NewSession("write a haiku", testDescriptors(), Budget{}, DefaultSessionOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("expected generated session id")
	}
	entries := s.Transcript.Entries()
	if len(entries) != 1 || entries[0].Speaker != SpeakerUser {
		t.Fatalf("expected transcript seeded with user prompt")
	}
	if entries[0].Content != "write a haiku" {
		t.Fatalf("expected prompt as first entry")
	}
}

func TestNewSession_ZeroVoices(t *testing.T) {
	_, err := NewSession("prompt", nil, Budget{}, DefaultSessionOptions())
	if err == nil {
		t.Fatalf("expected error for zero voices")
	}
	if !IsCode(err, CodeNoVoices) {
		t.Fatalf("expected NO_VOICES, got %v", err)
	}
	if !IsCategory(err, ErrCatValidation) {
		t.Fatalf("expected validation category")
	}
}

func TestNewSession_EmptyPrompt(t *testing.T) {
	_, err := NewSession("   ", testDescriptors(), Budget{}, DefaultSessionOptions())
	if !IsCode(err, CodeEmptyPrompt) {
		t.Fatalf("expected EMPTY_PROMPT, got %v", err)
	}
}

func TestNewSession_DuplicateVoiceIDs(t *testing.T) {
	voices := []VoiceDescriptor{
		{ID: "dup", Model: "m1"},
		{ID: "dup", Model: "m2"},
	}
	_, err := NewSession("prompt", voices, Budget{}, DefaultSessionOptions())
	if !IsCode(err, CodeInvalidConfig) {
		t.Fatalf("expected duplicate id rejection, got %v", err)
	}
}

func TestNewSession_NormalizesDescriptors(t *testing.T) {
	voices := []VoiceDescriptor{{Model: "provider/solo"}}
	s, err := NewSession("prompt", voices, Budget{}, DefaultSessionOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := s.Voices[0]
	if d.ID != "provider/solo" {
		t.Fatalf("expected id defaulted from model, got %s", d.ID)
	}
	if d.MaxTokens != DefaultMaxCallTokens {
		t.Fatalf("expected default token ceiling")
	}
	if d.CallTimeout != DefaultCallTimeout {
		t.Fatalf("expected default call timeout")
	}
}

func TestSession_UsageAndDegraded(t *testing.T) {
	s, err := NewSession("prompt", testDescriptors(), Budget{MaxTokens: 100}, DefaultSessionOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grant, _ := s.Budget.Reserve(40)
	grant.Commit(40)
	s.Phases.Satisfy()
	s.MarkDegraded()

	u := s.Usage()
	if u.TokensUsed != 40 {
		t.Fatalf("expected 40 tokens used, got %d", u.TokensUsed)
	}
	if u.IterationsUsed != 1 {
		t.Fatalf("expected 1 iteration, got %d", u.IterationsUsed)
	}
	if u.PhasesCompleted != 1 {
		t.Fatalf("expected 1 phase completed, got %d", u.PhasesCompleted)
	}
	if !u.Degraded {
		t.Fatalf("expected degraded flag")
	}
}
