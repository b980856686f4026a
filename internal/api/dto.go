package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/orchestrator"
)

// SessionRequest is the request body for the session endpoints. Voices and
// budget are optional; omitted fields use the server's configured defaults.
type SessionRequest struct {
	Prompt             string         `json:"prompt"`
	Voices             []VoiceRequest `json:"voices,omitempty"`
	Budget             *BudgetRequest `json:"budget,omitempty"`
	SkipInitialization *bool          `json:"skip_initialization,omitempty"`
}

// VoiceRequest describes one participant voice.
type VoiceRequest struct {
	ID                 string `json:"id,omitempty"`
	Model              string `json:"model"`
	Role               string `json:"role,omitempty"`
	MaxTokens          int    `json:"max_tokens,omitempty"`
	CallTimeoutSeconds int    `json:"call_timeout_seconds,omitempty"`
}

// BudgetRequest overrides the configured session budget.
type BudgetRequest struct {
	MaxTokens          int `json:"max_tokens,omitempty"`
	MaxIterations      int `json:"max_iterations,omitempty"`
	MaxWallTimeSeconds int `json:"max_wall_time_seconds,omitempty"`
}

// SessionResponse is the response body for a full session run.
type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Answer    string            `json:"answer"`
	Usage     core.UsageSummary `json:"usage"`
}

// DirectResponse is the response body for a direct (uncoordinated) run.
type DirectResponse struct {
	SessionID string                      `json:"session_id"`
	Answers   []orchestrator.DirectAnswer `json:"answers"`
	Usage     core.UsageSummary           `json:"usage"`
}

func (r *SessionRequest) descriptors() []core.VoiceDescriptor {
	out := make([]core.VoiceDescriptor, len(r.Voices))
	for i, v := range r.Voices {
		out[i] = core.VoiceDescriptor{
			ID:          core.VoiceID(v.ID),
			Model:       v.Model,
			Role:        v.Role,
			MaxTokens:   v.MaxTokens,
			CallTimeout: time.Duration(v.CallTimeoutSeconds) * time.Second,
		}.Normalize()
	}
	return out
}

func (b *BudgetRequest) budget() core.Budget {
	return core.Budget{
		MaxTokens:     b.MaxTokens,
		MaxIterations: b.MaxIterations,
		MaxWallTime:   time.Duration(b.MaxWallTimeSeconds) * time.Second,
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps the error taxonomy onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return http.StatusInternalServerError
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusBadRequest
	case core.ErrCatBudget:
		return http.StatusConflict
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
