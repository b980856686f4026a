// Package voice wraps one remote model endpoint behind the generate
// contract: conversation context plus parameters in, completion or typed
// error out. A Voice keeps no state between calls.
package voice

import (
	"context"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/logging"
)

// Voice is a stateless-per-call wrapper around one remote model endpoint.
// It clamps token requests to the descriptor's ceiling, applies the per-call
// timeout, and retries transient provider failures locally so they never
// surface past the voice boundary.
type Voice struct {
	desc   core.VoiceDescriptor
	client core.ModelClient
	retry  *RetryPolicy
	logger *logging.Logger
}

// New creates a voice for the given descriptor.
func New(desc core.VoiceDescriptor, client core.ModelClient, retry *RetryPolicy, logger *logging.Logger) *Voice {
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Voice{
		desc:   desc.Normalize(),
		client: client,
		retry:  retry,
		logger: logger.WithVoice(string(desc.ID)),
	}
}

// ID returns the voice identifier.
func (v *Voice) ID() core.VoiceID {
	return v.desc.ID
}

// Descriptor returns the immutable voice descriptor.
func (v *Voice) Descriptor() core.VoiceDescriptor {
	return v.desc
}

// Generate produces a completion for the given conversation context.
// params.MaxTokens is clamped to the descriptor ceiling; the caller is
// responsible for clamping it to whatever remains in the session budget.
// Transient errors are retried up to the policy bound with backoff; all
// other errors are surfaced as-is.
func (v *Voice) Generate(ctx context.Context, entries []core.TranscriptEntry, params core.GenerateParams) (*core.Completion, error) {
	if params.MaxTokens <= 0 || params.MaxTokens > v.desc.MaxTokens {
		params.MaxTokens = v.desc.MaxTokens
	}
	if params.Timeout <= 0 {
		params.Timeout = v.desc.CallTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	var completion *core.Completion
	err := v.retry.Execute(callCtx, func(ctx context.Context) error {
		var callErr error
		completion, callErr = v.client.Call(ctx, v.desc, entries, params)
		return callErr
	})
	if err != nil {
		switch {
		case callCtx.Err() == context.DeadlineExceeded:
			err = core.ErrTimeout("voice call exceeded " + params.Timeout.String()).WithCause(err)
		case ctx.Err() == context.Canceled:
			// The session was cancelled above the voice, not a voice fault.
			err = core.ErrTimeout("voice call cancelled").WithCause(context.Canceled)
		}
		v.logger.Warn("voice call failed",
			"model", v.desc.Model,
			"error", err,
		)
		return nil, err
	}

	v.logger.Debug("voice call completed",
		"model", v.desc.Model,
		"tokens", completion.TokensConsumed,
	)
	return completion, nil
}
