package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chorus-dev/chorus/internal/core"
)

func quickRetry(attempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestVoice_Generate_ClampsMaxTokens(t *testing.T) {
	var gotParams core.GenerateParams
	client := core.ModelClientFunc(func(_ context.Context, _ core.VoiceDescriptor, _ []core.TranscriptEntry, params core.GenerateParams) (*core.Completion, error) {
		gotParams = params
		return &core.Completion{Text: "ok", TokensConsumed: 1}, nil
	})

	v := New(core.VoiceDescriptor{ID: "a", Model: "m", MaxTokens: 100}, client, quickRetry(1), nil)

	if _, err := v.Generate(context.Background(), nil, core.GenerateParams{MaxTokens: 5000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotParams.MaxTokens != 100 {
		t.Fatalf("request above ceiling must clamp to 100, got %d", gotParams.MaxTokens)
	}

	if _, err := v.Generate(context.Background(), nil, core.GenerateParams{MaxTokens: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotParams.MaxTokens != 30 {
		t.Fatalf("request below ceiling must pass through, got %d", gotParams.MaxTokens)
	}

	if _, err := v.Generate(context.Background(), nil, core.GenerateParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotParams.MaxTokens != 100 {
		t.Fatalf("zero request must default to the ceiling, got %d", gotParams.MaxTokens)
	}
}

func TestVoice_Generate_RetriesOnlyTransient(t *testing.T) {
	cases := []struct {
		name      string
		err       *core.DomainError
		wantCalls int
	}{
		{"transient retried to bound", core.ErrProviderUnavailable("down"), 3},
		{"rejection not retried", core.ErrProviderRejected("bad request"), 1},
		{"quota not retried", core.ErrQuotaExceeded("ceiling refused"), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			client := core.ModelClientFunc(func(context.Context, core.VoiceDescriptor, []core.TranscriptEntry, core.GenerateParams) (*core.Completion, error) {
				calls++
				return nil, tc.err
			})

			v := New(core.VoiceDescriptor{ID: "a", Model: "m"}, client, quickRetry(3), nil)
			_, err := v.Generate(context.Background(), nil, core.GenerateParams{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if calls != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, calls)
			}
		})
	}
}

func TestVoice_Generate_TransientRecovers(t *testing.T) {
	calls := 0
	client := core.ModelClientFunc(func(context.Context, core.VoiceDescriptor, []core.TranscriptEntry, core.GenerateParams) (*core.Completion, error) {
		calls++
		if calls < 3 {
			return nil, core.ErrProviderUnavailable("flapping")
		}
		return &core.Completion{Text: "recovered", TokensConsumed: 2}, nil
	})

	v := New(core.VoiceDescriptor{ID: "a", Model: "m"}, client, quickRetry(3), nil)
	got, err := v.Generate(context.Background(), nil, core.GenerateParams{})
	if err != nil {
		t.Fatalf("transient failures within the bound must be absorbed: %v", err)
	}
	if got.Text != "recovered" {
		t.Fatalf("unexpected completion: %q", got.Text)
	}
}

func TestVoice_Generate_TimeoutSurfaces(t *testing.T) {
	client := core.ModelClientFunc(func(ctx context.Context, _ core.VoiceDescriptor, _ []core.TranscriptEntry, _ core.GenerateParams) (*core.Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	v := New(core.VoiceDescriptor{ID: "a", Model: "m", CallTimeout: 20 * time.Millisecond}, client, quickRetry(1), nil)
	_, err := v.Generate(context.Background(), nil, core.GenerateParams{})
	if !core.IsCategory(err, core.ErrCatTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestVoice_Generate_CancellationIsTyped(t *testing.T) {
	client := core.ModelClientFunc(func(ctx context.Context, _ core.VoiceDescriptor, _ []core.TranscriptEntry, _ core.GenerateParams) (*core.Completion, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	v := New(core.VoiceDescriptor{ID: "a", Model: "m", CallTimeout: time.Second}, client, quickRetry(1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(5*time.Millisecond, cancel)
	defer timer.Stop()

	_, err := v.Generate(ctx, nil, core.GenerateParams{})
	if !core.IsCategory(err, core.ErrCatTimeout) {
		t.Fatalf("expected a typed error for cancellation, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation cause must remain observable, got %v", err)
	}
}

func TestRetryPolicy_CalculateDelay(t *testing.T) {
	p := &RetryPolicy{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0}

	if got := p.CalculateDelayNoJitter(1); got != time.Second {
		t.Fatalf("attempt 1: expected 1s, got %v", got)
	}
	if got := p.CalculateDelayNoJitter(2); got != 2*time.Second {
		t.Fatalf("attempt 2: expected 2s, got %v", got)
	}
	if got := p.CalculateDelayNoJitter(10); got != 10*time.Second {
		t.Fatalf("delay must cap at MaxDelay, got %v", got)
	}
}

func TestRetryPolicy_ExecuteRespectsContext(t *testing.T) {
	p := quickRetry(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Execute(ctx, func(context.Context) error {
		return core.ErrProviderUnavailable("down")
	})
	if err != context.Canceled {
		t.Fatalf("expected context error, got %v", err)
	}
}
