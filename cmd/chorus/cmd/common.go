package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chorus-dev/chorus/internal/config"
	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/logging"
	"github.com/chorus-dev/chorus/internal/provider"
)

const timeRound = 10 * time.Millisecond

// parseVoiceFlags turns --voice values into descriptors. Accepted forms:
// "model" and "id=model". Per-call limits come from config defaults.
func parseVoiceFlags(values []string) ([]core.VoiceDescriptor, error) {
	out := make([]core.VoiceDescriptor, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, fmt.Errorf("empty --voice value")
		}
		d := core.VoiceDescriptor{}
		if id, model, ok := strings.Cut(v, "="); ok {
			d.ID = core.VoiceID(strings.TrimSpace(id))
			d.Model = strings.TrimSpace(model)
		} else {
			d.Model = v
		}
		if d.Model == "" {
			return nil, fmt.Errorf("invalid --voice value %q", v)
		}
		out = append(out, d.Normalize())
	}
	return out, nil
}

// sessionInputs resolves the voices, budget, and options for one run,
// applying CLI overrides on top of the loaded config.
type sessionInputs struct {
	descs  []core.VoiceDescriptor
	budget core.Budget
	opts   core.SessionOptions
}

func resolveInputs(cfg *config.Config, f runFlags) (sessionInputs, error) {
	var in sessionInputs

	if len(f.voices) > 0 {
		descs, err := parseVoiceFlags(f.voices)
		if err != nil {
			return in, err
		}
		in.descs = descs
	} else {
		in.descs = cfg.Descriptors()
	}

	in.budget = cfg.Budget.Budget()
	if f.maxTokens >= 0 {
		in.budget.MaxTokens = f.maxTokens
	}
	if f.maxIterations >= 0 {
		in.budget.MaxIterations = f.maxIterations
	}
	if f.maxTime >= 0 {
		in.budget.MaxWallTime = f.maxTime
	}

	in.opts = cfg.Session.Options()
	if f.skipInit {
		in.opts.SkipInitialization = true
	}
	return in, nil
}

// runFlags holds the per-run CLI overrides shared by run and direct.
type runFlags struct {
	voices        []string
	maxTokens     int
	maxIterations int
	maxTime       time.Duration
	skipInit      bool
	output        string
}

func registerRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringArrayVar(&f.voices, "voice", nil,
		`voice to include ("model" or "id=model"), repeatable`)
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", -1,
		"total token budget (0 disables the limit)")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", -1,
		"total voice-call budget (0 disables the limit)")
	cmd.Flags().DurationVar(&f.maxTime, "max-time", -1,
		"wall-time budget (0 disables the limit)")
	cmd.Flags().BoolVar(&f.skipInit, "skip-init", false,
		"skip the initialization phase")
	cmd.Flags().StringVarP(&f.output, "output", "o", "",
		"write a full session report to this file")
}

// buildClient constructs the provider client from config.
func buildClient(cfg *config.Config, logger *logging.Logger) *provider.Client {
	return provider.NewClient(provider.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		HTTPTimeout: cfg.Provider.HTTPTimeout,
	}, logger)
}

// writeReport writes the session report to a file atomically.
func writeReport(path string, result *core.Result, session *core.Session) error {
	var b strings.Builder
	b.WriteString("# Session Report\n\n")
	fmt.Fprintf(&b, "Session: %s\n\n", session.ID)
	b.WriteString("## Answer\n\n")
	b.WriteString(result.Answer)
	b.WriteString("\n\n## Usage\n\n")
	fmt.Fprintf(&b, "- Tokens used: %d\n", result.Usage.TokensUsed)
	fmt.Fprintf(&b, "- Transcript tokens: %d\n", session.Transcript.TokenCost())
	fmt.Fprintf(&b, "- Iterations: %d\n", result.Usage.IterationsUsed)
	fmt.Fprintf(&b, "- Elapsed: %s\n", result.Usage.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Phases completed: %d\n", result.Usage.PhasesCompleted)
	fmt.Fprintf(&b, "- Degraded: %v\n", result.Usage.Degraded)
	b.WriteString("\n## Transcript\n\n")
	for _, e := range session.Transcript.Entries() {
		fmt.Fprintf(&b, "**[%s] %s**\n\n%s\n\n", e.Phase, e.Speaker, e.Content)
	}
	return config.AtomicWrite(path, []byte(b.String()))
}
