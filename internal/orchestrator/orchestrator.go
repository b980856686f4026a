// Package orchestrator drives a session through the phase sequence:
// dispatching voice calls, enforcing the budget at every dispatch point,
// degrading gracefully when voices fail or resources run low, and always
// delivering exactly one final answer or one typed error.
package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/events"
	"github.com/chorus-dev/chorus/internal/logging"
	"github.com/chorus-dev/chorus/internal/voice"
)

// Config holds orchestrator tuning knobs.
type Config struct {
	// SimilarityThreshold is the Jaccard threshold for convergence.
	SimilarityThreshold float64

	// PressureShare is the fraction of the token budget after which the
	// orchestrator switches to conservative prompts and skips optional
	// rounds.
	PressureShare float64
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		PressureShare:       0.7,
	}
}

// Orchestrator runs one session to completion.
type Orchestrator struct {
	config   *Config
	session  *core.Session
	roster   *voice.Roster
	detector core.ConvergenceDetector
	bus      *events.Bus
	logger   *logging.Logger

	degradedNotified bool
}

// New creates an orchestrator for the given session and roster.
func New(
	config *Config,
	session *core.Session,
	roster *voice.Roster,
	detector core.ConvergenceDetector,
	bus *events.Bus,
	logger *logging.Logger,
) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.SimilarityThreshold <= 0 || config.SimilarityThreshold > 1 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if config.PressureShare <= 0 || config.PressureShare >= 1 {
		config.PressureShare = DefaultConfig().PressureShare
	}
	if detector == nil {
		detector = NewConvergenceChecker(config.SimilarityThreshold)
	}
	if bus == nil {
		bus = events.NewBus(0)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		config:   config,
		session:  session,
		roster:   roster,
		detector: detector,
		bus:      bus,
		logger:   logger.WithSession(string(session.ID)),
	}
}

// BuildRoster assembles the live roster for a session, wiring every
// descriptor to the shared model client.
func BuildRoster(s *core.Session, client core.ModelClient, retry *voice.RetryPolicy, logger *logging.Logger) *voice.Roster {
	voices := make([]*voice.Voice, len(s.Voices))
	for i, d := range s.Voices {
		voices[i] = voice.New(d, client, retry, logger)
	}
	return voice.NewRoster(voices)
}

// Run executes the full phase sequence and returns the final answer.
// Budget exhaustion mid-sequence is not an error: remaining phases are
// skipped and integration falls back to the best existing draft. The only
// exhaustion error is raised when no draft exists at all.
func (o *Orchestrator) Run(ctx context.Context) (*core.Result, error) {
	s := o.session
	o.logger.Info("session started",
		"voices", len(s.Voices),
		"prompt_length", len(s.Prompt),
	)

	if s.Options.SkipInitialization && s.Phases.CurrentPhase() == core.PhaseInitialization {
		s.Phases.Skip()
	}

	for {
		if err := ctx.Err(); err != nil {
			s.Phases.Abort()
			return nil, core.ErrTimeout("session cancelled").WithCause(err)
		}

		phase := s.Phases.CurrentPhase()
		if phase == core.PhaseIntegration {
			return o.runIntegration(ctx)
		}
		if phase.Terminal() {
			s.Phases.Abort()
			return nil, core.ErrResourceExhausted("session ended without integration")
		}

		o.bus.Publish(events.NewPhaseStartedEvent(string(s.ID), phase.String()))
		o.logger.WithPhase(phase.String()).Info("phase started")

		var err error
		switch phase {
		case core.PhaseInitialization:
			err = o.runInitialization(ctx)
		case core.PhaseAnalysis:
			err = o.runAnalysis(ctx)
		case core.PhasePlanning:
			err = o.runPlanning(ctx)
		case core.PhaseGeneration:
			err = o.runGeneration(ctx)
		}
		if err != nil {
			s.Phases.Abort()
			if cerr := ctx.Err(); cerr != nil {
				// A cancelled session is not a voice failure.
				return nil, core.ErrTimeout("session cancelled").WithCause(cerr)
			}
			return nil, err
		}

		if s.Budget.Exhausted() && s.Phases.CurrentPhase() != core.PhaseIntegration {
			o.bus.Publish(events.NewBudgetExhaustedEvent(
				string(s.ID), s.Phases.CurrentPhase().String(),
				s.Budget.TokensUsed(), s.Budget.Iterations(),
			))
			o.logger.Warn("budget exhausted, jumping to integration",
				"tokens_used", s.Budget.TokensUsed(),
				"iterations", s.Budget.Iterations(),
			)
			o.markDegraded("budget exhausted before integration")
			s.Phases.SkipTo(core.PhaseIntegration)
		}
	}
}

// DirectAnswer is one voice's standalone answer from a direct run.
type DirectAnswer struct {
	Voice  core.VoiceID `json:"voice"`
	Answer string       `json:"answer"`
	Tokens int          `json:"tokens"`
}

// Direct dispatches the prompt to every voice independently, with no
// collaboration phases, and returns each voice's answer in descriptor
// order. Budget limits still apply per call.
func (o *Orchestrator) Direct(ctx context.Context) ([]DirectAnswer, error) {
	live := o.roster.Live()
	if len(live) == 0 {
		return nil, core.ErrAllVoicesFailed(core.PhaseInitialization)
	}

	entries := o.session.Transcript.Entries()
	results := make([]turn, len(live))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range live {
		i, v := i, v
		g.Go(func() error {
			c, err := o.callVoice(gctx, v, entries)
			results[i] = turn{voice: v, completion: c, err: err}
			return nil
		})
	}
	_ = g.Wait()

	answers := make([]DirectAnswer, 0, len(results))
	for _, t := range results {
		if t.err != nil {
			o.logger.Warn("direct call failed", "voice", t.voice.ID(), "error", t.err)
			continue
		}
		answers = append(answers, DirectAnswer{
			Voice:  t.voice.ID(),
			Answer: t.completion.Text,
			Tokens: t.completion.TokensConsumed,
		})
	}
	if len(answers) == 0 {
		if cerr := ctx.Err(); cerr != nil {
			return nil, core.ErrTimeout("session cancelled").WithCause(cerr)
		}
		return nil, core.ErrAllVoicesFailed(core.PhaseInitialization)
	}
	return answers, nil
}

// markDegraded records degradation once and notifies subscribers.
func (o *Orchestrator) markDegraded(reason string) {
	o.session.MarkDegraded()
	if !o.degradedNotified {
		o.degradedNotified = true
		o.bus.Publish(events.NewSessionDegradedEvent(string(o.session.ID), reason))
	}
}

// underPressure reports whether the conservative-prompt threshold was hit.
func (o *Orchestrator) underPressure() bool {
	return o.session.Budget.TokenShareUsed() > o.config.PressureShare
}

// finish assembles the final result and closes out the session.
func (o *Orchestrator) finish(answer string) *core.Result {
	usage := o.session.Usage()
	o.bus.Publish(events.NewSessionCompletedEvent(
		string(o.session.ID),
		usage.TokensUsed, usage.IterationsUsed, usage.Elapsed, usage.Degraded,
	))
	o.logger.Info("session completed",
		"tokens_used", usage.TokensUsed,
		"iterations", usage.IterationsUsed,
		"elapsed", usage.Elapsed,
		"degraded", usage.Degraded,
	)
	return &core.Result{Answer: answer, Usage: usage}
}
