package orchestrator

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/events"
	"github.com/chorus-dev/chorus/internal/voice"
)

// turn is the outcome of one voice call within a round.
type turn struct {
	voice      *voice.Voice
	completion *core.Completion
	err        error
}

// callVoice dispatches one call through the budget checkpoint. The
// reservation covers the voice's token ceiling clamped to whatever remains;
// it is committed with the actual consumption on success and released in
// full on failure.
func (o *Orchestrator) callVoice(ctx context.Context, v *voice.Voice, entries []core.TranscriptEntry) (*core.Completion, error) {
	want := v.Descriptor().MaxTokens
	if rem := o.session.Budget.Remaining(); rem.TokensLimited() && want > rem.Tokens {
		want = rem.Tokens
	}
	grant, ok := o.session.Budget.Reserve(want)
	if !ok || want == 0 {
		if grant != nil {
			grant.Release()
		}
		return nil, core.ErrResourceExhausted("budget cannot cover another call")
	}

	completion, err := v.Generate(ctx, entries, core.GenerateParams{
		MaxTokens:   want,
		Temperature: o.session.Options.Temperature,
	})
	if err != nil {
		grant.Release()
		return nil, err
	}
	grant.Commit(completion.TokensConsumed)

	o.bus.Publish(events.NewVoiceCompletedEvent(
		string(o.session.ID), string(v.ID()),
		o.session.Phases.CurrentPhase().String(), completion.TokensConsumed,
	))
	return completion, nil
}

// appendSystem records a phase directive as a system turn.
func (o *Orchestrator) appendSystem(phase core.Phase, instruction string) {
	o.session.Transcript.Append(core.TranscriptEntry{
		Phase:   phase,
		Speaker: core.SpeakerSystem,
		Content: instruction,
	})
}

// appendTurn records a successful voice turn.
func (o *Orchestrator) appendTurn(phase core.Phase, t turn) core.TranscriptEntry {
	entry := core.TranscriptEntry{
		Phase:     phase,
		Speaker:   t.voice.ID(),
		Content:   t.completion.Text,
		TokenCost: t.completion.TokensConsumed,
	}
	o.session.Transcript.Append(entry)
	return entry
}

// fanOut runs one concurrent round: every live voice except those in skip
// answers the instruction against the same transcript snapshot. Successful
// turns are appended in descriptor order regardless of arrival order, so a
// given set of voice outputs always yields the same transcript. Exhaustion
// observed before a dispatch suppresses that dispatch.
func (o *Orchestrator) fanOut(ctx context.Context, phase core.Phase, instruction string, skip map[core.VoiceID]bool) []turn {
	o.appendSystem(phase, instruction)
	entries := o.session.Transcript.Entries()

	live := o.roster.Live()
	participants := make([]*voice.Voice, 0, len(live))
	for _, v := range live {
		if !skip[v.ID()] {
			participants = append(participants, v)
		}
	}

	results := make([]turn, len(participants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range participants {
		i, v := i, v
		if o.session.Budget.Exhausted() {
			results[i] = turn{voice: v, err: core.ErrResourceExhausted("exhausted before dispatch")}
			continue
		}
		g.Go(func() error {
			c, err := o.callVoice(gctx, v, entries)
			results[i] = turn{voice: v, completion: c, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range results {
		if t.err == nil && t.completion != nil {
			o.appendTurn(phase, t)
		}
	}
	return results
}

// handleFailures drops voices whose calls failed past the retry layer and
// returns the success count. Budget denials and session cancellation do not
// count against a voice.
func (o *Orchestrator) handleFailures(results []turn) int {
	ok := 0
	for _, t := range results {
		switch {
		case t.err == nil:
			ok++
		case core.IsCategory(t.err, core.ErrCatBudget):
			// not the voice's fault, keep it
		case errors.Is(t.err, context.Canceled):
			// the session was cancelled, keep it
		default:
			o.dropVoice(t.voice.ID(), t.err)
		}
	}
	return ok
}

func (o *Orchestrator) dropVoice(id core.VoiceID, cause error) {
	reason := cause.Error()
	o.roster.Drop(id, reason)
	o.bus.Publish(events.NewVoiceDroppedEvent(string(o.session.ID), string(id), reason))
	o.logger.Warn("voice dropped", "voice", id, "reason", reason)
	o.markDegraded("voice dropped: " + string(id))
}

// satisfyPhase closes out the active phase.
func (o *Orchestrator) satisfyPhase() {
	rec := o.session.Phases.Current()
	if rec == nil {
		return
	}
	o.bus.Publish(events.NewPhaseSatisfiedEvent(
		string(o.session.ID), rec.Tag.String(), rec.Rounds, o.session.Budget.Elapsed(),
	))
	o.logger.WithPhase(rec.Tag.String()).Info("phase satisfied", "rounds", rec.Rounds)
	o.session.Phases.Satisfy()
}

// runInitialization asks every voice for a one-turn self-introduction in
// parallel. Voices that cannot produce one are dropped for the rest of the
// session; one success is enough to proceed.
func (o *Orchestrator) runInitialization(ctx context.Context) error {
	rec := o.session.Phases.Current()
	rec.Rounds = 1

	results := o.fanOut(ctx, core.PhaseInitialization, initializationInstruction(), nil)
	if o.handleFailures(results) == 0 {
		if allBudgetDenied(results) {
			// nothing wrong with the voices, let the exhaustion path run
			o.session.Phases.Skip()
			return nil
		}
		return core.ErrAllVoicesFailed(core.PhaseInitialization)
	}

	o.satisfyPhase()
	return nil
}

// runAnalysis iterates discussion rounds until the detector reports
// convergence or the round bound is hit.
func (o *Orchestrator) runAnalysis(ctx context.Context) error {
	rec := o.session.Phases.Current()

	var previous []core.TranscriptEntry
	for round := 1; round <= rec.MaxRounds; round++ {
		if o.session.Budget.Exhausted() {
			break
		}
		rec.Rounds = round

		results := o.fanOut(ctx, core.PhaseAnalysis, analysisInstruction(round), nil)
		o.handleFailures(results)
		if o.roster.Len() == 0 {
			return core.ErrAllVoicesFailed(core.PhaseAnalysis)
		}

		current := successEntries(core.PhaseAnalysis, results)
		if len(current) == 0 {
			continue
		}

		quorum := o.roster.Len()/2 + 1
		if o.detector.Converged(current, previous, quorum) {
			o.logger.WithPhase(core.PhaseAnalysis.String()).Debug("converged", "round", round)
			break
		}
		previous = current
	}

	o.satisfyPhase()
	return nil
}

// runPlanning has one voice propose a strategy and, when the budget is
// comfortable, gives the remaining voices one critique round. The critique
// is the first thing sacrificed under pressure.
func (o *Orchestrator) runPlanning(ctx context.Context) error {
	rec := o.session.Phases.Current()

	// proposal, falling through the roster until a voice delivers; the
	// directive is appended once, not per attempt
	o.appendSystem(core.PhasePlanning, planningProposalInstruction())
	rec.Rounds = 1

	var proposer *voice.Voice
	for {
		v, ok := o.roster.Rotate(0)
		if !ok {
			return core.ErrAllVoicesFailed(core.PhasePlanning)
		}

		completion, err := o.callVoice(ctx, v, o.session.Transcript.Entries())
		if err != nil {
			if core.IsCategory(err, core.ErrCatBudget) {
				// cannot afford a proposal at all, skip ahead
				o.markDegraded("planning skipped, budget too low")
				o.session.Phases.Skip()
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			o.dropVoice(v.ID(), err)
			continue
		}
		o.appendTurn(core.PhasePlanning, turn{voice: v, completion: completion})
		proposer = v
		break
	}

	if o.roster.Len() > 1 && !o.session.Budget.Exhausted() && !o.underPressure() {
		rec.Rounds = 2
		results := o.fanOut(ctx, core.PhasePlanning,
			planningCritiqueInstruction(proposer.ID()),
			map[core.VoiceID]bool{proposer.ID(): true})
		o.handleFailures(results)
	} else if o.roster.Len() > 1 {
		o.markDegraded("planning critique skipped under budget pressure")
	}

	o.satisfyPhase()
	return nil
}

// runGeneration drafts and refines sequentially, rotating the writing role
// through the roster. Once the token share crosses the pressure threshold
// refinement turns are told to stay minimal. Refinement ends early when a
// revision stops changing the draft: a quorum of one, since only one voice
// writes per round.
func (o *Orchestrator) runGeneration(ctx context.Context) error {
	rec := o.session.Phases.Current()

	for round := 1; round <= rec.MaxRounds; round++ {
		if o.session.Budget.Exhausted() {
			break
		}

		v, ok := o.roster.Rotate(round - 1)
		if !ok {
			break
		}

		previous := o.latestDraft()
		instruction := draftInstruction()
		if previous != "" {
			instruction = refineInstruction(o.underPressure())
		}
		o.appendSystem(core.PhaseGeneration, instruction)
		rec.Rounds = round

		completion, err := o.callVoice(ctx, v, o.session.Transcript.Entries())
		if err != nil {
			if core.IsCategory(err, core.ErrCatBudget) {
				break
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			o.dropVoice(v.ID(), err)
			continue
		}
		o.appendTurn(core.PhaseGeneration, turn{voice: v, completion: completion})

		if previous != "" &&
			JaccardSimilarity(wordSet(previous), wordSet(completion.Text)) >= o.config.SimilarityThreshold {
			o.logger.WithPhase(core.PhaseGeneration.String()).Debug("draft stabilized", "round", round)
			break
		}
	}

	if o.latestDraft() == "" && o.roster.Len() == 0 {
		return core.ErrAllVoicesFailed(core.PhaseGeneration)
	}
	o.satisfyPhase()
	return nil
}

// runIntegration produces the final answer. It runs exactly once per
// session: a synthesis call when the budget allows one, otherwise a
// zero-cost fallback to the latest draft. Only a session that never
// produced any draft fails with a resource error.
func (o *Orchestrator) runIntegration(ctx context.Context) (*core.Result, error) {
	s := o.session
	o.bus.Publish(events.NewPhaseStartedEvent(string(s.ID), core.PhaseIntegration.String()))
	rec := s.Phases.Current()
	rec.Rounds = 1

	if !s.Budget.Exhausted() {
		if v, ok := o.roster.Rotate(0); ok {
			o.appendSystem(core.PhaseIntegration, integrationInstruction())
			completion, err := o.callVoice(ctx, v, s.Transcript.Entries())
			if err == nil {
				o.appendTurn(core.PhaseIntegration, turn{voice: v, completion: completion})
				o.satisfyPhase()
				return o.finish(completion.Text), nil
			}
			o.logger.Warn("integration call failed, falling back to draft", "error", err)
		}
	}

	if draft := o.latestDraft(); draft != "" {
		o.markDegraded("integration fell back to latest draft")
		o.satisfyPhase()
		return o.finish(draft), nil
	}

	s.Phases.Abort()
	o.bus.Publish(events.NewBudgetExhaustedEvent(
		string(s.ID), core.PhaseIntegration.String(),
		s.Budget.TokensUsed(), s.Budget.Iterations(),
	))
	return nil, core.ErrResourceExhausted("budget exhausted before any draft was produced")
}

// latestDraft returns the most recent voice-written generation turn, or ""
// when no draft exists yet. System directives within the phase are skipped.
func (o *Orchestrator) latestDraft() string {
	entries := o.session.Transcript.PhaseEntries(core.PhaseGeneration)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Speaker != core.SpeakerSystem {
			return entries[i].Content
		}
	}
	return ""
}

// successEntries reconstructs the transcript entries appended for a round.
func successEntries(phase core.Phase, results []turn) []core.TranscriptEntry {
	out := make([]core.TranscriptEntry, 0, len(results))
	for _, t := range results {
		if t.err == nil && t.completion != nil {
			out = append(out, core.TranscriptEntry{
				Phase:     phase,
				Speaker:   t.voice.ID(),
				Content:   t.completion.Text,
				TokenCost: t.completion.TokensConsumed,
			})
		}
	}
	return out
}

func allBudgetDenied(results []turn) bool {
	for _, t := range results {
		if t.err == nil || !core.IsCategory(t.err, core.ErrCatBudget) {
			return false
		}
	}
	return len(results) > 0
}
