package orchestrator

import (
	"fmt"

	"github.com/chorus-dev/chorus/internal/core"
)

// Phase instructions are appended to the transcript as system turns, so
// every voice in a round reads the same directive and the directive itself
// is part of the auditable session record.

func initializationInstruction() string {
	return "In one or two sentences, state your understanding of the request " +
		"and the perspective you bring to answering it. Do not answer yet."
}

func analysisInstruction(round int) string {
	return fmt.Sprintf(
		"Analysis round %d. Discuss what the request needs: key considerations, "+
			"ambiguities, and the shape of a good answer. Build on the other "+
			"voices rather than repeating them. When you believe the analysis is "+
			"complete, include the literal marker %s in your reply.",
		round, ReadyMarker)
}

func planningProposalInstruction() string {
	return "Propose a concrete strategy for the response: structure, key points " +
		"to cover, and what to leave out. Be specific enough that another voice " +
		"could draft from your plan alone."
}

func planningCritiqueInstruction(proposer core.VoiceID) string {
	return fmt.Sprintf(
		"Critique the strategy proposed by %s. Name concrete gaps or risks and "+
			"suggest amendments. If the plan is sound as written, say so briefly.",
		proposer)
}

func draftInstruction() string {
	return "Write a complete draft of the final response following the agreed " +
		"plan. Address the user directly; do not mention the planning discussion."
}

func refineInstruction(budgetPressure bool) string {
	if budgetPressure {
		return "Budget is nearly exhausted. Make only essential corrections to " +
			"the current draft and keep your reply short."
	}
	return "Improve the current draft: fix errors, close gaps against the plan, " +
		"and tighten the writing. Reply with the full revised draft."
}

func integrationInstruction() string {
	return "Produce the single final response for the user, merging the best of " +
		"the drafts and refinements above. Reply with only the final response."
}
