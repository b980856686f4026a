package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/chorus-dev/chorus/internal/events"
)

// startProgress subscribes to session lifecycle events and prints a short
// progress line per event to stderr. The returned function unsubscribes and
// waits for the printer to drain.
func startProgress(bus *events.Bus) func() {
	ch := bus.Subscribe(
		events.TypePhaseStarted,
		events.TypeVoiceDropped,
		events.TypeBudgetExhausted,
		events.TypeSessionDegraded,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range ch {
			switch ev := e.(type) {
			case events.PhaseStartedEvent:
				fmt.Fprintf(os.Stderr, "* %s\n", ev.Phase)
			case events.VoiceDroppedEvent:
				fmt.Fprintf(os.Stderr, "! voice %s dropped: %s\n", ev.Voice, ev.Reason)
			case events.BudgetExhaustedEvent:
				fmt.Fprintf(os.Stderr, "! budget exhausted in %s (tokens=%d iterations=%d)\n",
					ev.Phase, ev.TokensUsed, ev.Iterations)
			case events.SessionDegradedEvent:
				fmt.Fprintf(os.Stderr, "! degraded: %s\n", ev.Reason)
			}
		}
	}()

	return func() {
		bus.Unsubscribe(ch)
		wg.Wait()
	}
}
