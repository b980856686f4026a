package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/events"
	"github.com/chorus-dev/chorus/internal/orchestrator"
)

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a collaborative session and print the synthesized answer",
	Long: `Run sends the prompt through the full phase sequence: every voice
states its understanding, the ensemble analyzes and plans, drafts are
written and refined, and one integrated answer is printed. The session
is bounded by the configured token, iteration, and wall-time budgets.`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func init() {
	registerRunFlags(runCmd, &runOpts)
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(args[0])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	in, err := resolveInputs(cfg, runOpts)
	if err != nil {
		return err
	}

	session, err := core.NewSession(prompt, in.descs, in.budget, in.opts)
	if err != nil {
		return err
	}

	client := buildClient(cfg, logger)
	roster := orchestrator.BuildRoster(session, client, nil, logger)
	bus := events.NewBus(0)
	defer bus.Close()

	if !quiet {
		stop := startProgress(bus)
		defer stop()
	}

	orch := orchestrator.New(&orchestrator.Config{
		SimilarityThreshold: cfg.Session.SimilarityThreshold,
		PressureShare:       cfg.Session.PressureShare,
	}, session, roster, nil, bus, logger)

	result, err := orch.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)

	if !quiet {
		fmt.Fprintf(os.Stderr, "\n[%s] tokens=%d iterations=%d elapsed=%s degraded=%v\n",
			session.ID, result.Usage.TokensUsed, result.Usage.IterationsUsed,
			result.Usage.Elapsed.Round(timeRound), result.Usage.Degraded)
	}

	if runOpts.output != "" {
		if err := writeReport(runOpts.output, result, session); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("report written", "path", runOpts.output)
	}
	return nil
}
