package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/orchestrator"
)

var directOpts runFlags

var directCmd = &cobra.Command{
	Use:   "direct [prompt]",
	Short: "Ask every voice independently, without collaboration",
	Long: `Direct sends the prompt to each configured voice in parallel and
prints every answer separately. No phases, no shared transcript: useful
for comparing what the individual models say before trusting the
ensemble's synthesis.`,
	Args: cobra.ExactArgs(1),
	RunE: runDirect,
}

func init() {
	registerRunFlags(directCmd, &directOpts)
	rootCmd.AddCommand(directCmd)
}

func runDirect(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(args[0])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	in, err := resolveInputs(cfg, directOpts)
	if err != nil {
		return err
	}

	session, err := core.NewSession(prompt, in.descs, in.budget, in.opts)
	if err != nil {
		return err
	}

	client := buildClient(cfg, logger)
	roster := orchestrator.BuildRoster(session, client, nil, logger)
	orch := orchestrator.New(nil, session, roster, nil, nil, logger)

	answers, err := orch.Direct(cmd.Context())
	if err != nil {
		return err
	}

	for i, a := range answers {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("=== %s (%d tokens) ===\n%s\n", a.Voice, a.Tokens, a.Answer)
	}
	return nil
}
