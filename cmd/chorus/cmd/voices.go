package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var voicesFormat string

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the configured voices",
	RunE:  runVoices,
}

func init() {
	voicesCmd.Flags().StringVar(&voicesFormat, "format", "table",
		"output format (table, yaml)")
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	descs := cfg.Descriptors()
	if len(descs) == 0 {
		fmt.Println("No voices configured. Add a voices section to .chorus.yaml or pass --voice to run.")
		return nil
	}

	switch voicesFormat {
	case "yaml":
		out, err := yaml.Marshal(descs)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODEL\tMAX TOKENS\tTIMEOUT\tROLE")
		for _, d := range descs {
			role := d.Role
			if len(role) > 40 {
				role = role[:40] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", d.ID, d.Model, d.MaxTokens, d.CallTimeout, role)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q", voicesFormat)
	}
	return nil
}
