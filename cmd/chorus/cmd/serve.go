package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chorus-dev/chorus/internal/api"
	"github.com/chorus-dev/chorus/internal/events"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ensemble sessions over HTTP",
	Long: `Serve starts an HTTP server exposing the session API. POST a prompt
to /v1/sessions for a full collaborative run, or to /v1/sessions/direct
for independent per-voice answers.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	bus := events.NewBus(0)
	defer bus.Close()

	client := buildClient(cfg, logger)
	server := api.NewServer(cfg, client, bus, api.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx, addr)
}
