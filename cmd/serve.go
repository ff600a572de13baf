package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/sandbox"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP health service",
	Long: `Serves GET / and GET /api/health on PORT until interrupted.

Can be wrapped in a systemd service for liveness checks.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	guard, err := sandbox.NewGuard(cfg.SandboxDir)
	if err != nil {
		return err
	}

	logInfo("Starting health service on port %d", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := health.ListenAndServe(ctx, cfg.Port, health.NewHandler(guard.Root())); err != nil {
		return err
	}
	logInfo("Health service stopped")
	return nil
}
