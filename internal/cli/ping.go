package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundwork-dev/groundwork/internal/server"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify connection to the configured server",
	Long:  `Try to connect to the configured server and execute a simple command to verify accessibility.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gwApp := getApp(cmd)
		gwApp.Logger.Info("Starting connection verification")

		if gwApp.Config.Server.Address == "" {
			gwApp.Logger.Warn("No server configured")
			return nil
		}

		if !verifyServer(gwApp.Logger, newServer(gwApp.Config.Server)) {
			return fmt.Errorf("verification failed")
		}
		return nil
	},
}

func verifyServer(logger *slog.Logger, srv server.Server) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Checking server", "name", srv.ID(), "address", srv.Address())
	res, err := srv.Execute(ctx, "echo 'pong'")

	if err != nil {
		logger.Error("Verification failed", "server", srv.ID(), "error", err)
		return false
	}
	if res.ExitCode != 0 {
		logger.Error("Verification failed", "server", srv.ID(), "exit_code", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
		return false
	}

	if strings.TrimSpace(res.Stdout) == "pong" {
		logger.Info("Verification successful", "server", srv.ID())
	} else {
		logger.Warn("Verification partially successful (unexpected output)", "server", srv.ID(), "output", strings.TrimSpace(res.Stdout))
	}
	return true
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
