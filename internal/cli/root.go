package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundwork-dev/groundwork/internal/app"
	"github.com/groundwork-dev/groundwork/internal/config"
)

type contextKey string

const appKey contextKey = "app"

var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "Groundwork provisions a fresh Linux server over SSH",
	Long: `Groundwork prepares a single server for production by running idempotent
provisioning tasks over SSH: creating the admin user, hardening sshd,
installing the firewall and package set, and bootstrapping the application
deployment user. Every task is safe to rerun.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if document, err := cmd.Flags().GetString("conf"); err == nil && document != "" {
			cfg.ProfileDocument = document
		}
		if profile, err := cmd.Flags().GetString("profile"); err == nil && profile != "" {
			cfg.Profile = profile
		}

		gwApp, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		ctx := context.WithValue(cmd.Context(), appKey, gwApp)
		cmd.SetContext(ctx)

		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", fmt.Sprintf("config file (default is $HOME/%s)", config.DefaultConfigFileName))
	rootCmd.PersistentFlags().String("conf", "", fmt.Sprintf("profile document (default is %s)", config.DefaultProfileDocument))
	rootCmd.PersistentFlags().String("profile", "", fmt.Sprintf("configuration profile (default is %q)", config.DefaultProfileName))
}

func getApp(cmd *cobra.Command) *app.App {
	if a, ok := cmd.Context().Value(appKey).(*app.App); ok {
		return a
	}
	return nil
}
