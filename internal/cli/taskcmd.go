package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groundwork-dev/groundwork/internal/app"
	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/catalog"
)

func init() {
	// One subcommand per registered task. The registry is rebuilt with the
	// loaded profile at run time; here it only supplies the names.
	registry, err := catalog.Builtins()
	if err != nil {
		panic(err)
	}
	for _, name := range registry.Names() {
		rootCmd.AddCommand(newTaskCommand(name))
	}
	rootCmd.AddCommand(tasksCmd)
}

func newTaskCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Run the %s task against the configured server", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			gwApp := getApp(cmd)
			return runTask(cmd, gwApp, name)
		},
	}
}

func runTask(cmd *cobra.Command, gwApp *app.App, name string) error {
	cfg := gwApp.Config
	if cfg.Server.Address == "" {
		return fmt.Errorf("no server configured")
	}

	env, err := gwApp.Profiles.Load(cfg.Profile)
	if err != nil {
		return err
	}

	steps, err := gwApp.Registry.Build(name, env)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		gwApp.Logger.Info("No steps to apply", "task", name)
		return nil
	}

	exec := remote.NewSSH(newServer(cfg.Server))
	runner := task.NewRunner(gwApp.Logger)

	if err := runner.Run(cmd.Context(), exec, steps...); err != nil {
		var cmdErr *remote.CommandError
		if errors.As(err, &cmdErr) && strings.TrimSpace(cmdErr.Stderr) != "" {
			fmt.Fprintln(os.Stderr, strings.TrimSpace(cmdErr.Stderr))
		}
		return fmt.Errorf("task %s: %w", name, err)
	}

	gwApp.Logger.Info("Task completed", "task", name, "server", exec.Host())
	return nil
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the available provisioning tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		gwApp := getApp(cmd)
		for _, name := range gwApp.Registry.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
