package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groundwork-dev/groundwork/internal/remote"
)

// Runner is responsible for executing steps on a server.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new Runner with the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// Run executes a list of steps on a server, strictly in order. For each step
// it first checks if it needs execution; the first failing step aborts the
// run. Earlier steps stay applied: rerunning the task is the recovery path.
func (r *Runner) Run(ctx context.Context, exec remote.Executor, steps ...Step) error {
	for _, s := range steps {
		name := s.Name()
		r.logger.Info("Processing step", "step", name, "server", exec.Host())

		needsExec, err := s.NeedsExecution(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to check if step %q needs execution: %w", name, err)
		}

		if !needsExec {
			r.logger.Info("Step is already satisfied", "step", name, "server", exec.Host())
			continue
		}

		r.logger.Info("Applying step", "step", name, "server", exec.Host())
		if err := s.Execute(ctx, exec); err != nil {
			return fmt.Errorf("failed to execute step %q: %w", name, err)
		}

		r.logger.Info("Step applied successfully", "step", name, "server", exec.Host())
	}

	return nil
}
