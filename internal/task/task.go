package task

import (
	"context"

	"github.com/groundwork-dev/groundwork/internal/remote"
)

// Step represents a single guarded unit of work applied to a server.
type Step interface {
	// Name returns a human-readable name for the step.
	Name() string
	// NeedsExecution checks if the step needs to be executed on the server.
	// It should return true if the step should be performed, false if the
	// target state already exists. Steps whose commands are naturally
	// idempotent return true unconditionally.
	NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error)
	// Execute performs the step on the server.
	Execute(ctx context.Context, exec remote.Executor) error
}
