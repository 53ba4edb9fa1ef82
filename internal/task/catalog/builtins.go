package catalog

import (
	"fmt"

	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/adminuser"
	"github.com/groundwork-dev/groundwork/internal/task/appuser"
	"github.com/groundwork-dev/groundwork/internal/task/firewall"
	"github.com/groundwork-dev/groundwork/internal/task/packages"
	"github.com/groundwork-dev/groundwork/internal/task/sshharden"
)

// SetupTaskName is the composite that provisions a fresh server end to end.
// The app user task is deliberately not part of it.
const SetupTaskName = "setup"

// Builtins returns the registry of built-in tasks.
func Builtins() (*task.Registry, error) {
	registry := task.NewRegistry()

	builders := []struct {
		name    string
		builder task.Builder
	}{
		{adminuser.TaskName, adminuser.Steps},
		{sshharden.TaskName, sshharden.Steps},
		{firewall.TaskName, firewall.Steps},
		{packages.TaskName, packages.Steps},
		{appuser.TaskName, appuser.Steps},
	}
	for _, b := range builders {
		if err := registry.Register(b.name, b.builder); err != nil {
			return nil, fmt.Errorf("register task %s: %w", b.name, err)
		}
	}

	if err := registry.RegisterComposite(SetupTaskName,
		adminuser.TaskName,
		sshharden.TaskName,
		firewall.TaskName,
		packages.TaskName,
	); err != nil {
		return nil, fmt.Errorf("register task %s: %w", SetupTaskName, err)
	}

	return registry, nil
}
