package task

import (
	"fmt"

	"github.com/groundwork-dev/groundwork/internal/config"
)

// Builder creates the ordered steps of a task from a loaded profile.
type Builder func(env *config.Context) ([]Step, error)

// Registry maps task names to step builders. It is assembled explicitly at
// startup and looked up by the CLI dispatcher.
type Registry struct {
	order    []string
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register adds a named task. Duplicate names are a programming error.
func (r *Registry) Register(name string, builder Builder) error {
	if name == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("duplicate task name: %s", name)
	}
	r.builders[name] = builder
	r.order = append(r.order, name)
	return nil
}

// RegisterComposite adds a task whose steps are the concatenation of other
// registered tasks, in the given order.
func (r *Registry) RegisterComposite(name string, parts ...string) error {
	for _, part := range parts {
		if _, exists := r.builders[part]; !exists {
			return fmt.Errorf("composite task %s references unknown task %s", name, part)
		}
	}
	names := make([]string, len(parts))
	copy(names, parts)

	return r.Register(name, func(env *config.Context) ([]Step, error) {
		var steps []Step
		for _, part := range names {
			partSteps, err := r.Build(part, env)
			if err != nil {
				return nil, err
			}
			steps = append(steps, partSteps...)
		}
		return steps, nil
	})
}

// Build creates the steps of the named task.
func (r *Registry) Build(name string, env *config.Context) ([]Step, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown task: %s", name)
	}
	steps, err := builder(env)
	if err != nil {
		return nil, fmt.Errorf("failed to build task %s: %w", name, err)
	}
	return steps, nil
}

// Names returns the registered task names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
