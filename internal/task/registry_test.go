package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/task"
)

func namedBuilder(name string) task.Builder {
	return func(env *config.Context) ([]task.Step, error) {
		return []task.Step{&mockStep{name: name}}, nil
	}
}

func TestRegistry(t *testing.T) {
	env := config.NewContext("default", nil)

	t.Run("register and build", func(t *testing.T) {
		registry := task.NewRegistry()
		require.NoError(t, registry.Register("one", namedBuilder("step-one")))

		steps, err := registry.Build("one", env)
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, "step-one", steps[0].Name())
	})

	t.Run("duplicate name", func(t *testing.T) {
		registry := task.NewRegistry()
		require.NoError(t, registry.Register("one", namedBuilder("step-one")))
		assert.Error(t, registry.Register("one", namedBuilder("step-one")))
	})

	t.Run("unknown task", func(t *testing.T) {
		registry := task.NewRegistry()
		_, err := registry.Build("nope", env)
		assert.ErrorContains(t, err, "unknown task")
	})

	t.Run("composite preserves order", func(t *testing.T) {
		registry := task.NewRegistry()
		require.NoError(t, registry.Register("a", namedBuilder("step-a")))
		require.NoError(t, registry.Register("b", namedBuilder("step-b")))
		require.NoError(t, registry.RegisterComposite("both", "a", "b"))

		steps, err := registry.Build("both", env)
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, "step-a", steps[0].Name())
		assert.Equal(t, "step-b", steps[1].Name())
	})

	t.Run("composite with unknown part", func(t *testing.T) {
		registry := task.NewRegistry()
		assert.Error(t, registry.RegisterComposite("broken", "missing"))
	})

	t.Run("names in registration order", func(t *testing.T) {
		registry := task.NewRegistry()
		require.NoError(t, registry.Register("b", namedBuilder("step-b")))
		require.NoError(t, registry.Register("a", namedBuilder("step-a")))
		assert.Equal(t, []string{"b", "a"}, registry.Names())
	})
}
