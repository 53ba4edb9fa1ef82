package sshharden_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/sshd"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/sshharden"
	"github.com/groundwork-dev/groundwork/internal/testutils"
)

const stockConfig = `# sshd_config
PermitRootLogin yes
#PasswordAuthentication yes
X11Forwarding yes
`

func TestHardenSSHD(t *testing.T) {
	ctx := context.Background()
	runner := task.NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
	env := config.NewContext("default", nil)

	t.Run("rewrites directives and restarts", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		exec.Files[sshd.DefaultConfigPath] = stockConfig

		steps, err := sshharden.Steps(env)
		require.NoError(t, err)
		require.NoError(t, runner.Run(ctx, exec, steps...))

		content := exec.Files[sshd.DefaultConfigPath]
		assert.Contains(t, content, "PermitRootLogin no")
		assert.NotContains(t, content, "PermitRootLogin yes")
		assert.Contains(t, content, "PasswordAuthentication no")
		assert.NotContains(t, content, "#PasswordAuthentication yes")
		assert.Equal(t, 1, exec.ServiceRestarts["ssh"])

		// Untouched directives survive.
		assert.Contains(t, content, "X11Forwarding yes")
	})

	t.Run("second run is a zero-effect substitution", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		exec.Files[sshd.DefaultConfigPath] = stockConfig

		steps, err := sshharden.Steps(env)
		require.NoError(t, err)
		require.NoError(t, runner.Run(ctx, exec, steps...))
		after := exec.Files[sshd.DefaultConfigPath]

		require.NoError(t, runner.Run(ctx, exec, steps...))
		assert.Equal(t, after, exec.Files[sshd.DefaultConfigPath])
		assert.Equal(t, 1, strings.Count(exec.Files[sshd.DefaultConfigPath], "PermitRootLogin no"))

		// The restart is repeated on purpose: the step always runs.
		assert.Equal(t, 2, exec.ServiceRestarts["ssh"])
	})

	t.Run("effective settings parse as disabled", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		exec.Files[sshd.DefaultConfigPath] = stockConfig

		steps, err := sshharden.Steps(env)
		require.NoError(t, err)
		require.NoError(t, runner.Run(ctx, exec, steps...))

		value, err := sshd.Setting(exec.Files[sshd.DefaultConfigPath], sshd.KeyPermitRootLogin)
		require.NoError(t, err)
		assert.Equal(t, sshd.ValueNo, value)
	})
}
