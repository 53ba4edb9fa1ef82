package firewall_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/firewall"
	"github.com/groundwork-dev/groundwork/internal/testutils"
)

const testRules = `*filter
-A INPUT -i lo -j ACCEPT
-A INPUT -p tcp --dport 22 -j ACCEPT
COMMIT
`

func testEnv(t *testing.T) *config.Context {
	t.Helper()
	rulesPath := filepath.Join(t.TempDir(), "iptables.firewall.rules")
	require.NoError(t, os.WriteFile(rulesPath, []byte(testRules), 0o644))

	return config.NewContext("default", map[string]any{
		"firewall_rules_path": rulesPath,
	})
}

func TestInstallFirewall(t *testing.T) {
	ctx := context.Background()
	runner := task.NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("uploads rules and installs init script", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		steps, err := firewall.Steps(testEnv(t))
		require.NoError(t, err)
		require.NoError(t, runner.Run(ctx, exec, steps...))

		assert.Equal(t, testRules, exec.Files[firewall.RemoteRulesPath])

		script := exec.Files[firewall.InitScriptPath]
		assert.Contains(t, script, "#!/bin/sh")
		assert.Contains(t, script, "/sbin/iptables-restore < "+firewall.RemoteRulesPath)
		assert.Equal(t, os.FileMode(0o755), exec.Modes[firewall.InitScriptPath])

		// The init script is invoked once so the rules are live immediately.
		assert.Equal(t, 1, exec.CommandCount(firewall.InitScriptPath))
	})

	t.Run("skips when init script exists", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		exec.Files[firewall.InitScriptPath] = "#!/bin/sh\n"

		steps, err := firewall.Steps(testEnv(t))
		require.NoError(t, err)
		require.NoError(t, runner.Run(ctx, exec, steps...))

		_, uploaded := exec.Files[firewall.RemoteRulesPath]
		assert.False(t, uploaded)
		assert.Equal(t, 0, exec.CommandCount(firewall.InitScriptPath))
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		steps, err := firewall.Steps(testEnv(t))
		require.NoError(t, err)

		require.NoError(t, runner.Run(ctx, exec, steps...))
		require.NoError(t, runner.Run(ctx, exec, steps...))

		assert.Equal(t, 1, exec.CommandCount(firewall.InitScriptPath))
	})

	t.Run("missing local rules file fails", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		env := config.NewContext("default", map[string]any{
			"firewall_rules_path": filepath.Join(t.TempDir(), "missing.rules"),
		})
		steps, err := firewall.Steps(env)
		require.NoError(t, err)

		assert.Error(t, runner.Run(ctx, exec, steps...))
	})
}
