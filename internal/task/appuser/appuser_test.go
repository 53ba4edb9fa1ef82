package appuser_test

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/appuser"
	"github.com/groundwork-dev/groundwork/internal/testutils"
)

func buildSteps(t *testing.T, values map[string]any) []task.Step {
	t.Helper()
	steps, err := appuser.Steps(config.NewContext("default", values))
	require.NoError(t, err)
	return steps
}

func run(t *testing.T, exec *testutils.FakeExecutor, steps []task.Step) {
	t.Helper()
	runner := task.NewRunner(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, runner.Run(context.Background(), exec, steps...))
}

func TestSetupAppUser(t *testing.T) {
	values := map[string]any{"app_name": "blog"}

	t.Run("creates user with layout and keypair", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		run(t, exec, buildSteps(t, values))

		assert.True(t, exec.Users["blog"])
		for _, dir := range []string{"app", "logs", "static", "media"} {
			assert.True(t, exec.Dirs["/home/blog/"+dir], dir)
		}
		assert.Contains(t, exec.Files, "/home/blog/.ssh/id_rsa")
		assert.Contains(t, exec.Files, "/home/blog/.ssh/id_rsa.pub")
	})

	t.Run("stages installer scripts", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		run(t, exec, buildSteps(t, values))

		venv := exec.Files["/home/blog/install_venv.sh"]
		assert.Contains(t, venv, "#!/bin/sh")
		assert.Contains(t, venv, "mkvirtualenv 'blog'")
		assert.Equal(t, fs.FileMode(0o755), exec.Modes["/home/blog/install_venv.sh"])

		app := exec.Files["/home/blog/install_app.sh"]
		assert.Contains(t, app, "workon 'blog'")
		assert.Contains(t, app, "pip install -r requirements.txt")
		assert.Equal(t, fs.FileMode(0o755), exec.Modes["/home/blog/install_app.sh"])

		assert.Equal(t, 2, exec.CommandCount("chown blog:blog /home/blog/install_"))
	})

	t.Run("creates role and database", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		run(t, exec, buildSteps(t, values))

		assert.True(t, exec.Roles["blog"])
		assert.True(t, exec.Databases["blog"])
	})

	t.Run("database commands run as postgres", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		run(t, exec, buildSteps(t, values))

		for _, cmd := range exec.Runs {
			switch cmd.Argv[0] {
			case "psql", "createuser", "createdb":
				assert.Equal(t, "postgres", cmd.User, cmd.Argv[0])
			case "ssh-keygen", "mkdir":
				assert.Equal(t, "blog", cmd.User, cmd.Argv[0])
			}
		}

		// The fake rejects database commands issued under any other
		// account, so a dropped user switch cannot pass unnoticed.
		_, err := exec.Run(context.Background(), remote.Command{
			Argv: []string{"createuser", "-S", "-D", "-R", "other"},
		})
		assert.Error(t, err)
		assert.False(t, exec.Roles["other"])
	})

	t.Run("second run changes nothing", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		steps := buildSteps(t, values)
		run(t, exec, steps)

		adduserCount := exec.CommandCount("adduser")
		createuserCount := exec.CommandCount("createuser")

		run(t, exec, steps)

		assert.Equal(t, adduserCount, exec.CommandCount("adduser"))
		assert.Equal(t, createuserCount, exec.CommandCount("createuser"))
		assert.Equal(t, 1, exec.CommandCount("createdb"))
	})

	t.Run("profile overrides user and database names", func(t *testing.T) {
		exec := testutils.NewFakeExecutor("fake")
		run(t, exec, buildSteps(t, map[string]any{
			"app_name": "blog",
			"app_user": "deploy",
			"db_user":  "blog_rw",
			"db_name":  "blog_prod",
		}))

		assert.True(t, exec.Users["deploy"])
		assert.True(t, exec.Roles["blog_rw"])
		assert.True(t, exec.Databases["blog_prod"])
		assert.Equal(t, 1, exec.CommandCount("createdb -O blog_rw blog_prod"))
	})

	t.Run("missing app_name", func(t *testing.T) {
		_, err := appuser.Steps(config.NewContext("default", nil))
		assert.Error(t, err)
	})

	t.Run("unsafe name rejected", func(t *testing.T) {
		_, err := appuser.Steps(config.NewContext("default", map[string]any{
			"app_name": "blog; drop table",
		}))
		assert.Error(t, err)
	})
}
