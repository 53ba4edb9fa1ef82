// Package appuser bootstraps the application deployment account: a
// disabled-login user with its own SSH keypair, the app directory skeleton,
// two staged installer scripts for manual execution, and the PostgreSQL
// role and database the application connects with.
package appuser

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/adminuser"
	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

const (
	TaskName = "setup-app-user"

	keyAppName = "app_name"
	keyAppUser = "app_user"
	keyDBUser  = "db_user"
	keyDBName  = "db_name"

	postgresAccount = "postgres"
)

// The directory skeleton created under the app user's home.
var appDirs = []string{"app", "logs", "static", "media"}

// The installer scripts staged into the home directory, in template order.
var installerScripts = []string{"install_venv.sh", "install_app.sh"}

// Steps builds the task's steps from the loaded profile. app_user, db_user
// and db_name all default to app_name.
func Steps(env *config.Context) ([]task.Step, error) {
	appName, err := env.Require(keyAppName)
	if err != nil {
		return nil, err
	}
	user := env.Value(keyAppUser, appName)
	dbUser := env.Value(keyDBUser, user)
	dbName := env.Value(keyDBName, appName)

	for kind, value := range map[string]string{
		"app":      appName,
		"user":     user,
		"database": dbName,
		"role":     dbUser,
	} {
		if err := taskutil.ValidateIdentifier(kind, value); err != nil {
			return nil, err
		}
	}

	return []task.Step{
		&CreateUserStep{appName: appName, user: user},
		&CreateDatabaseStep{dbUser: dbUser, dbName: dbName},
	}, nil
}

// CreateUserStep creates the deployment user and its runtime layout.
type CreateUserStep struct {
	appName string
	user    string
}

func (s *CreateUserStep) Name() string {
	return "create app user: " + s.user
}

func (s *CreateUserStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	exists, err := exec.Exists(ctx, adminuser.HomeDir(s.user))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *CreateUserStep) Execute(ctx context.Context, exec remote.Executor) error {
	home := adminuser.HomeDir(s.user)

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"adduser", s.user, "--disabled-login", "--gecos", ""},
		Elevate: true,
	}); err != nil {
		return err
	}

	if err := s.generateKeypair(ctx, exec, home); err != nil {
		return err
	}

	for _, dir := range appDirs {
		if _, err := exec.Run(ctx, remote.Command{
			Argv: []string{"mkdir", "-p", path.Join(home, dir)},
			User: s.user,
		}); err != nil {
			return err
		}
	}

	return s.stageInstallers(ctx, exec, home)
}

func (s *CreateUserStep) generateKeypair(ctx context.Context, exec remote.Executor, home string) error {
	sshDir := adminuser.SSHDirPath(home)
	if _, err := exec.Run(ctx, remote.Command{
		Argv: []string{"mkdir", "-p", sshDir},
		User: s.user,
	}); err != nil {
		return err
	}
	if _, err := exec.Run(ctx, remote.Command{
		Argv: []string{"chmod", "700", sshDir},
		User: s.user,
	}); err != nil {
		return err
	}
	if _, err := exec.Run(ctx, remote.Command{
		Argv: []string{"ssh-keygen", "-t", "rsa", "-b", "4096", "-N", "", "-f", path.Join(sshDir, "id_rsa")},
		User: s.user,
	}); err != nil {
		return err
	}
	return nil
}

func (s *CreateUserStep) stageInstallers(ctx context.Context, exec remote.Executor, home string) error {
	for _, name := range installerScripts {
		script, err := s.renderInstaller(name)
		if err != nil {
			return err
		}
		target := path.Join(home, name)
		if err := exec.WriteFile(ctx, target, script, 0o755, true); err != nil {
			return err
		}
		if _, err := exec.Run(ctx, remote.Command{
			Argv:    []string{"chown", s.user + ":" + s.user, target},
			Elevate: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

type installerData struct {
	AppName string
	User    string
}

func (s *CreateUserStep) renderInstaller(name string) (string, error) {
	tmpl := strings.TrimSuffix(name, ".sh")
	var buf strings.Builder
	data := installerData{AppName: s.appName, User: s.user}
	if err := appuserScriptTemplates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", tmpl, err)
	}
	return buf.String(), nil
}

// CreateDatabaseStep creates the application's PostgreSQL role and database.
// The guard probes pg_roles as the postgres account; a failed probe (no
// postgres yet, no role yet) means the step still needs to run.
type CreateDatabaseStep struct {
	dbUser string
	dbName string
}

func (s *CreateDatabaseStep) Name() string {
	return "create app database: " + s.dbName
}

func (s *CreateDatabaseStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	probe, err := exec.Run(ctx, remote.Command{
		Argv:     []string{"psql", "-tAc", fmt.Sprintf("SELECT 1 FROM pg_roles WHERE rolname='%s'", s.dbUser)},
		User:     postgresAccount,
		Tolerant: true,
	})
	if err != nil {
		return false, err
	}
	if probe.Ok() && strings.TrimSpace(probe.Stdout) == "1" {
		return false, nil
	}
	return true, nil
}

func (s *CreateDatabaseStep) Execute(ctx context.Context, exec remote.Executor) error {
	if _, err := exec.Run(ctx, remote.Command{
		Argv: []string{"createuser", "-S", "-D", "-R", s.dbUser},
		User: postgresAccount,
	}); err != nil {
		return err
	}
	if _, err := exec.Run(ctx, remote.Command{
		Argv: []string{"createdb", "-O", s.dbUser, s.dbName},
		User: postgresAccount,
	}); err != nil {
		return err
	}
	return nil
}
