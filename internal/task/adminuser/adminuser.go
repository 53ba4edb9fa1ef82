// Package adminuser creates the sudo-capable admin account and installs its
// SSH key. Both steps are guarded by remote state: an existing home
// directory means the user was already created, an existing ~/.ssh means the
// key was already installed.
package adminuser

import (
	"context"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

const (
	TaskName = "add-admin-user"

	keyAdminUser     = "admin_user"
	keyAdminGroup    = "admin_group"
	keyPublicKeyPath = "public_key_path"

	defaultPublicKeyPath = "~/.ssh/id_rsa.pub"
)

// Steps builds the task's steps from the loaded profile.
func Steps(env *config.Context) ([]task.Step, error) {
	user, err := env.Require(keyAdminUser)
	if err != nil {
		return nil, err
	}
	group, err := env.Require(keyAdminGroup)
	if err != nil {
		return nil, err
	}
	if err := taskutil.ValidateIdentifier("user", user); err != nil {
		return nil, err
	}
	if err := taskutil.ValidateIdentifier("group", group); err != nil {
		return nil, err
	}

	return []task.Step{
		&CreateUserStep{user: user, group: group},
		&InstallSSHKeyStep{
			user:          user,
			publicKeyPath: env.Value(keyPublicKeyPath, defaultPublicKeyPath),
		},
	}, nil
}

// CreateUserStep adds the admin user with a disabled password, puts it in
// the admin group and grants passwordless sudo through a drop-in file.
type CreateUserStep struct {
	user  string
	group string
}

func (s *CreateUserStep) Name() string {
	return "create admin user: " + s.user
}

func (s *CreateUserStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	exists, err := exec.Exists(ctx, HomeDir(s.user))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *CreateUserStep) Execute(ctx context.Context, exec remote.Executor) error {
	groupCheck, err := exec.Run(ctx, remote.Command{
		Argv:     []string{"getent", "group", s.group},
		Tolerant: true,
	})
	if err != nil {
		return err
	}
	if !groupCheck.Ok() {
		if _, err := exec.Run(ctx, remote.Command{
			Argv:    []string{"groupadd", s.group},
			Elevate: true,
		}); err != nil {
			return err
		}
	}

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"adduser", s.user, "--disabled-password", "--gecos", ""},
		Elevate: true,
	}); err != nil {
		return err
	}

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"adduser", s.user, s.group},
		Elevate: true,
	}); err != nil {
		return err
	}

	sudoersFile := SudoersFilePath(s.user)
	if err := exec.AppendLine(ctx, sudoersFile, SudoersLine(s.user), true); err != nil {
		return err
	}
	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"chmod", fileModeString(SudoersFileMode), sudoersFile},
		Elevate: true,
	}); err != nil {
		return err
	}

	return nil
}

// InstallSSHKeyStep copies the local public key into the remote user's
// authorized_keys and locks down ownership and permissions.
type InstallSSHKeyStep struct {
	user          string
	publicKeyPath string
}

func (s *InstallSSHKeyStep) Name() string {
	return "install ssh key: " + s.user
}

func (s *InstallSSHKeyStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	exists, err := exec.Exists(ctx, SSHDirPath(HomeDir(s.user)))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *InstallSSHKeyStep) Execute(ctx context.Context, exec remote.Executor) error {
	key, err := taskutil.ReadLocalFile(s.publicKeyPath)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)

	home := HomeDir(s.user)
	sshDir := SSHDirPath(home)

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"mkdir", "-p", sshDir},
		Elevate: true,
	}); err != nil {
		return err
	}

	if err := exec.AppendLine(ctx, AuthorizedKeysPath(home), key, true); err != nil {
		return err
	}

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"chown", "-R", s.user + ":" + s.user, sshDir},
		Elevate: true,
	}); err != nil {
		return err
	}
	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"chmod", fileModeString(SSHDirMode), sshDir},
		Elevate: true,
	}); err != nil {
		return err
	}
	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"chmod", fileModeString(AuthorizedKeysMode), AuthorizedKeysPath(home)},
		Elevate: true,
	}); err != nil {
		return err
	}

	return nil
}
