package adminuser

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

const (
	SudoersDir                         = "/etc/sudoers.d"
	SudoersFilePrefix                  = "groundwork-"
	SSHDirName                         = ".ssh"
	AuthorizedKeysFileName             = "authorized_keys"
	SSHDirMode             fs.FileMode = 0o700
	AuthorizedKeysMode     fs.FileMode = 0o600
	SudoersFileMode        fs.FileMode = 0o440
)

func HomeDir(name string) string {
	return path.Join("/home", name)
}

func SudoersFilePath(name string) string {
	return path.Join(SudoersDir, SudoersFilePrefix+taskutil.SanitizeFilename(name, "user"))
}

func SudoersLine(name string) string {
	return fmt.Sprintf("%s ALL=(ALL) NOPASSWD:ALL", name)
}

func SSHDirPath(home string) string {
	return path.Join(home, SSHDirName)
}

func AuthorizedKeysPath(home string) string {
	return path.Join(SSHDirPath(home), AuthorizedKeysFileName)
}

func fileModeString(mode fs.FileMode) string {
	return fmt.Sprintf("%o", mode.Perm())
}
