package sshd

import (
	"context"
	"fmt"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

const (
	DefaultConfigPath         = "/etc/ssh/sshd_config"
	KeyPermitRootLogin        = "PermitRootLogin"
	KeyPasswordAuthentication = "PasswordAuthentication"
	ValueNo                   = "no"
	ValueYes                  = "yes"
	ServiceName               = "ssh"
)

var configPaths = []string{
	DefaultConfigPath,
}

// ReadConfig returns the path and content of the sshd configuration file.
func ReadConfig(ctx context.Context, exec remote.Executor) (string, string, error) {
	for _, path := range configPaths {
		output, found, err := exec.ReadFile(ctx, path)
		if err != nil {
			return "", "", err
		}
		if !found {
			continue
		}
		return path, output, nil
	}
	return "", "", fmt.Errorf("sshd config not found (checked: %s)", strings.Join(configPaths, ", "))
}

// Setting returns the effective value of a directive in the given config
// content, or "" when the directive is absent.
func Setting(content, key string) (string, error) {
	settings, err := taskutil.ParseKeyValueSettings(content)
	if err != nil {
		return "", err
	}
	return settings[strings.ToLower(key)], nil
}
