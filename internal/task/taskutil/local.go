package taskutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadLocalFile reads a file on the machine running groundwork, expanding a
// leading "~/" to the current user's home directory. Steps use it for
// artifacts that are uploaded to the target (public keys, firewall rules).
func ReadLocalFile(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read local file %q: %w", path, err)
	}
	return string(data), nil
}
