package remote

import (
	"fmt"
	"strings"
)

// CommandError reports a remote command that exited non-zero in strict mode.
type CommandError struct {
	Host     string
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q on %s exited with code %d", e.Command, e.Host, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}
