package remote

import (
	"sort"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/strutil"
)

// Command describes a single remote invocation. Arguments are kept as an
// array and escaped individually when serialized, so configuration values
// never reach the remote shell unquoted.
type Command struct {
	// Argv is the program and its arguments.
	Argv []string
	// User runs the command as another user via sudo. Implies elevation.
	User string
	// Dir changes into this directory before running the command.
	Dir string
	// Env sets environment overrides for the command.
	Env map[string]string
	// Elevate runs the command through sudo.
	Elevate bool
	// Tolerant reports a non-zero exit through the Result instead of
	// failing the call. Existence probes rely on this.
	Tolerant bool
}

// Result holds the outcome of a remote command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Ok reports whether the command exited zero.
func (r Result) Ok() bool { return r.ExitCode == 0 }

// String renders the command line that would be sent to the remote shell,
// without any elevation prefix.
func (c Command) String() string {
	line := strutil.ShellJoin(c.Argv)

	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for key := range c.Env {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, strutil.ShellEscape(key+"="+c.Env[key]))
		}
		line = "env " + strings.Join(pairs, " ") + " " + line
	}

	if c.Dir != "" {
		line = "cd " + strutil.ShellEscape(c.Dir) + " && " + line
	}

	return line
}

// elevated reports whether the command requires sudo.
func (c Command) elevated() bool {
	return c.Elevate || c.User != ""
}

// render produces the full command line including the elevation prefix.
// sudoPrefix is empty when the connection already runs as root.
func (c Command) render(sudoPrefix string) string {
	line := c.String()
	if c.User != "" {
		// A root connection still switches accounts; runuser works
		// without sudo installed.
		if sudoPrefix != "" {
			return sudoPrefix + "-u " + strutil.ShellEscape(c.User) + " sh -c " + strutil.ShellEscape(line)
		}
		return "runuser -u " + strutil.ShellEscape(c.User) + " -- sh -c " + strutil.ShellEscape(line)
	}
	if !c.Elevate || sudoPrefix == "" {
		return line
	}
	if c.Dir != "" || len(c.Env) > 0 {
		// cd/env wrappers have to run inside the elevated shell.
		return sudoPrefix + "sh -c " + strutil.ShellEscape(line)
	}
	return sudoPrefix + line
}
