package remote

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/server"
	"github.com/groundwork-dev/groundwork/internal/strutil"
)

// Executor runs guarded-step operations against a single remote target.
//
// Run executes a structured command. In strict mode a non-zero exit is
// surfaced as *CommandError; in tolerant mode the Result carries the exit
// code for the caller to inspect. The file helpers are idempotent: AppendLine
// never duplicates an identical line and SubstituteInFile is a no-op when no
// line matches.
type Executor interface {
	Host() string
	Run(ctx context.Context, cmd Command) (Result, error)
	Exists(ctx context.Context, path string) (bool, error)
	ReadFile(ctx context.Context, path string) (string, bool, error)
	WriteFile(ctx context.Context, path, content string, mode fs.FileMode, elevate bool) error
	AppendLine(ctx context.Context, path, line string, elevate bool) error
	SubstituteInFile(ctx context.Context, path, from, to string, elevate bool) error
}

// SSH is the Executor used against real servers.
type SSH struct {
	srv        server.Server
	sudoPrefix string
	sudoProbed bool
}

func NewSSH(srv server.Server) *SSH {
	return &SSH{srv: srv}
}

func (s *SSH) Host() string { return s.srv.ID() }

func (s *SSH) Run(ctx context.Context, cmd Command) (Result, error) {
	prefix := ""
	if cmd.elevated() {
		var err error
		prefix, err = s.prefix(ctx)
		if err != nil {
			return Result{}, err
		}
	}
	return s.execute(ctx, cmd.render(prefix), cmd.Tolerant)
}

func (s *SSH) Exists(ctx context.Context, path string) (bool, error) {
	res, err := s.Run(ctx, Command{
		Argv:     []string{"test", "-e", path},
		Elevate:  true,
		Tolerant: true,
	})
	if err != nil {
		return false, fmt.Errorf("check existence of %q: %w", path, err)
	}
	return res.Ok(), nil
}

func (s *SSH) ReadFile(ctx context.Context, path string) (string, bool, error) {
	res, err := s.Run(ctx, Command{
		Argv:     []string{"cat", path},
		Elevate:  true,
		Tolerant: true,
	})
	if err != nil {
		return "", false, fmt.Errorf("read file %q: %w", path, err)
	}
	if !res.Ok() {
		return "", false, nil
	}
	return res.Stdout, true, nil
}

func (s *SSH) WriteFile(ctx context.Context, path, content string, mode fs.FileMode, elevate bool) error {
	sudo, err := s.elevationPrefix(ctx, elevate)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("printf '%%s' %s | %stee %s > /dev/null && %schmod %o %s",
		strutil.ShellEscape(content),
		sudo, strutil.ShellEscape(path),
		sudo, mode.Perm(), strutil.ShellEscape(path),
	)
	if _, err := s.execute(ctx, line, false); err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	return nil
}

func (s *SSH) AppendLine(ctx context.Context, path, line string, elevate bool) error {
	sudo, err := s.elevationPrefix(ctx, elevate)
	if err != nil {
		return err
	}
	target := strutil.ShellEscape(path)
	quoted := strutil.ShellEscape(line)
	// The tail probe terminates an unfinished last line before appending,
	// so the new line is never glued onto it.
	cmd := fmt.Sprintf("%sgrep -qxF %s %s 2>/dev/null || { if [ -s %s ] && [ -n \"$(%stail -c1 %s)\" ]; then printf '\\n' | %stee -a %s > /dev/null; fi; printf '%%s\\n' %s | %stee -a %s > /dev/null; }",
		sudo, quoted, target,
		target, sudo, target,
		sudo, target,
		quoted, sudo, target,
	)
	if _, err := s.execute(ctx, cmd, false); err != nil {
		return fmt.Errorf("append to %q: %w", path, err)
	}
	return nil
}

func (s *SSH) SubstituteInFile(ctx context.Context, path, from, to string, elevate bool) error {
	expr := "s|^" + sedEscapePattern(from) + "$|" + sedEscapeReplacement(to) + "|"
	if _, err := s.Run(ctx, Command{
		Argv:    []string{"sed", "-i", expr, path},
		Elevate: elevate,
	}); err != nil {
		return fmt.Errorf("substitute in %q: %w", path, err)
	}
	return nil
}

func (s *SSH) execute(ctx context.Context, line string, tolerant bool) (Result, error) {
	res, err := s.srv.Execute(ctx, line)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	if result.ExitCode != 0 && !tolerant {
		return result, &CommandError{
			Host:     s.srv.ID(),
			Command:  line,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return result, nil
}

// prefix probes once whether the connection already runs as root.
func (s *SSH) prefix(ctx context.Context) (string, error) {
	if s.sudoProbed {
		return s.sudoPrefix, nil
	}
	res, err := s.srv.Execute(ctx, "id -u")
	if err != nil {
		return "", fmt.Errorf("check for root user: %w", err)
	}
	if strings.TrimSpace(res.Stdout) == "0" {
		s.sudoPrefix = ""
	} else {
		s.sudoPrefix = "sudo -n "
	}
	s.sudoProbed = true
	return s.sudoPrefix, nil
}

func (s *SSH) elevationPrefix(ctx context.Context, elevate bool) (string, error) {
	if !elevate {
		return "", nil
	}
	return s.prefix(ctx)
}

func sedEscapePattern(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\', '.', '*', '[', ']', '^', '$', '|':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sedEscapeReplacement(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '\\', '&', '|':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
