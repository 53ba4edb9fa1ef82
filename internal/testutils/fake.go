package testutils

import (
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

// FakeExecutor implements remote.Executor against in-memory server state.
// The state persists across runs, which is what the idempotence tests need:
// running a task twice against the same fake must not repeat guarded
// actions.
type FakeExecutor struct {
	Name string

	Files           map[string]string
	Modes           map[string]fs.FileMode
	Dirs            map[string]bool
	Users           map[string]bool
	Groups          map[string]bool
	Memberships     map[string]map[string]bool
	Packages        map[string]bool
	Roles           map[string]bool
	Databases       map[string]bool
	ServiceRestarts map[string]int
	IndexRefreshes  int

	// Commands records every Run invocation as its plain argv line, in
	// order. File helper calls are not recorded here.
	Commands []string
	// Runs keeps the structured commands as issued, account switch and
	// flags included.
	Runs []remote.Command
}

func NewFakeExecutor(name string) *FakeExecutor {
	return &FakeExecutor{
		Name:            name,
		Files:           make(map[string]string),
		Modes:           make(map[string]fs.FileMode),
		Dirs:            make(map[string]bool),
		Users:           make(map[string]bool),
		Groups:          make(map[string]bool),
		Memberships:     make(map[string]map[string]bool),
		Packages:        make(map[string]bool),
		Roles:           make(map[string]bool),
		Databases:       make(map[string]bool),
		ServiceRestarts: make(map[string]int),
	}
}

func (f *FakeExecutor) Host() string {
	if f.Name == "" {
		return "fake"
	}
	return f.Name
}

// CommandCount returns how many recorded commands start with prefix.
func (f *FakeExecutor) CommandCount(prefix string) int {
	count := 0
	for _, cmd := range f.Commands {
		if strings.HasPrefix(cmd, prefix) {
			count++
		}
	}
	return count
}

func (f *FakeExecutor) Run(ctx context.Context, cmd remote.Command) (remote.Result, error) {
	line := strings.Join(cmd.Argv, " ")
	f.Commands = append(f.Commands, line)
	f.Runs = append(f.Runs, cmd)

	res := f.dispatch(cmd)
	if res.ExitCode != 0 && !cmd.Tolerant {
		return res, &remote.CommandError{
			Host:     f.Host(),
			Command:  line,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return res, nil
}

func (f *FakeExecutor) dispatch(cmd remote.Command) remote.Result {
	argv := cmd.Argv
	if len(argv) == 0 {
		return remote.Result{ExitCode: 127, Stderr: "empty command"}
	}

	switch argv[0] {
	case "test":
		if len(argv) == 3 && argv[1] == "-e" && f.pathExists(argv[2]) {
			return remote.Result{}
		}
		return remote.Result{ExitCode: 1}
	case "cat":
		if content, ok := f.Files[argv[1]]; ok {
			return remote.Result{Stdout: content}
		}
		return remote.Result{ExitCode: 1, Stderr: "cat: " + argv[1] + ": No such file or directory"}
	case "getent":
		return f.getent(argv)
	case "groupadd":
		f.Groups[argv[len(argv)-1]] = true
		return remote.Result{}
	case "adduser":
		return f.adduser(argv)
	case "mkdir":
		f.Dirs[argv[len(argv)-1]] = true
		return remote.Result{}
	case "chown":
		return remote.Result{}
	case "chmod":
		return remote.Result{}
	case "apt":
		return f.apt(argv)
	case "dpkg-query":
		if len(argv) == 3 && argv[1] == "--show" && f.Packages[argv[2]] {
			return remote.Result{Stdout: argv[2] + "\n"}
		}
		return remote.Result{ExitCode: 1, Stderr: "dpkg-query: no packages found"}
	case "service":
		if len(argv) == 3 && argv[2] == "restart" {
			f.ServiceRestarts[argv[1]]++
			return remote.Result{}
		}
		return remote.Result{ExitCode: 1, Stderr: "unsupported service action"}
	case "ssh-keygen":
		return f.sshKeygen(argv)
	case "psql", "createuser", "createdb":
		// On a real server these only work through the postgres account.
		if cmd.User != "postgres" {
			return remote.Result{ExitCode: 2, Stderr: argv[0] + ": error: role does not exist"}
		}
		switch argv[0] {
		case "psql":
			return f.psql(argv)
		case "createuser":
			f.Roles[argv[len(argv)-1]] = true
			return remote.Result{}
		}
		f.Databases[argv[len(argv)-1]] = true
		return remote.Result{}
	case "id", "echo":
		return remote.Result{Stdout: "0\n"}
	}

	// Staged scripts are invoked by absolute path.
	if strings.HasPrefix(argv[0], "/") && f.pathExists(argv[0]) {
		return remote.Result{}
	}

	// The tasks under test only issue the commands modeled above; anything
	// else is a test gap worth surfacing.
	return remote.Result{ExitCode: 127, Stderr: "fake executor: unknown command " + argv[0]}
}

func (f *FakeExecutor) getent(argv []string) remote.Result {
	if len(argv) != 3 {
		return remote.Result{ExitCode: 2}
	}
	switch argv[1] {
	case "group":
		if f.Groups[argv[2]] {
			return remote.Result{Stdout: argv[2] + ":x:1000:\n"}
		}
	case "passwd":
		if f.Users[argv[2]] {
			return remote.Result{Stdout: argv[2] + ":x:1000:1000::/home/" + argv[2] + ":/bin/sh\n"}
		}
	}
	return remote.Result{ExitCode: 2}
}

func (f *FakeExecutor) adduser(argv []string) remote.Result {
	if len(argv) < 2 {
		return remote.Result{ExitCode: 1}
	}
	name := argv[1]

	// Two-argument plain form adds the user to a group.
	if len(argv) == 3 && !strings.HasPrefix(argv[2], "--") {
		group := argv[2]
		if !f.Users[name] || !f.Groups[group] {
			return remote.Result{ExitCode: 1, Stderr: "adduser: unknown user or group"}
		}
		if f.Memberships[name] == nil {
			f.Memberships[name] = make(map[string]bool)
		}
		f.Memberships[name][group] = true
		return remote.Result{}
	}

	if f.Users[name] {
		return remote.Result{ExitCode: 1, Stderr: "adduser: the user already exists"}
	}
	f.Users[name] = true
	f.Dirs[path.Join("/home", name)] = true
	return remote.Result{}
}

func (f *FakeExecutor) apt(argv []string) remote.Result {
	if len(argv) == 2 && argv[1] == "update" {
		f.IndexRefreshes++
		return remote.Result{}
	}
	if len(argv) == 4 && argv[1] == "-y" && argv[2] == "install" {
		f.Packages[argv[3]] = true
		return remote.Result{}
	}
	return remote.Result{ExitCode: 100, Stderr: "unsupported apt invocation"}
}

func (f *FakeExecutor) sshKeygen(argv []string) remote.Result {
	for i, arg := range argv {
		if arg == "-f" && i+1 < len(argv) {
			f.Files[argv[i+1]] = "fake private key"
			f.Files[argv[i+1]+".pub"] = "ssh-rsa FAKE generated@fake"
			return remote.Result{}
		}
	}
	return remote.Result{ExitCode: 1, Stderr: "ssh-keygen: missing -f"}
}

func (f *FakeExecutor) psql(argv []string) remote.Result {
	query := argv[len(argv)-1]
	for role := range f.Roles {
		if strings.Contains(query, "rolname='"+role+"'") {
			return remote.Result{Stdout: "1\n"}
		}
	}
	return remote.Result{Stdout: "\n"}
}

func (f *FakeExecutor) Exists(ctx context.Context, p string) (bool, error) {
	return f.pathExists(p), nil
}

func (f *FakeExecutor) ReadFile(ctx context.Context, p string) (string, bool, error) {
	content, ok := f.Files[p]
	return content, ok, nil
}

func (f *FakeExecutor) WriteFile(ctx context.Context, p, content string, mode fs.FileMode, elevate bool) error {
	f.Files[p] = content
	f.Modes[p] = mode
	return nil
}

func (f *FakeExecutor) AppendLine(ctx context.Context, p, line string, elevate bool) error {
	content, ok := f.Files[p]
	if ok {
		found, err := taskutil.HasExactLine(content, line)
		if err != nil {
			return err
		}
		if found {
			return nil
		}
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	f.Files[p] = content + line + "\n"
	return nil
}

func (f *FakeExecutor) SubstituteInFile(ctx context.Context, p, from, to string, elevate bool) error {
	content, ok := f.Files[p]
	if !ok {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line == from {
			lines[i] = to
		}
	}
	f.Files[p] = strings.Join(lines, "\n")
	return nil
}

func (f *FakeExecutor) pathExists(p string) bool {
	if f.Dirs[p] {
		return true
	}
	_, ok := f.Files[p]
	return ok
}
