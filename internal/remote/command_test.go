package remote

import "testing"

func TestCommandString(t *testing.T) {
	cases := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "plain",
			cmd:  Command{Argv: []string{"adduser", "ops"}},
			want: "'adduser' 'ops'",
		},
		{
			name: "escapes_arguments",
			cmd:  Command{Argv: []string{"echo", "a b; rm -rf /"}},
			want: "'echo' 'a b; rm -rf /'",
		},
		{
			name: "env_sorted",
			cmd: Command{
				Argv: []string{"apt", "-y", "install", "nginx"},
				Env:  map[string]string{"LC_ALL": "C", "DEBIAN_FRONTEND": "noninteractive"},
			},
			want: "env 'DEBIAN_FRONTEND=noninteractive' 'LC_ALL=C' 'apt' '-y' 'install' 'nginx'",
		},
		{
			name: "working_dir",
			cmd:  Command{Argv: []string{"ls"}, Dir: "/var/www"},
			want: "cd '/var/www' && 'ls'",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cmd.String()
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCommandRender(t *testing.T) {
	cases := []struct {
		name   string
		cmd    Command
		prefix string
		want   string
	}{
		{
			name:   "no_elevation",
			cmd:    Command{Argv: []string{"id", "-u"}},
			prefix: "sudo -n ",
			want:   "'id' '-u'",
		},
		{
			name:   "elevated",
			cmd:    Command{Argv: []string{"apt", "update"}, Elevate: true},
			prefix: "sudo -n ",
			want:   "sudo -n 'apt' 'update'",
		},
		{
			name:   "elevated_as_root",
			cmd:    Command{Argv: []string{"apt", "update"}, Elevate: true},
			prefix: "",
			want:   "'apt' 'update'",
		},
		{
			name:   "as_user",
			cmd:    Command{Argv: []string{"mkdir", "-p", "/home/app/logs"}, User: "app"},
			prefix: "sudo -n ",
			want:   "sudo -n -u 'app' sh -c ''\"'\"'mkdir'\"'\"' '\"'\"'-p'\"'\"' '\"'\"'/home/app/logs'\"'\"''",
		},
		{
			name:   "as_user_on_root_connection",
			cmd:    Command{Argv: []string{"createuser", "-S", "-D", "-R", "blog"}, User: "postgres"},
			prefix: "",
			want:   "runuser -u 'postgres' -- sh -c ''\"'\"'createuser'\"'\"' '\"'\"'-S'\"'\"' '\"'\"'-D'\"'\"' '\"'\"'-R'\"'\"' '\"'\"'blog'\"'\"''",
		},
		{
			name:   "elevated_with_dir",
			cmd:    Command{Argv: []string{"ls"}, Dir: "/root", Elevate: true},
			prefix: "sudo -n ",
			want:   "sudo -n sh -c 'cd '\"'\"'/root'\"'\"' && '\"'\"'ls'\"'\"''",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cmd.render(tc.prefix)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSedEscape(t *testing.T) {
	if got := sedEscapePattern("#PasswordAuthentication yes"); got != "#PasswordAuthentication yes" {
		t.Fatalf("unexpected pattern escape: %q", got)
	}
	if got := sedEscapePattern("a.b*c"); got != `a\.b\*c` {
		t.Fatalf("unexpected pattern escape: %q", got)
	}
	if got := sedEscapeReplacement("a&b"); got != `a\&b` {
		t.Fatalf("unexpected replacement escape: %q", got)
	}
}
