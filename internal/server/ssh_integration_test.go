package server_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/groundwork-dev/groundwork/internal/server"
	"github.com/groundwork-dev/groundwork/internal/testutils"
)

func TestSSHServer_Integration(t *testing.T) {
	ctx := context.Background()
	sshC := testutils.SetupSSHContainer(t, ctx)
	defer sshC.Container.Terminate(ctx)

	user := server.User{Name: sshC.User, SSHKey: sshC.KeyPath}
	s := server.NewSSHServer("test-container", sshC.Address, user, sshC.KnownHostsPath, server.SSHOptions{})

	// Wait a bit for the SSH server to be fully ready
	time.Sleep(2 * time.Second)

	res, err := s.Execute(ctx, "echo 'hello world'")
	if err != nil {
		t.Fatalf("Execute failed: %v\nStderr: %s", err, res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "hello world\n" {
		t.Errorf("expected %q, got %q", "hello world\n", res.Stdout)
	}

	res, err = s.Execute(ctx, "ls /does-not-exist")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("expected a non-zero exit code")
	}
	if !strings.Contains(res.Stderr, "does-not-exist") {
		t.Errorf("expected stderr to mention the missing path, got %q", res.Stderr)
	}
}
