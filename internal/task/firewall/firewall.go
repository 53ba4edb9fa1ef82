// Package firewall uploads the iptables rule file and installs the boot
// init script that restores it. An existing init script means the firewall
// was already set up; nothing is touched then.
package firewall

import (
	"context"
	"fmt"
	"strings"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

const (
	TaskName = "setup-firewall"

	// InitScriptPath is the if-pre-up.d hook that restores the rules on
	// boot. Its presence is the step's guard.
	InitScriptPath = "/etc/network/if-pre-up.d/firewall"
	// RemoteRulesPath is where the rule file lands on the target.
	RemoteRulesPath = "/etc/iptables.firewall.rules"

	keyRulesPath     = "firewall_rules_path"
	defaultRulesPath = "iptables.firewall.rules"
)

// Steps builds the task's steps from the loaded profile.
func Steps(env *config.Context) ([]task.Step, error) {
	return []task.Step{
		&InstallStep{rulesPath: env.Value(keyRulesPath, defaultRulesPath)},
	}, nil
}

// InstallStep uploads the rules, writes the init script and invokes it once
// so the rules are active without a reboot.
type InstallStep struct {
	rulesPath string
}

func (s *InstallStep) Name() string {
	return "install firewall"
}

func (s *InstallStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	exists, err := exec.Exists(ctx, InitScriptPath)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *InstallStep) Execute(ctx context.Context, exec remote.Executor) error {
	rules, err := taskutil.ReadLocalFile(s.rulesPath)
	if err != nil {
		return err
	}

	if err := exec.WriteFile(ctx, RemoteRulesPath, rules, 0o644, true); err != nil {
		return err
	}

	script, err := renderInitScript()
	if err != nil {
		return err
	}
	if err := exec.WriteFile(ctx, InitScriptPath, script, 0o755, true); err != nil {
		return err
	}

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{InitScriptPath},
		Elevate: true,
	}); err != nil {
		return err
	}
	return nil
}

type initScriptData struct {
	RulesPath string
}

func renderInitScript() (string, error) {
	var buf strings.Builder
	data := initScriptData{RulesPath: RemoteRulesPath}
	if err := firewallScriptTemplates.ExecuteTemplate(&buf, "main", data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
