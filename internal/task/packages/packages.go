// Package packages refreshes the apt index and installs the configured
// package set. The task itself always runs; each package carries its own
// guard, a dpkg-query probe that skips anything already registered with the
// package manager.
package packages

import (
	"context"
	"embed"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/remote"
	"github.com/groundwork-dev/groundwork/internal/strutil"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/taskutil"
)

const (
	TaskName = "install-packages"

	keyPackages = "packages"
)

//go:embed defaults/packages.yaml
var defaultsFS embed.FS

type defaultsDoc struct {
	Packages []string `yaml:"packages"`
}

// DefaultList returns the built-in package set in install order.
func DefaultList() ([]string, error) {
	data, err := defaultsFS.ReadFile("defaults/packages.yaml")
	if err != nil {
		return nil, fmt.Errorf("read package defaults: %w", err)
	}
	var doc defaultsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse package defaults: %w", err)
	}
	return doc.Packages, nil
}

// Steps builds the task's steps from the loaded profile. A "packages" list
// in the profile replaces the default set wholesale.
func Steps(env *config.Context) ([]task.Step, error) {
	list := strutil.CleanList(env.StringList(keyPackages))
	if len(list) == 0 {
		var err error
		list, err = DefaultList()
		if err != nil {
			return nil, err
		}
	}
	for _, pkg := range list {
		if err := taskutil.ValidateIdentifier("package", pkg); err != nil {
			return nil, err
		}
	}
	return []task.Step{&InstallStep{packages: list}}, nil
}

type InstallStep struct {
	packages []string
}

func (s *InstallStep) Name() string {
	return "install packages"
}

func (s *InstallStep) NeedsExecution(ctx context.Context, exec remote.Executor) (bool, error) {
	return true, nil
}

func (s *InstallStep) Execute(ctx context.Context, exec remote.Executor) error {
	// Refresh the package index once before installing anything.
	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"apt", "update"},
		Elevate: true,
	}); err != nil {
		return err
	}

	for _, pkg := range s.packages {
		if err := s.installPackage(ctx, exec, pkg); err != nil {
			return err
		}
	}
	return nil
}

func (s *InstallStep) installPackage(ctx context.Context, exec remote.Executor, pkg string) error {
	probe, err := exec.Run(ctx, remote.Command{
		Argv:     []string{"dpkg-query", "--show", pkg},
		Elevate:  true,
		Tolerant: true,
	})
	if err != nil {
		return err
	}
	if probe.Ok() {
		taskutil.Warnf("%s is already installed", pkg)
		return nil
	}

	if _, err := exec.Run(ctx, remote.Command{
		Argv:    []string{"apt", "-y", "install", pkg},
		Env:     map[string]string{"DEBIAN_FRONTEND": "noninteractive"},
		Elevate: true,
	}); err != nil {
		return err
	}
	return nil
}
