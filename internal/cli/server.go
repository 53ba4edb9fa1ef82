package cli

import (
	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/server"
)

func newServer(cfg config.ServerConfig) *server.SSHServer {
	name := cfg.Name
	if name == "" {
		name = cfg.Address
	}
	return server.NewSSHServer(name, cfg.Address, server.User{
		Name:         cfg.User.Name,
		SSHKey:       cfg.User.SSHKey,
		SudoPassword: cfg.User.SudoPassword,
	}, cfg.KnownHostsPath, server.SSHOptions{
		UseAgent:         cfg.UseAgent,
		HandshakeTimeout: cfg.HandshakeTimeout,
	})
}
