package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	goconfig "github.com/tpodg/go-config"
)

const (
	// DefaultConfigFileName is the tool configuration looked up in $HOME
	// and the working directory.
	DefaultConfigFileName = ".groundwork.yaml"
	// DefaultProfileDocument is the relative path of the profile document.
	DefaultProfileDocument = "conf.json"
	// DefaultProfileName selects the profile when none is given.
	DefaultProfileName = "default"
)

type Config struct {
	Server          ServerConfig `yaml:"server"`
	ProfileDocument string       `yaml:"profile_document"`
	Profile         string       `yaml:"profile"`
}

type ServerConfig struct {
	Name             string        `yaml:"name"`
	Address          string        `yaml:"address"`
	User             UserConfig    `yaml:"user"`
	KnownHostsPath   string        `yaml:"known_hosts"`
	UseAgent         *bool         `yaml:"use_agent"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

type UserConfig struct {
	Name         string `yaml:"name"`
	SSHKey       string `yaml:"ssh_key"`
	SudoPassword string `yaml:"sudo_password"`
}

// Load the configuration from the given file or default locations.
func Load(cfgFile string) (*Config, error) {
	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}

	c := goconfig.New()
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
		}
		c.WithProviders(&goconfig.Yaml{Path: absPath})
	}

	c.WithProviders(&goconfig.Env{Prefix: "GROUNDWORK"})

	cfg := &Config{}
	if err := c.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ProfileDocument == "" {
		cfg.ProfileDocument = DefaultProfileDocument
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfileName
	}

	return cfg, nil
}

func findConfigFile(cfgFile string) (string, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		return cfgFile, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, DefaultConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if _, err := os.Stat(DefaultConfigFileName); err == nil {
		return DefaultConfigFileName, nil
	}

	return "", nil
}
