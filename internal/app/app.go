package app

import (
	"log/slog"
	"os"

	"github.com/groundwork-dev/groundwork/internal/config"
	"github.com/groundwork-dev/groundwork/internal/task"
	"github.com/groundwork-dev/groundwork/internal/task/catalog"
)

type App struct {
	Logger   *slog.Logger
	Config   *config.Config
	Registry *task.Registry
	Profiles *config.Loader
}

func New(cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	registry, err := catalog.Builtins()
	if err != nil {
		return nil, err
	}

	return &App{
		Logger:   logger,
		Config:   cfg,
		Registry: registry,
		Profiles: config.NewLoader(cfg.ProfileDocument, logger),
	}, nil
}
