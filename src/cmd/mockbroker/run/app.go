package run

import (
	"context"
	"fmt"

	"github.com/jiaming2012/mockbroker/src/eventpubsub"
	"github.com/jiaming2012/mockbroker/src/logger"
	"github.com/jiaming2012/mockbroker/src/mockbroker/config"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
	"github.com/jiaming2012/mockbroker/src/mockbroker/services"
	"github.com/jiaming2012/mockbroker/src/utils"
)

type App struct {
	Config   *config.Config
	Hours    *models.MarketHours
	Sources  []models.HistoricalDataSource
	Bus      *eventpubsub.Bus
	Registry *services.AccountRegistry
}

type SetupArgs struct {
	ConfigPath string
	EnvDir     string
}

// Setup loads the environment and config, then wires the registry that every
// command works through.
func Setup(args SetupArgs) (*App, error) {
	if err := utils.InitEnvironmentVariables(args.EnvDir); err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	hours, err := cfg.Hours()
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	sources, err := services.NewHistoricalSources(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("Setup: %w", err)
	}

	bus := eventpubsub.New()
	factory := services.NewAccountFactory(hours, sources, cfg.Storage.StateDir, bus)

	return &App{
		Config:   cfg,
		Hours:    hours,
		Sources:  sources,
		Bus:      bus,
		Registry: services.NewAccountRegistry(cfg.MockAccountConfig(), factory, bus),
	}, nil
}

// WithAccount opens accountID, runs fn under its session lock and closes it
// again, which persists any change fn made.
func (a *App) WithAccount(ctx context.Context, req services.CreateAccountRequest, fn func(account *models.MockAccount) error) error {
	id, err := a.Registry.Open(ctx, req)
	if err != nil {
		return err
	}

	fnErr := a.Registry.Do(id, fn)

	if err := a.Registry.Close(ctx, id); err != nil {
		return fmt.Errorf("WithAccount: %w", err)
	}

	return fnErr
}
