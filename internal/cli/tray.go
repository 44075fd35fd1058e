package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shelepuginivan/sunshift/internal/app"
	"github.com/shelepuginivan/sunshift/internal/bridge"
	"github.com/shelepuginivan/sunshift/internal/config"
	"github.com/shelepuginivan/sunshift/internal/eventbus"
	"github.com/shelepuginivan/sunshift/internal/gammarelay"
	"github.com/shelepuginivan/sunshift/internal/icon"
	"github.com/shelepuginivan/sunshift/internal/notify"
	"github.com/shelepuginivan/sunshift/internal/tray"
)

func newTrayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the tray icon until quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(opts)
		},
	}
}

func runTray(opts *options) error {
	cfg := opts.cfg

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	item := tray.NewItem(conn, icon.MainTrayID, tray.Options{
		Title:    cfg.AppName,
		Tooltip:  icon.IdleTooltip(cfg.AppName),
		IconName: "weather-clear-night",
		Category: tray.ItemCategoryHardware,
		Entries:  app.MenuEntries(cfg),
	})

	deps := app.Deps{
		Bridge: bridge.New(gammarelay.Open,
			bridge.WithWorkers(cfg.Bridge.Workers),
			bridge.WithQueueSize(cfg.Bridge.QueueSize),
		),
		Bus:  eventbus.NewWithConfig(cfg.EventBus.Workers, cfg.EventBus.QueueSize),
		Tray:   item,
		Menu:   item.Menu(),
		Status: item,
	}

	if !cfg.Notify.Disabled {
		notifier := notify.New(conn, cfg.AppName,
			notify.WithIcon("weather-clear-night"),
			notify.WithTimeout(cfg.Notify.Timeout.Duration()),
		)
		defer notifier.Close()
		deps.Notifier = notifier
	}

	a := app.New(cfg, deps)

	item.Menu().OnClicked(a.HandleMenuClick)
	item.OnActivate(func(x, y int32) {
		a.HandleActivate()
	})

	if err := item.Listen(); err != nil {
		return err
	}
	defer item.Close()

	log.Info().Str("name", item.Name()).Msg("Tray item registered")

	watcher, err := config.Watch(opts.configPath, config.DefaultDebounce, a.SetConfig)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", opts.configPath).Msg("No config file, reload disabled")
	case err != nil:
		log.Warn().Err(err).Msg("Failed to watch config file")
	default:
		defer watcher.Stop()
	}

	if err := a.Start(app.SignalContext()); err != nil {
		return err
	}

	a.Wait()

	ctx, cancel := app.ShutdownContext(cfg)
	defer cancel()
	a.Stop(ctx)

	return nil
}
