package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelepuginivan/sunshift/internal/eventbus"
	"github.com/shelepuginivan/sunshift/internal/gammarelay"
	"github.com/shelepuginivan/sunshift/internal/icon"
	"github.com/shelepuginivan/sunshift/internal/tray"
)

// GetTemperature returns the current color temperature.
func (a *App) GetTemperature(ctx context.Context) (uint16, error) {
	return a.bridge.GetTemperature(ctx)
}

// SetTemperature sets the color temperature.
func (a *App) SetTemperature(ctx context.Context, temperature uint16) error {
	return a.bridge.SetTemperature(ctx, temperature)
}

// GetBrightness returns the current brightness.
func (a *App) GetBrightness(ctx context.Context) (float64, error) {
	return a.bridge.GetBrightness(ctx)
}

// SetBrightness sets the brightness.
func (a *App) SetBrightness(ctx context.Context, brightness float64) error {
	return a.bridge.SetBrightness(ctx, brightness)
}

// GetState returns the current temperature and brightness.
func (a *App) GetState(ctx context.Context) (gammarelay.State, error) {
	return a.bridge.GetState(ctx)
}

// SetState sets temperature, then brightness. The write is not atomic.
func (a *App) SetState(ctx context.Context, state gammarelay.State) error {
	return a.bridge.SetState(ctx, state)
}

// UpdateTrayIcon renders the icon for temperature and pushes it to the tray
// together with the tooltip.
func (a *App) UpdateTrayIcon(temperature uint16) error {
	if err := icon.Update(a.tray, a.config().AppName, temperature); err != nil {
		log.Error().Err(err).Uint16("temperature", temperature).Msg("Failed to update tray icon")
		return err
	}

	a.lastTemperature.Store(uint32(temperature))
	a.known.Store(true)

	log.Debug().Uint16("temperature", temperature).Msg("Tray icon updated")
	return nil
}

// Refresh reads the current state and publishes state_changed when the
// temperature differs from the one shown in the tray.
func (a *App) Refresh(ctx context.Context) error {
	first := !a.refreshed.Swap(true)

	state, err := a.GetState(ctx)
	if err != nil {
		if a.connected.Swap(false) || first {
			log.Warn().Err(err).Msg("Gamma service is unavailable")
			a.setStatus(tray.ItemStatusNeedsAttention)
		}
		return err
	}

	if !a.connected.Swap(true) {
		log.Info().Str("state", state.String()).Msg("Connected to gamma service")
		a.setStatus(tray.ItemStatusActive)
	}

	if a.known.Load() && uint16(a.lastTemperature.Load()) == state.Temperature {
		return nil
	}

	log.Debug().Str("state", state.String()).Msg("State changed")
	a.bus.Publish(eventbus.Event{Type: eventbus.EventTypeStateChanged, Payload: state})

	return nil
}

// refreshLoop refreshes the state immediately and then every poll interval
// until ctx is done.
func (a *App) refreshLoop(ctx context.Context) {
	interval := a.config().PollInterval.Duration()
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := a.Refresh(ctx); err != nil {
			log.Debug().Err(err).Msg("Refresh failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// setStatus reflects service reachability in the tray item status.
func (a *App) setStatus(status tray.ItemStatus) {
	if a.status == nil {
		return
	}

	if err := a.status.SetStatus(status); err != nil {
		log.Warn().Err(err).Str("status", string(status)).Msg("Failed to update tray status")
	}
}
