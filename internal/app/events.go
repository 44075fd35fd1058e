package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/shelepuginivan/sunshift/internal/config"
	"github.com/shelepuginivan/sunshift/internal/eventbus"
	"github.com/shelepuginivan/sunshift/internal/gammarelay"
	"github.com/shelepuginivan/sunshift/internal/tray"
)

// Tray menu entry names.
const (
	MenuPresetPrefix = "preset_"
	MenuShow         = "show"
	MenuQuit         = "quit"
)

// menuPresets are the presets offered in the tray menu, in order.
var menuPresets = []string{"day", "evening", "night"}

// MenuEntries returns the tray menu for cfg: one entry per menu preset, a
// separator, "Show Window", and "Quit".
func MenuEntries(cfg *config.Config) []tray.MenuEntry {
	entries := make([]tray.MenuEntry, 0, len(menuPresets)+3)

	for _, id := range menuPresets {
		preset, ok := cfg.Preset(id)
		if !ok {
			continue
		}

		entries = append(entries, tray.MenuEntry{
			Name:  MenuPresetPrefix + preset.ID,
			Label: fmt.Sprintf("%s (%dK)", preset.Name, preset.Temperature),
		})
	}

	return append(entries,
		tray.MenuEntry{Separator: true},
		tray.MenuEntry{Name: MenuShow, Label: "Show Window"},
		tray.MenuEntry{Name: MenuQuit, Label: "Quit"},
	)
}

// TranslateMenuItem maps a tray menu entry name to an application event.
// Unknown names are reported with ok set to false.
func TranslateMenuItem(name string) (event eventbus.Event, ok bool) {
	switch {
	case strings.HasPrefix(name, MenuPresetPrefix) && len(name) > len(MenuPresetPrefix):
		return eventbus.Event{
			Type:    eventbus.EventTypeApplyPreset,
			Payload: strings.TrimPrefix(name, MenuPresetPrefix),
		}, true
	case name == MenuShow:
		return eventbus.Event{Type: eventbus.EventTypeShowWindow}, true
	case name == MenuQuit:
		return eventbus.Event{Type: eventbus.EventTypeQuit}, true
	}

	return eventbus.Event{}, false
}

// HandleMenuClick publishes the event of a clicked tray menu entry.
func (a *App) HandleMenuClick(name string) {
	event, ok := TranslateMenuItem(name)
	if !ok {
		log.Warn().Str("entry", name).Msg("Unknown tray menu entry")
		return
	}

	log.Debug().Str("entry", name).Str("event_type", string(event.Type)).Msg("Tray menu clicked")
	a.bus.Publish(event)
}

// HandleActivate publishes toggle_quick_control for a left click on the tray
// icon.
func (a *App) HandleActivate() {
	log.Debug().Msg("Tray icon activated")
	a.bus.Publish(eventbus.Event{Type: eventbus.EventTypeToggleQuickControl})
}

// subscribe sets up all event handlers.
func (a *App) subscribe() {
	a.bus.Subscribe(eventbus.EventTypeApplyPreset, func(event eventbus.Event) {
		id, _ := event.Payload.(string)

		if err := a.ApplyPreset(a.ctx, id); err != nil {
			log.Error().Err(err).Str("preset", id).Msg("Failed to apply preset")
			a.alert(err)
		}
	})

	showQuickControl := func(event eventbus.Event) {
		if err := a.ShowQuickControl(a.ctx); err != nil {
			log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to show quick controls")
			a.alert(err)
		}
	}
	a.bus.Subscribe(eventbus.EventTypeShowWindow, showQuickControl)
	a.bus.Subscribe(eventbus.EventTypeToggleQuickControl, showQuickControl)

	a.bus.Subscribe(eventbus.EventTypeQuit, func(eventbus.Event) {
		log.Info().Msg("Quit requested")
		a.Quit()
	})

	a.bus.Subscribe(eventbus.EventTypeStateChanged, func(event eventbus.Event) {
		state, ok := event.Payload.(gammarelay.State)
		if !ok {
			return
		}

		// Failures are logged by UpdateTrayIcon.
		_ = a.UpdateTrayIcon(state.Temperature)
	})
}

// ApplyPreset sets the state of the preset with the given id and updates the
// tray icon.
func (a *App) ApplyPreset(ctx context.Context, id string) error {
	preset, ok := a.config().Preset(id)
	if !ok {
		return fmt.Errorf("apply preset: unknown preset %q", id)
	}

	if err := a.SetState(ctx, preset.State()); err != nil {
		return fmt.Errorf("apply preset %s: %w", id, err)
	}

	log.Info().
		Str("preset", id).
		Uint16("temperature", preset.Temperature).
		Float64("brightness", preset.Brightness).
		Msg("Preset applied")

	return a.UpdateTrayIcon(preset.Temperature)
}

// ShowQuickControl reads the current state and shows it in a notification.
func (a *App) ShowQuickControl(ctx context.Context) error {
	state, err := a.GetState(ctx)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Temperature: %dK\nBrightness: %.0f%%", state.Temperature, state.Brightness*100)
	return a.notifier.Notify(a.config().AppName, body)
}

func (a *App) alert(err error) {
	if nerr := a.notifier.Alert(a.config().AppName, err.Error()); nerr != nil {
		log.Warn().Err(nerr).Msg("Failed to show notification")
	}
}
