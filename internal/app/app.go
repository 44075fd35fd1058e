// Package app wires the tray, the event bus, and the bridge together.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"github.com/shelepuginivan/sunshift/internal/bridge"
	"github.com/shelepuginivan/sunshift/internal/config"
	"github.com/shelepuginivan/sunshift/internal/eventbus"
	"github.com/shelepuginivan/sunshift/internal/icon"
	"github.com/shelepuginivan/sunshift/internal/tray"
)

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(summary, body string) error
	Alert(summary, body string) error
}

// Menu is the tray menu whose entries follow the configured presets.
type Menu interface {
	SetEntries(entries []tray.MenuEntry) error
}

// StatusIndicator shows whether the gamma service is reachable.
type StatusIndicator interface {
	SetStatus(status tray.ItemStatus) error
}

// Deps are the services used by [App]. Tray is required; a nil Notifier, Menu
// or Status disables the respective feature.
type Deps struct {
	Bridge   *bridge.Bridge
	Bus      *eventbus.Bus
	Tray     icon.Tray
	Menu     Menu
	Status   StatusIndicator
	Notifier Notifier
}

// App is the main application container. It owns the bridge and the bus and
// closes them in [App.Stop].
type App struct {
	mu  sync.RWMutex
	cfg *config.Config

	bridge   *bridge.Bridge
	bus      *eventbus.Bus
	tray     icon.Tray
	menu     Menu
	status   StatusIndicator
	notifier Notifier

	// Last temperature pushed to the tray. Valid only when known is set.
	lastTemperature atomic.Uint32
	known           atomic.Bool
	connected       atomic.Bool
	refreshed       atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new App instance and subscribes its event handlers. The
// refresh loop does not run until [App.Start].
func New(cfg *config.Config, deps Deps) *App {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	a := &App{
		cfg:      cfg,
		bridge:   deps.Bridge,
		bus:      deps.Bus,
		tray:     deps.Tray,
		menu:     deps.Menu,
		status:   deps.Status,
		notifier: notifier,
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.subscribe()

	return a
}

// Start shows the idle tooltip and starts the refresh loop. Cancelling ctx
// stops the application like a quit event does.
func (a *App) Start(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			a.cancel()
		case <-a.ctx.Done():
		}
	}()

	if err := a.tray.SetTooltip(icon.IdleTooltip(a.config().AppName)); err != nil {
		log.Warn().Err(err).Msg("Failed to set idle tooltip")
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.refreshLoop(a.ctx)
	}()

	log.Info().Str("app", a.config().AppName).Msg("Sunshift started")
	return nil
}

// Wait blocks until the application context is cancelled, either by the parent
// context or by a quit event.
func (a *App) Wait() {
	<-a.ctx.Done()
}

// Stop cancels the application context, stops the refresh loop, and closes the
// bus and the bridge. In-flight calls get until ctx is done to finish.
func (a *App) Stop(ctx context.Context) {
	log.Info().Msg("Shutting down...")

	a.cancel()
	a.wg.Wait()

	a.bus.Close(ctx)
	a.bridge.Close(ctx)
}

// Quit cancels the application context.
func (a *App) Quit() {
	a.cancel()
}

// SetConfig replaces the configuration, for example after the config file was
// reloaded, and rebuilds the tray menu from the new presets.
func (a *App) SetConfig(cfg *config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	if a.menu == nil {
		return
	}

	if err := a.menu.SetEntries(MenuEntries(cfg)); err != nil {
		log.Warn().Err(err).Msg("Failed to update tray menu")
	}
}

func (a *App) config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.cfg
}

// Connected reports whether the last refresh reached the service.
func (a *App) Connected() bool {
	return a.connected.Load()
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}

// ShutdownContext returns a context bounded by the configured shutdown timeout.
func ShutdownContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := cfg.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) error { return nil }
func (nopNotifier) Alert(string, string) error  { return nil }
