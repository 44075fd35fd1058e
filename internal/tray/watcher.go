package tray

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	StatusNotifierWatcherInterface = "org.kde.StatusNotifierWatcher"
	StatusNotifierWatcherPath      = dbus.ObjectPath("/StatusNotifierWatcher")
)

// register registers the item name in the StatusNotifierWatcher.
//
// A missing watcher is not an error: the item is registered as soon as the
// watcher appears on the bus.
func (item *Item) register() error {
	call := item.conn.Object(
		StatusNotifierWatcherInterface,
		StatusNotifierWatcherPath,
	).Call(StatusNotifierWatcherInterface+".RegisterStatusNotifierItem", 0, item.name)

	var dbusErr dbus.Error
	if errors.As(call.Err, &dbusErr) && dbusErr.Name == "org.freedesktop.DBus.Error.ServiceUnknown" {
		return nil
	}

	if call.Err != nil {
		return fmt.Errorf("failed to register item: %w", call.Err)
	}

	return nil
}

// watchWatcher subscribes to owner changes of the watcher name.
//
// Whenever the watcher restarts, D-Bus sends NameOwnerChanged with non-empty
// NewOwner argument. In this case, item should be registered again.
func (item *Item) watchWatcher() error {
	signals := item.signals
	if err := item.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	); err != nil {
		return fmt.Errorf("failed to subscribe to NameOwnerChanged: %w", err)
	}

	item.conn.Signal(signals)

	go func() {
		for signal := range signals {
			if signal.Name != "org.freedesktop.DBus.NameOwnerChanged" {
				continue
			}

			if len(signal.Body) < 3 {
				continue
			}

			name, ok := signal.Body[0].(string)
			if !ok || name != StatusNotifierWatcherInterface {
				continue
			}

			newOwner, ok := signal.Body[2].(string)
			if !ok || newOwner == "" {
				continue
			}

			if err := item.register(); err != nil {
				log.Warn().Err(err).Str("name", item.name).Msg("Failed to register tray item again")
			}
		}
	}()

	return nil
}

// unwatchWatcher undoes [Item.watchWatcher]. Callers must hold item.mu.
func (item *Item) unwatchWatcher() {
	item.conn.RemoveMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, StatusNotifierWatcherInterface),
	)

	item.conn.RemoveSignal(item.signals)
	close(item.signals)

	// A failed Listen may be retried.
	item.signals = make(chan *dbus.Signal, 16)
}
