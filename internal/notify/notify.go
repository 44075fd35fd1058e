// Package notify shows desktop notifications through the
// org.freedesktop.Notifications service.
//
// See https://specifications.freedesktop.org/notification-spec/latest/
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	ServiceName = "org.freedesktop.Notifications"
	ObjectPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	Interface   = "org.freedesktop.Notifications"
)

// Urgency levels of a notification.
const (
	UrgencyLow      = byte(0)
	UrgencyNormal   = byte(1)
	UrgencyCritical = byte(2)
)

// Notifier shows notifications and replaces the previous one, so repeated
// calls update a single bubble instead of stacking new ones.
type Notifier struct {
	obj     dbus.BusObject
	appName string
	icon    string
	timeout time.Duration

	mu     sync.Mutex
	lastID uint32
}

type Option func(*Notifier)

// WithIcon sets a Freedesktop-compliant icon name for notifications.
func WithIcon(name string) Option {
	return func(n *Notifier) {
		n.icon = name
	}
}

// WithTimeout sets how long notifications are shown. Zero means the server
// default.
func WithTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		n.timeout = timeout
	}
}

// New returns a [Notifier] that talks to the notification server on conn.
func New(conn *dbus.Conn, appName string, opts ...Option) *Notifier {
	return NewWithObject(conn.Object(ServiceName, ObjectPath), appName, opts...)
}

// NewWithObject returns a [Notifier] that calls obj, which must implement
// org.freedesktop.Notifications.
func NewWithObject(obj dbus.BusObject, appName string, opts ...Option) *Notifier {
	n := &Notifier{
		obj:     obj,
		appName: appName,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Notify shows a notification with normal urgency.
func (n *Notifier) Notify(summary, body string) error {
	return n.notify(summary, body, UrgencyNormal)
}

// Alert shows a notification with critical urgency. Used to report failures.
func (n *Notifier) Alert(summary, body string) error {
	return n.notify(summary, body, UrgencyCritical)
}

func (n *Notifier) notify(summary, body string, urgency byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	timeout := int32(-1)
	if n.timeout > 0 {
		timeout = int32(n.timeout / time.Millisecond)
	}

	call := n.obj.Call(
		Interface+".Notify", 0,
		n.appName,
		n.lastID,
		n.icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(urgency),
		},
		timeout,
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	log.Debug().Uint32("id", id).Uint32("replaces_id", n.lastID).Str("summary", summary).Msg("Notification shown")
	n.lastID = id

	return nil
}

// Close closes the last notification, if any.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.lastID == 0 {
		return nil
	}

	call := n.obj.Call(Interface+".CloseNotification", 0, n.lastID)
	if call.Err != nil {
		return fmt.Errorf("close notification: %w", call.Err)
	}

	n.lastID = 0

	return nil
}
