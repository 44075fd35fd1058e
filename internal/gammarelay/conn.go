package gammarelay

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	ServiceName = "rs.wl-gammarelay"
	ObjectPath  = dbus.ObjectPath("/")
	Interface   = "rs.wl.gammarelay"
)

// Properties of the rs.wl.gammarelay interface.
const (
	PropertyTemperature = "Temperature"
	PropertyBrightness  = "Brightness"
)

const (
	propertiesGet = "org.freedesktop.DBus.Properties.Get"
	propertiesSet = "org.freedesktop.DBus.Properties.Set"
)

// Conn is an open session to the service. Get and Set address properties of
// the rs.wl.gammarelay interface.
//
// A Conn is not required to be safe for concurrent use.
type Conn interface {
	Get(property string) (dbus.Variant, error)
	Set(property string, value dbus.Variant) error
	Close() error
}

// Dialer opens a new [Conn].
type Dialer func() (Conn, error)

// busConn is a [Conn] backed by a private session bus connection.
type busConn struct {
	conn   *dbus.Conn
	object dbus.BusObject
}

// Open connects to the session bus. If no bus is reachable, a
// [*ConnectionError] is returned.
func Open() (Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	return &busConn{
		conn:   conn,
		object: conn.Object(ServiceName, ObjectPath),
	}, nil
}

func (c *busConn) Get(property string) (dbus.Variant, error) {
	var value dbus.Variant

	call := c.object.Call(propertiesGet, 0, Interface, property)
	if call.Err != nil {
		return value, &RemoteError{
			Kind:     CallFailure,
			Method:   "Get",
			Property: property,
			Err:      call.Err,
		}
	}

	if err := call.Store(&value); err != nil {
		return value, &RemoteError{
			Kind:     DecodeFailure,
			Method:   "Get",
			Property: property,
			Err:      fmt.Errorf("invalid reply body: %w", err),
		}
	}

	return value, nil
}

func (c *busConn) Set(property string, value dbus.Variant) error {
	call := c.object.Call(propertiesSet, 0, Interface, property, value)
	if call.Err != nil {
		return &RemoteError{
			Kind:     CallFailure,
			Method:   "Set",
			Property: property,
			Err:      call.Err,
		}
	}

	return nil
}

func (c *busConn) Close() error {
	return c.conn.Close()
}
