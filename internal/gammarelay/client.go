package gammarelay

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// State is the color temperature and brightness reported by the service.
//
// Values are not validated: temperature is conventionally in 1000..10000 K
// and brightness in [0, 1], but anything is forwarded to the service as is.
type State struct {
	Temperature uint16  `json:"temperature" yaml:"temperature"`
	Brightness  float64 `json:"brightness" yaml:"brightness"`
}

func (s State) String() string {
	return fmt.Sprintf("%dK %.0f%%", s.Temperature, s.Brightness*100)
}

// Client issues typed property reads and writes over a single [Conn].
type Client struct {
	conn Conn
}

// New returns a [Client] that uses conn. The client takes ownership of conn
// and closes it in [Client.Close].
func New(conn Conn) *Client {
	return &Client{conn: conn}
}

// Dial opens a session bus connection and returns a [Client] that uses it.
func Dial() (*Client, error) {
	conn, err := Open()
	if err != nil {
		return nil, err
	}

	return New(conn), nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Temperature returns the current color temperature in Kelvin.
func (c *Client) Temperature() (uint16, error) {
	value, err := c.conn.Get(PropertyTemperature)
	if err != nil {
		return 0, remoteError("Get", PropertyTemperature, err)
	}

	return decodeUint16(PropertyTemperature, value)
}

// SetTemperature sets the color temperature in Kelvin. The value is not read
// back: a nil error means the service accepted the call.
func (c *Client) SetTemperature(temperature uint16) error {
	if err := c.conn.Set(PropertyTemperature, dbus.MakeVariant(temperature)); err != nil {
		return remoteError("Set", PropertyTemperature, err)
	}

	return nil
}

// Brightness returns the current brightness.
func (c *Client) Brightness() (float64, error) {
	value, err := c.conn.Get(PropertyBrightness)
	if err != nil {
		return 0, remoteError("Get", PropertyBrightness, err)
	}

	return decodeFloat64(PropertyBrightness, value)
}

// SetBrightness sets the brightness. The value is not read back.
func (c *Client) SetBrightness(brightness float64) error {
	if err := c.conn.Set(PropertyBrightness, dbus.MakeVariant(brightness)); err != nil {
		return remoteError("Set", PropertyBrightness, err)
	}

	return nil
}

// State reads temperature and then brightness. The reads are not atomic, and
// the first error aborts the sequence without returning a partial state.
func (c *Client) State() (State, error) {
	temperature, err := c.Temperature()
	if err != nil {
		return State{}, err
	}

	brightness, err := c.Brightness()
	if err != nil {
		return State{}, err
	}

	return State{
		Temperature: temperature,
		Brightness:  brightness,
	}, nil
}

// SetState writes temperature and then brightness.
//
// The writes are not atomic: a concurrent reader may observe the new
// temperature with the old brightness. If the brightness write fails, the
// temperature write stays applied.
func (c *Client) SetState(state State) error {
	if err := c.SetTemperature(state.Temperature); err != nil {
		return err
	}

	return c.SetBrightness(state.Brightness)
}

// decodeUint16 returns the value held by v if it is an uint16.
func decodeUint16(property string, v dbus.Variant) (uint16, error) {
	value, ok := v.Value().(uint16)
	if !ok {
		return 0, &RemoteError{
			Kind:     DecodeFailure,
			Method:   "Get",
			Property: property,
			Err:      fmt.Errorf("expected uint16, got signature %q", v.Signature().String()),
		}
	}

	return value, nil
}

// decodeFloat64 returns the value held by v if it is a float64.
func decodeFloat64(property string, v dbus.Variant) (float64, error) {
	value, ok := v.Value().(float64)
	if !ok {
		return 0, &RemoteError{
			Kind:     DecodeFailure,
			Method:   "Get",
			Property: property,
			Err:      fmt.Errorf("expected float64, got signature %q", v.Signature().String()),
		}
	}

	return value, nil
}
