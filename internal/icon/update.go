package icon

import (
	"errors"
	"fmt"
)

// MainTrayID is the identity of the application tray icon.
const MainTrayID = "main"

// Tray is the tray icon the rendered icon is pushed to.
type Tray interface {
	// ID returns the identity of the tray icon, such as [MainTrayID].
	ID() string

	// SetIcon replaces the icon with PNG data.
	SetIcon(png []byte) error

	// SetTooltip replaces the tooltip text.
	SetTooltip(text string) error
}

// ErrHostRejected is matched by [HostError].
var ErrHostRejected = errors.New("tray host rejected update")

// HostError is returned when the tray refuses an icon or tooltip update.
type HostError struct {
	Tray string
	Op   string
	Err  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("icon: tray %q: %s: %s: %v", e.Tray, e.Op, ErrHostRejected, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

func (e *HostError) Is(target error) bool {
	return target == ErrHostRejected
}

// Tooltip returns the tooltip shown for temperature.
func Tooltip(appName string, temperature uint16) string {
	return fmt.Sprintf("%s - %dK", appName, temperature)
}

// IdleTooltip returns the tooltip shown before the temperature is known.
func IdleTooltip(appName string) string {
	return appName + " - Click to open quick controls"
}

// Update renders the icon for temperature and pushes it, together with the
// tooltip, to tray. A refused update is returned as a [*HostError] and is not
// retried.
func Update(tray Tray, appName string, temperature uint16) error {
	data, err := Encode(temperature)
	if err != nil {
		return fmt.Errorf("icon: encode %dK: %w", temperature, err)
	}

	if err := tray.SetIcon(data); err != nil {
		return &HostError{Tray: tray.ID(), Op: "set icon", Err: err}
	}

	if err := tray.SetTooltip(Tooltip(appName, temperature)); err != nil {
		return &HostError{Tray: tray.ID(), Op: "set tooltip", Err: err}
	}

	return nil
}
