package tray

import (
	"fmt"
	"slices"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

const (
	MenuInterface = "com.canonical.dbusmenu"
	MenuPath      = dbus.ObjectPath("/MenuBar")

	// Version of the com.canonical.dbusmenu interface.
	menuVersion = uint32(3)

	rootID = int32(0)
)

var errUnknownMenuID = dbus.NewError("com.canonical.dbusmenu.Error.UnknownId", []any{"unknown menu id"})

// Menu is a flat menu exported under [MenuPath]. It implements the
// com.canonical.dbusmenu interface.
type Menu struct {
	mu        sync.RWMutex
	conn      *dbus.Conn
	revision  uint32
	entries   []MenuEntry
	onClicked func(name string)
}

// NewMenu returns a [Menu] with entries.
func NewMenu(entries []MenuEntry) *Menu {
	return &Menu{
		revision:  1,
		entries:   slices.Clone(entries),
		onClicked: func(string) {},
	}
}

// OnClicked registers callback that runs whenever an entry is clicked.
//
// Parameter name of the callback is the [MenuEntry] Name.
func (m *Menu) OnClicked(callback func(name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onClicked = callback
}

// SetEntries replaces the menu entries and notifies the tray host.
func (m *Menu) SetEntries(entries []MenuEntry) error {
	m.mu.Lock()
	m.entries = slices.Clone(entries)
	m.revision++
	revision := m.revision
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return nil
	}

	return conn.Emit(MenuPath, MenuInterface+".LayoutUpdated", revision, rootID)
}

// export exports the menu object and its properties on conn.
func (m *Menu) export(conn *dbus.Conn) error {
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	if err := conn.Export(&menuObject{menu: m}, MenuPath, MenuInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", MenuInterface, err)
	}

	_, err := prop.Export(conn, MenuPath, prop.Map{
		MenuInterface: map[string]*prop.Prop{
			"Version": {
				Value:    menuVersion,
				Writable: false,
				Emit:     prop.EmitFalse,
			},
			"TextDirection": {
				Value:    "ltr",
				Writable: false,
				Emit:     prop.EmitFalse,
			},
			"Status": {
				Value:    "normal",
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"IconThemePath": {
				Value:    []string{},
				Writable: false,
				Emit:     prop.EmitFalse,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to export %s properties: %w", MenuInterface, err)
	}

	return nil
}

// unexport removes the menu object from conn.
func (m *Menu) unexport() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return
	}

	m.conn.Export(nil, MenuPath, MenuInterface)
	m.conn.Export(nil, MenuPath, "org.freedesktop.DBus.Properties")
	m.conn = nil
}

// entry returns the entry with the given layout id.
func (m *Menu) entry(id int32) (MenuEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := int(id) - 1
	if idx < 0 || idx >= len(m.entries) {
		return MenuEntry{}, false
	}

	return m.entries[idx], true
}

// handleEvent dispatches a dbusmenu event for the node id.
func (m *Menu) handleEvent(id int32, eventID string) *dbus.Error {
	if id == rootID {
		return nil
	}

	entry, ok := m.entry(id)
	if !ok {
		return errUnknownMenuID
	}

	if eventID != "clicked" || entry.Separator || entry.Disabled {
		return nil
	}

	m.mu.RLock()
	callback := m.onClicked
	m.mu.RUnlock()

	callback(entry.Name)

	return nil
}

// menuObject holds the methods of com.canonical.dbusmenu exported on the bus.
type menuObject struct {
	menu *Menu
}

// groupProperties is the (ia{sv}) element of GetGroupProperties.
type groupProperties struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// menuEvent is the (isvu) element of EventGroup.
type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

// GetLayout provides the layout and properties of the entries.
//
// Only the root node has children; asking for the layout of an entry returns
// the entry without children.
func (o *menuObject) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, LayoutNode, *dbus.Error) {
	o.menu.mu.RLock()
	defer o.menu.mu.RUnlock()

	if parentID == rootID {
		return o.menu.revision, buildLayout(o.menu.entries, recursionDepth, propertyNames), nil
	}

	idx := int(parentID) - 1
	if idx < 0 || idx >= len(o.menu.entries) {
		return 0, LayoutNode{}, errUnknownMenuID
	}

	return o.menu.revision, LayoutNode{
		ID:         parentID,
		Properties: o.menu.entries[idx].properties(propertyNames),
		Children:   []dbus.Variant{},
	}, nil
}

// GetGroupProperties returns properties of several nodes at once. Unknown ids
// are skipped.
func (o *menuObject) GetGroupProperties(ids []int32, propertyNames []string) ([]groupProperties, *dbus.Error) {
	result := make([]groupProperties, 0, len(ids))

	for _, id := range ids {
		entry, ok := o.menu.entry(id)
		if !ok {
			continue
		}

		result = append(result, groupProperties{
			ID:         id,
			Properties: entry.properties(propertyNames),
		})
	}

	return result, nil
}

// GetProperty returns a single property of a node.
func (o *menuObject) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	entry, ok := o.menu.entry(id)
	if !ok {
		return dbus.Variant{}, errUnknownMenuID
	}

	value, ok := entry.properties([]string{name})[name]
	if !ok {
		return dbus.Variant{}, dbus.NewError("com.canonical.dbusmenu.Error.UnknownProperty", []any{name})
	}

	return value, nil
}

// Event is called by the tray host when the user interacts with a node.
func (o *menuObject) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	return o.menu.handleEvent(id, eventID)
}

// EventGroup delivers several events at once and returns ids that were not
// found.
func (o *menuObject) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	idErrors := []int32{}

	for _, event := range events {
		if err := o.menu.handleEvent(event.ID, event.EventID); err != nil {
			idErrors = append(idErrors, event.ID)
		}
	}

	return idErrors, nil
}

// AboutToShow reports whether the layout must be refreshed before the node is
// shown. The menu is always up to date.
func (o *menuObject) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

// AboutToShowGroup is AboutToShow for several nodes.
func (o *menuObject) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	return []int32{}, []int32{}, nil
}
