package tray

import (
	"slices"

	"github.com/godbus/dbus/v5"
)

// LayoutNode is a menu node in the com.canonical.dbusmenu layout format
//
//	(ia{sv}av)
//
// Children are variants holding LayoutNode values.
type LayoutNode struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// MenuEntry is a single entry of [Menu].
type MenuEntry struct {
	// Name identifies the entry in click callbacks, such as "preset_day".
	Name string

	// Label is the text shown to the user.
	Label string

	// Separator entries are drawn as a line and cannot be clicked.
	Separator bool

	// Disabled entries are shown greyed out.
	Disabled bool
}

// properties returns dbusmenu properties of the entry filtered by names. An
// empty names slice selects all properties.
func (e MenuEntry) properties(names []string) map[string]dbus.Variant {
	all := make(map[string]dbus.Variant, 3)

	if e.Separator {
		all["type"] = dbus.MakeVariant("separator")
	} else {
		all["label"] = dbus.MakeVariant(e.Label)
		all["enabled"] = dbus.MakeVariant(!e.Disabled)
	}
	all["visible"] = dbus.MakeVariant(true)

	if len(names) == 0 {
		return all
	}

	filtered := make(map[string]dbus.Variant, len(names))
	for key, value := range all {
		if slices.Contains(names, key) {
			filtered[key] = value
		}
	}

	return filtered
}

// buildLayout returns the root node with entries as its children. Entry ids
// start at 1, the root has id 0.
func buildLayout(entries []MenuEntry, recursionDepth int32, names []string) LayoutNode {
	root := LayoutNode{
		ID: rootID,
		Properties: map[string]dbus.Variant{
			"children-display": dbus.MakeVariant("submenu"),
		},
		Children: []dbus.Variant{},
	}

	if recursionDepth == 0 {
		return root
	}

	for idx, entry := range entries {
		root.Children = append(root.Children, dbus.MakeVariant(LayoutNode{
			ID:         int32(idx + 1),
			Properties: entry.properties(names),
			Children:   []dbus.Variant{},
		}))
	}

	return root
}
