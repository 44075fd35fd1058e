// Package tray exports the application tray icon over D-Bus as a
// [StatusNotifierItem] with a com.canonical.dbusmenu menu.
//
// # Usage
//
// The tray consists of an [Item] and its [Menu]:
//   - [Item] owns a unique org.kde.StatusNotifierItem-<pid>-<n> name, exports
//     the item properties, and registers itself in the
//     org.kde.StatusNotifierWatcher service. If the watcher restarts, the item
//     registers again.
//   - [Menu] exports a flat list of entries. A click on an entry is reported
//     with the entry name, such as "preset_day".
//
// Icons are accepted as PNG data and converted to ARGB32 pixmaps, the format
// required by the specification.
//
// [StatusNotifierItem]: https://www.freedesktop.org/wiki/Specifications/StatusNotifierItem/
package tray
