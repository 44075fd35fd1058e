// Package gammarelay is a client for the [wl-gammarelay-rs] D-Bus service.
//
// The service exposes the color temperature and brightness of every output as
// two properties of a single object:
//
//	service:   rs.wl-gammarelay
//	path:      /
//	interface: rs.wl.gammarelay
//	Temperature (q), Brightness (d)
//
// Properties are read and written with the generic
// org.freedesktop.DBus.Properties Get and Set methods. The client holds no
// state besides the connection: every read goes to the service.
//
// [wl-gammarelay-rs]: https://github.com/MaxVerevkin/wl-gammarelay-rs
package gammarelay
