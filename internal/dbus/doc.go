// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
// It provides a server that receives notifications from applications and
// exposes methods for GetCapabilities, Notify, CloseNotification, and
// GetServerInformation, plus a small client used by `xpopd notify`.
package dbus
