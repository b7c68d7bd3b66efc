// Package daemon provides the main orchestration for xpopd.
// It coordinates the D-Bus server, the popup queue and its styles, popup
// expiry, and configuration hot-reload on a single loop goroutine.
package daemon
