package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/xpop/internal/model"
)

// StyleHint names a gc style directly, bypassing the urgency mapping
// (notify-send -h string:x-xpop-style:warn).
const StyleHint = "x-xpop-style"

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved/undefined per the spec.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs; popups ignore them
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency extracts the urgency hint from the notification.
// Returns model.UrgencyNormal if not specified or out of range.
func (n *DBusNotification) Urgency() int {
	v, ok := n.Hints["urgency"]
	if !ok {
		return model.UrgencyNormal
	}

	level := -1
	switch val := v.Value().(type) {
	case byte:
		level = int(val)
	case int32:
		level = int(val)
	case uint32:
		level = int(val)
	}
	if level < model.UrgencyLow || level > model.UrgencyCritical {
		return model.UrgencyNormal
	}
	return level
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// Style extracts the x-xpop-style hint.
func (n *DBusNotification) Style() string {
	return n.stringHint(StyleHint)
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Timeout returns the client-requested lifetime. ok is false when the client
// asked for the server default (any negative value).
func (n *DBusNotification) Timeout() (d time.Duration, ok bool) {
	if n.ExpireTimeout < 0 {
		return 0, false
	}
	return time.Duration(n.ExpireTimeout) * time.Millisecond, true
}

// ToModel converts the call into a popup payload with a fresh ULID.
func (n *DBusNotification) ToModel(id uint32) (*model.Notification, error) {
	m, err := model.NewNotification(n.AppName, n.Summary, n.Body)
	if err != nil {
		return nil, err
	}
	m.DBusID = id
	m.SetUrgency(n.Urgency())
	return m, nil
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// ServerCapabilities lists the capabilities advertised by xpopd.
var ServerCapabilities = []string{
	"body", // Plain body text, one line per popup row
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "xpopd"
	Vendor      string // "xpop"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "xpopd",
		Vendor:      "xpop",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}
