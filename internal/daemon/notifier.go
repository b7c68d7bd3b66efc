package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/xpop/internal/dbus"
	"github.com/jmylchreest/xpop/internal/model"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// InternalNotifier shows popups about xpopd itself. Repeats of the same key
// inside minInterval are dropped.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	notifyHandler func(notification *dbus.DBusNotification) uint32

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function to call when creating a notification.
// This should be the same path D-Bus notifications take.
func (n *InternalNotifier) SetNotifyHandler(handler func(notification *dbus.DBusNotification) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification unless key was used within the
// minimum interval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()

	if !n.enabled {
		n.mu.Unlock()
		return
	}
	handler := n.notifyHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	urgency := model.UrgencyNormal
	switch level {
	case NotificationLevelInfo:
		urgency = model.UrgencyLow
	case NotificationLevelError:
		urgency = model.UrgencyCritical
	}

	notification := &dbus.DBusNotification{
		AppName: "xpopd",
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":   dbus.UrgencyHint(urgency),
			"category":  godbus.MakeVariant("device"),
			"transient": godbus.MakeVariant(true),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	_ = handler(notification)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"xpopd configuration has been reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about a rejected config.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Keeping the previous configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyStartup sends a notification that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"xpopd Started",
		"Notification daemon "+version+" is now running.",
		NotificationLevelInfo,
	)
}
