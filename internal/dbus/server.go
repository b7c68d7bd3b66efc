package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name xpopd owns.
	DBusBusName = "org.freedesktop.Notifications"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("notification server already started")

// introspectXML describes the exported object. Only the NotificationClosed
// signal is listed since xpop has no actions.
const introspectXML = introspect.IntrospectDeclarationString + `
<node>` + introspect.IntrospectDataString + `
	<interface name="` + DBusInterface + `">
		<method name="GetCapabilities">
			<arg name="capabilities" type="as" direction="out"/>
		</method>
		<method name="GetServerInformation">
			<arg name="name" type="s" direction="out"/>
			<arg name="vendor" type="s" direction="out"/>
			<arg name="version" type="s" direction="out"/>
			<arg name="spec_version" type="s" direction="out"/>
		</method>
		<method name="Notify">
			<arg name="app_name" type="s" direction="in"/>
			<arg name="replaces_id" type="u" direction="in"/>
			<arg name="app_icon" type="s" direction="in"/>
			<arg name="summary" type="s" direction="in"/>
			<arg name="body" type="s" direction="in"/>
			<arg name="actions" type="as" direction="in"/>
			<arg name="hints" type="a{sv}" direction="in"/>
			<arg name="expire_timeout" type="i" direction="in"/>
			<arg name="id" type="u" direction="out"/>
		</method>
		<method name="CloseNotification">
			<arg name="id" type="u" direction="in"/>
		</method>
		<signal name="NotificationClosed">
			<arg name="id" type="u"/>
			<arg name="reason" type="u"/>
		</signal>
	</interface>
</node>`

// NotificationHandler receives every accepted notification together with
// its id. ReplacesID is set only when the id replaces a live popup. It runs
// on the D-Bus dispatch goroutine and must not block.
type NotificationHandler func(notification *DBusNotification, id uint32)

// CloseHandler receives ids closed through CloseNotification.
type CloseHandler func(id uint32)

// NotificationServer is the org.freedesktop.Notifications object xpopd
// exports. It tracks which ids are on screen; the daemon reports every popup
// that goes away through CloseWithReason.
type NotificationServer struct {
	logger *slog.Logger
	ids    *idTable

	mu       sync.RWMutex
	conn     *dbus.Conn
	info     ServerInfo
	onNotify NotificationHandler
	onClose  CloseHandler
}

// NewNotificationServer creates a server that is not yet on the bus.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger: logger,
		ids:    newIDTable(),
		info:   DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler for accepted notifications.
func (s *NotificationServer) SetNotifyHandler(handler NotificationHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNotify = handler
}

// SetCloseHandler sets the handler for CloseNotification calls.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = handler
}

// SetServerInfo sets what GetServerInformation reports.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// Start exports the server on the session bus and takes over the
// notification bus name from any running daemon.
func (s *NotificationServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return ErrAlreadyStarted
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", DBusPath, err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), DBusPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection data: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", DBusBusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s is owned by another notification daemon", DBusBusName)
	}

	s.conn = conn
	s.logger.Info("notification server on the session bus", "name", DBusBusName)
	return nil
}

// Stop gives the bus name back. The session connection is shared with the
// rest of the process and stays open.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}

	_, err := s.conn.ReleaseName(DBusBusName)
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to release %s: %w", DBusBusName, err)
	}
	return nil
}

// GetCapabilities implements org.freedesktop.Notifications.GetCapabilities.
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements org.freedesktop.Notifications.GetServerInformation.
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.mu.RLock()
	info := s.info
	s.mu.RUnlock()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify implements org.freedesktop.Notifications.Notify.
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	return s.accept(&DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}), nil
}

// NotifyInternal shows a notification raised by xpopd itself. It gets a
// regular id so it expires and closes like any other popup.
func (s *NotificationServer) NotifyInternal(notification *DBusNotification) uint32 {
	notification.ReplacesID = 0
	return s.accept(notification)
}

func (s *NotificationServer) accept(n *DBusNotification) uint32 {
	id, replaced := s.ids.claim(n.ReplacesID)
	if !replaced {
		n.ReplacesID = 0
	}

	s.logger.Debug("notification accepted", "id", id, "app", n.AppName, "replaced", replaced)

	s.mu.RLock()
	handler := s.onNotify
	s.mu.RUnlock()
	if handler != nil {
		handler(n, id)
	}
	return id
}

// CloseNotification implements org.freedesktop.Notifications.CloseNotification.
// Unknown or already closed ids are ignored.
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	if !s.ids.release(id) {
		s.logger.Debug("close requested for unknown notification", "id", id)
		return nil
	}

	s.mu.RLock()
	handler := s.onClose
	s.mu.RUnlock()
	if handler != nil {
		handler(id)
	}

	if err := s.EmitNotificationClosed(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to report closed notification", "id", id, "error", err)
	}
	return nil
}

// IsActive reports whether id is still on screen.
func (s *NotificationServer) IsActive(id uint32) bool {
	return s.ids.contains(id)
}

// ActiveCount returns the number of ids still on screen.
func (s *NotificationServer) ActiveCount() int {
	return s.ids.len()
}
