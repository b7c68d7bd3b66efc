package dbus

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when a signal is emitted before Start.
var ErrNotConnected = errors.New("not connected to D-Bus")

// EmitNotificationClosed emits the NotificationClosed signal.
func (s *NotificationServer) EmitNotificationClosed(id uint32, reason CloseReason) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed: %w", err)
	}
	s.logger.Debug("emitted NotificationClosed", "id", id, "reason", reason)
	return nil
}

// CloseWithReason releases id and emits the signal. Ids that are no longer
// live are ignored, so a popup that expires while a CloseNotification call
// is in flight is reported once.
func (s *NotificationServer) CloseWithReason(id uint32, reason CloseReason) error {
	if !s.ids.release(id) {
		return nil
	}
	return s.EmitNotificationClosed(id, reason)
}
