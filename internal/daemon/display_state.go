package daemon

import (
	"time"

	"github.com/jmylchreest/xpop/internal/queue"
)

// DisplayStatus represents the status of a notification in the display system.
type DisplayStatus int

const (
	// DisplayStatusActive means the popup is in the queue.
	DisplayStatusActive DisplayStatus = iota
	// DisplayStatusExpired means the notification timed out.
	DisplayStatusExpired
	// DisplayStatusDismissed means the user clicked it away.
	DisplayStatusDismissed
	// DisplayStatusClosed means the notification was closed programmatically.
	DisplayStatusClosed
	// DisplayStatusReplaced means a newer notification took its D-Bus id.
	DisplayStatusReplaced
)

// String returns the string representation of DisplayStatus.
func (s DisplayStatus) String() string {
	switch s {
	case DisplayStatusActive:
		return "active"
	case DisplayStatusExpired:
		return "expired"
	case DisplayStatusDismissed:
		return "dismissed"
	case DisplayStatusClosed:
		return "closed"
	case DisplayStatusReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// stopper is the part of *time.Timer the daemon uses.
type stopper interface {
	Stop() bool
}

// DisplayState ties a D-Bus notification id to its popup.
type DisplayState struct {
	DBusID    uint32
	Item      queue.ItemID
	Style     string
	Status    DisplayStatus
	CreatedAt time.Time
	ExpiresAt time.Time // zero = never
	ClosedAt  time.Time

	timer stopper
}

// DisplayStateManager maps D-Bus ids to queue items and back. It is owned
// by the daemon loop and is not safe for concurrent use.
type DisplayStateManager struct {
	byDBusID map[uint32]*DisplayState
	byItem   map[queue.ItemID]uint32
}

// NewDisplayStateManager creates a new DisplayStateManager.
func NewDisplayStateManager() *DisplayStateManager {
	return &DisplayStateManager{
		byDBusID: make(map[uint32]*DisplayState),
		byItem:   make(map[queue.ItemID]uint32),
	}
}

// Register tracks a new popup. An existing entry for dbusID is finished as
// replaced and returned so the caller can remove its item.
func (m *DisplayStateManager) Register(dbusID uint32, item queue.ItemID, style string, expiresAt time.Time) (state, replaced *DisplayState) {
	if old, exists := m.byDBusID[dbusID]; exists {
		m.finish(old, DisplayStatusReplaced)
		replaced = old
	}

	state = &DisplayState{
		DBusID:    dbusID,
		Item:      item,
		Style:     style,
		Status:    DisplayStatusActive,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	m.byDBusID[dbusID] = state
	m.byItem[item] = dbusID
	return state, replaced
}

// SetTimer attaches the expiry timer of state.
func (m *DisplayStateManager) SetTimer(state *DisplayState, t stopper) {
	state.timer = t
}

// GetByDBusID returns the display state for a D-Bus ID.
func (m *DisplayStateManager) GetByDBusID(dbusID uint32) *DisplayState {
	return m.byDBusID[dbusID]
}

// GetByItem returns the display state of a queue item.
func (m *DisplayStateManager) GetByItem(item queue.ItemID) *DisplayState {
	id, ok := m.byItem[item]
	if !ok {
		return nil
	}
	return m.byDBusID[id]
}

// IsCurrent reports whether state is still the tracked entry for its id.
// Timers of replaced popups use it to ignore themselves.
func (m *DisplayStateManager) IsCurrent(state *DisplayState) bool {
	return state != nil && m.byDBusID[state.DBusID] == state
}

// Finish stops tracking dbusID with the given final status.
func (m *DisplayStateManager) Finish(dbusID uint32, status DisplayStatus) *DisplayState {
	state, exists := m.byDBusID[dbusID]
	if !exists {
		return nil
	}
	m.finish(state, status)
	return state
}

func (m *DisplayStateManager) finish(state *DisplayState, status DisplayStatus) {
	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
	state.Status = status
	state.ClosedAt = time.Now()
	delete(m.byDBusID, state.DBusID)
	delete(m.byItem, state.Item)
}

// Clear stops every timer and forgets all entries.
func (m *DisplayStateManager) Clear() {
	for _, state := range m.byDBusID {
		m.finish(state, DisplayStatusClosed)
	}
}

// Count returns the number of tracked notifications.
func (m *DisplayStateManager) Count() int {
	return len(m.byDBusID)
}
