package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/xpop/internal/dbus"
	"github.com/jmylchreest/xpop/internal/model"
)

func TestInternalNotifier(t *testing.T) {
	n := NewInternalNotifier(nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	var sent []*dbus.DBusNotification
	n.SetNotifyHandler(func(note *dbus.DBusNotification) uint32 {
		sent = append(sent, note)
		return uint32(len(sent))
	})

	n.NotifyConfigError(errors.New("bad position"))
	require.Len(t, sent, 1)
	assert.Equal(t, "xpopd", sent[0].AppName)
	assert.Equal(t, "Configuration Error", sent[0].Summary)
	assert.Contains(t, sent[0].Body, "bad position")
	assert.Equal(t, model.UrgencyNormal, sent[0].Urgency())
	assert.True(t, sent[0].Transient())
	assert.Equal(t, int32(5000), sent[0].ExpireTimeout)

	// Same key inside the interval is dropped; other keys are not.
	n.NotifyConfigError(errors.New("again"))
	n.NotifyConfigReloaded()
	require.Len(t, sent, 2)
	assert.Equal(t, model.UrgencyLow, sent[1].Urgency())

	now = now.Add(6 * time.Second)
	n.NotifyConfigError(errors.New("later"))
	assert.Len(t, sent, 3)
}

func TestInternalNotifier_Disabled(t *testing.T) {
	n := NewInternalNotifier(nil)
	calls := 0
	n.SetNotifyHandler(func(*dbus.DBusNotification) uint32 { calls++; return 0 })
	n.SetEnabled(false)

	n.NotifyStartup("1.0.0")
	assert.Zero(t, calls)

	n.SetEnabled(true)
	n.Notify("k", "critical thing", "", NotificationLevelError)
	assert.Equal(t, 1, calls)
}

func TestInternalNotifier_NoHandler(t *testing.T) {
	n := NewInternalNotifier(nil)
	assert.NotPanics(t, func() { n.NotifyStartup("dev") })
}
