package model

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotification(t *testing.T) {
	n, err := NewNotification("mail", "New message", "hello")
	require.NoError(t, err)

	_, err = ulid.Parse(n.ID)
	assert.NoError(t, err)
	assert.Equal(t, "mail", n.AppName)
	assert.Equal(t, UrgencyNormal, n.Urgency)
	assert.Equal(t, "normal", n.UrgencyName())
	assert.False(t, n.ReceivedAt.IsZero())

	other, err := NewNotification("mail", "New message", "hello")
	require.NoError(t, err)
	assert.NotEqual(t, n.ID, other.ID)
}

func TestSetUrgency(t *testing.T) {
	tests := []struct {
		level    int
		expected int
	}{
		{UrgencyLow, UrgencyLow},
		{UrgencyNormal, UrgencyNormal},
		{UrgencyCritical, UrgencyCritical},
		{-1, UrgencyNormal},
		{3, UrgencyNormal},
	}

	for _, tt := range tests {
		n := &Notification{}
		n.SetUrgency(tt.level)
		assert.Equal(t, tt.expected, n.Urgency, "level %d", tt.level)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "mail: hi", (&Notification{AppName: "mail", Summary: "hi"}).Title())
	assert.Equal(t, "hi", (&Notification{Summary: "hi"}).Title())
	assert.Equal(t, "mail", (&Notification{AppName: "mail"}).Title())
	assert.Equal(t, "", (&Notification{}).Title())
}

func TestLines(t *testing.T) {
	n := &Notification{
		AppName: "disk",
		Summary: "warning",
		Body:    "disk full\n\n  /home at 99%  \nthird",
	}

	assert.Equal(t, []string{"disk: warning", "disk full", "/home at 99%", "third"}, n.Lines(10))
	assert.Equal(t, []string{"disk: warning", "disk full"}, n.Lines(2))
	assert.Nil(t, n.Lines(0))

	bodyOnly := &Notification{Body: "only body"}
	assert.Equal(t, []string{"only body"}, bodyOnly.Lines(3))
}
