// Package model defines the notification payload carried by the popup queue.
package model

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Urgency levels matching freedesktop spec.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// UrgencyNames maps urgency levels to human-readable names.
var UrgencyNames = map[int]string{
	UrgencyLow:      "low",
	UrgencyNormal:   "normal",
	UrgencyCritical: "critical",
}

// Notification is the content of one popup.
type Notification struct {
	ID         string // ULID, unique per received notification
	DBusID     uint32 // freedesktop notification id, 0 for internal ones
	AppName    string
	Summary    string
	Body       string
	Urgency    int
	Timeout    time.Duration // zero means until dismissed
	ReceivedAt time.Time
}

// NewNotification creates a notification with a fresh ULID.
func NewNotification(appName, summary, body string) (*Notification, error) {
	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Notification{
		ID:         id.String(),
		AppName:    appName,
		Summary:    summary,
		Body:       body,
		Urgency:    UrgencyNormal,
		ReceivedAt: now,
	}, nil
}

// SetUrgency sets the urgency level, mapping out-of-range values to normal.
func (n *Notification) SetUrgency(level int) {
	if level < UrgencyLow || level > UrgencyCritical {
		level = UrgencyNormal
	}
	n.Urgency = level
}

// UrgencyName returns the human-readable urgency.
func (n *Notification) UrgencyName() string {
	return UrgencyNames[n.Urgency]
}

// Title is the first popup line: "app: summary", or whichever is set.
func (n *Notification) Title() string {
	switch {
	case n.AppName != "" && n.Summary != "":
		return n.AppName + ": " + n.Summary
	case n.Summary != "":
		return n.Summary
	default:
		return n.AppName
	}
}

// Lines returns the text lines of the popup, title first, at most max lines.
// Blank body lines are dropped.
func (n *Notification) Lines(max int) []string {
	if max <= 0 {
		return nil
	}

	lines := make([]string, 0, max)
	if title := n.Title(); title != "" {
		lines = append(lines, title)
	}
	for _, line := range strings.Split(n.Body, "\n") {
		if len(lines) >= max {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
