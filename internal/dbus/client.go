package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls a running notification server on the session bus.
type Client struct {
	obj dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{obj: conn.Object(DBusBusName, DBusPath)}, nil
}

// Send delivers n through Notify and returns the id the server assigned.
func (c *Client) Send(ctx context.Context, n *DBusNotification) (uint32, error) {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	err := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		actions, hints, n.ExpireTimeout,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify failed: %w", err)
	}
	return id, nil
}

// Close asks the server to close notification id.
func (c *Client) Close(ctx context.Context, id uint32) error {
	if err := c.obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// ServerInformation returns the running server's identity.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information failed: %w", err)
	}
	return info, nil
}

// UrgencyHint builds the urgency hint value.
func UrgencyHint(level int) dbus.Variant {
	return dbus.MakeVariant(byte(level))
}

// StringHint builds a string hint value.
func StringHint(value string) dbus.Variant {
	return dbus.MakeVariant(value)
}
