package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/xpop/internal/config"
	"github.com/jmylchreest/xpop/internal/dbus"
	"github.com/jmylchreest/xpop/internal/gcontext"
	"github.com/jmylchreest/xpop/internal/queue"
	"github.com/jmylchreest/xpop/internal/xserver"
)

// Bus is the part of the notification server the daemon drives.
type Bus interface {
	SetNotifyHandler(handler dbus.NotificationHandler)
	SetCloseHandler(handler dbus.CloseHandler)
	CloseWithReason(id uint32, reason dbus.CloseReason) error
	NotifyInternal(notification *dbus.DBusNotification) uint32
}

// Daemon turns notifications into popups. The styles, the queue and the
// D-Bus id mapping are only touched from the loop goroutine.
type Daemon struct {
	conn     xserver.Conn
	bus      Bus
	logger   *slog.Logger
	loop     *Loop
	notifier *InternalNotifier

	cfg      *config.DaemonConfig
	registry *gcontext.Registry
	queue    *queue.Queue
	states   *DisplayStateManager

	afterFunc func(d time.Duration, fn func()) stopper
	closeOnce sync.Once
}

// New loads the styles from cfg and hooks the daemon up to bus. Nothing is
// drawn until notifications arrive and Run is called.
func New(conn xserver.Conn, bus Bus, cfg *config.DaemonConfig, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := loadStyles(conn, cfg, logger)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		conn:     conn,
		bus:      bus,
		logger:   logger,
		loop:     NewLoop(),
		notifier: NewInternalNotifier(logger),
		cfg:      cfg,
		registry: registry,
		queue:    queue.New(conn, registry, queue.NewLayout(cfg.Display, conn.Screen()), logger),
		states:   NewDisplayStateManager(),
		afterFunc: func(dur time.Duration, fn func()) stopper {
			return time.AfterFunc(dur, fn)
		},
	}

	d.notifier.SetNotifyHandler(bus.NotifyInternal)
	bus.SetNotifyHandler(d.handleNotify)
	bus.SetCloseHandler(d.handleClose)
	return d, nil
}

// loadStyles builds a registry for cfg. Without gc.list only the baseline
// style exists and every popup uses it.
func loadStyles(conn xserver.Conn, cfg *config.DaemonConfig, logger *slog.Logger) (*gcontext.Registry, error) {
	registry := gcontext.New(conn, cfg.Keys(), logger)

	err := registry.LoadAll()
	if errors.Is(err, gcontext.ErrNotConfigured) {
		logger.Info("no styles listed in gc.list, using the default style only")
		_, err = registry.InitializeDefaults()
	}
	if err != nil {
		registry.Teardown()
		return nil, fmt.Errorf("failed to load styles: %w", err)
	}
	return registry, nil
}

// Notifier returns the notifier for daemon status popups.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// Run processes notifications and X events until ctx is cancelled or the X
// connection goes away. It releases every X resource and closes the
// connection before returning.
func (d *Daemon) Run(ctx context.Context) error {
	readerErr := make(chan error, 1)
	go d.readEvents(readerErr)

	d.logger.Info("daemon running", "styles", d.registry.Len(), "position", d.cfg.Display.Position)
	err := d.loop.Run(ctx)
	d.Close()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	select {
	case rerr := <-readerErr:
		return fmt.Errorf("event reader stopped: %w", rerr)
	default:
		return nil
	}
}

// Stop ends Run.
func (d *Daemon) Stop() {
	d.loop.Stop()
}

// Reload swaps in a new configuration. If its styles cannot be loaded the
// current ones stay in place and an error popup is shown.
func (d *Daemon) Reload(cfg *config.DaemonConfig) {
	d.loop.Post(func() { d.applyConfig(cfg) })
}

// ReloadFailed reports a config file that did not parse or validate.
func (d *Daemon) ReloadFailed(err error) {
	d.notifier.NotifyConfigError(err)
}

// Popups returns the current stack, newest first.
func (d *Daemon) Popups() []queue.ItemView {
	var views []queue.ItemView
	d.loop.Call(func() { views = d.queue.Items() })
	return views
}

func (d *Daemon) readEvents(errCh chan<- error) {
	for {
		ev, err := d.conn.WaitForEvent()
		if err != nil {
			errCh <- err
			d.loop.Stop()
			return
		}
		if !d.loop.Post(func() { d.handleEvent(ev) }) {
			return
		}
	}
}

// handleNotify runs on the D-Bus dispatch goroutine.
func (d *Daemon) handleNotify(n *dbus.DBusNotification, id uint32) {
	if !d.loop.Post(func() { d.show(n, id) }) {
		d.logger.Debug("notification dropped, daemon stopped", "id", id)
	}
}

// handleClose runs on the D-Bus dispatch goroutine. The server has already
// emitted NotificationClosed.
func (d *Daemon) handleClose(id uint32) {
	d.loop.Post(func() { d.finish(id, DisplayStatusClosed, 0) })
}

func (d *Daemon) show(n *dbus.DBusNotification, id uint32) {
	payload, err := n.ToModel(id)
	if err != nil {
		d.logger.Error("failed to create notification", "id", id, "error", err)
		d.reject(id)
		return
	}

	style := n.Style()
	if style == "" {
		style = d.cfg.GetStyleForUrgency(payload.Urgency)
	}
	payload.Timeout = d.timeoutFor(n, payload.Urgency)

	item, err := d.queue.Add(style, payload)
	if err != nil {
		d.logger.Warn("failed to queue notification", "id", id, "error", err)
		d.reject(id)
		return
	}

	var expiresAt time.Time
	if payload.Timeout > 0 {
		expiresAt = payload.ReceivedAt.Add(payload.Timeout)
	}
	state, replaced := d.states.Register(id, item, style, expiresAt)
	if replaced != nil {
		if err := d.queue.Remove(replaced.Item); err != nil {
			d.logger.Debug("replaced popup already gone", "id", id, "error", err)
		}
	}
	if payload.Timeout > 0 {
		d.states.SetTimer(state, d.afterFunc(payload.Timeout, func() {
			d.loop.Post(func() { d.expire(state) })
		}))
	}

	d.logger.Debug("showing notification",
		"id", id,
		"app", payload.AppName,
		"style", style,
		"urgency", payload.UrgencyName(),
		"timeout", payload.Timeout,
		"replaced", replaced != nil,
	)
	d.redraw()
}

// reject reports id as closed when it never made it on screen. A popup it
// was meant to replace is taken down with it.
func (d *Daemon) reject(id uint32) {
	if state := d.states.Finish(id, DisplayStatusClosed); state != nil {
		if err := d.queue.Remove(state.Item); err == nil {
			d.redraw()
		}
	}
	if err := d.bus.CloseWithReason(id, dbus.CloseReasonClosed); err != nil {
		d.logger.Debug("failed to report rejected notification", "id", id, "error", err)
	}
}

// timeoutFor picks the popup lifetime. A client timeout, including 0 for
// "never", wins over the per-urgency default.
func (d *Daemon) timeoutFor(n *dbus.DBusNotification, urgency int) time.Duration {
	if timeout, ok := n.Timeout(); ok {
		return timeout
	}
	return d.cfg.GetTimeoutForUrgency(urgency)
}

func (d *Daemon) expire(state *DisplayState) {
	if !d.states.IsCurrent(state) {
		return
	}
	d.finish(state.DBusID, DisplayStatusExpired, dbus.CloseReasonExpired)
}

// finish removes the popup of id. A zero reason emits no signal.
func (d *Daemon) finish(id uint32, status DisplayStatus, reason dbus.CloseReason) {
	state := d.states.Finish(id, status)
	if state == nil {
		return
	}
	if err := d.queue.Remove(state.Item); err != nil {
		d.logger.Debug("popup already removed", "id", id, "error", err)
	}
	if reason != 0 {
		if err := d.bus.CloseWithReason(id, reason); err != nil {
			d.logger.Debug("failed to report closed notification", "id", id, "reason", reason, "error", err)
		}
	}

	d.logger.Debug("notification closed", "id", id, "status", status)
	d.redraw()
}

func (d *Daemon) handleEvent(ev xserver.Event) {
	switch e := ev.(type) {
	case xserver.ExposeEvent:
		if e.Count == 0 {
			d.redraw()
		}
	case xserver.ButtonEvent:
		if e.Button != 1 {
			return
		}
		item, ok := d.queue.FindByWindow(e.Window)
		if !ok {
			return
		}
		if state := d.states.GetByItem(item); state != nil {
			d.finish(state.DBusID, DisplayStatusDismissed, dbus.CloseReasonDismissed)
			return
		}
		if err := d.queue.Remove(item); err == nil {
			d.redraw()
		}
	}
}

func (d *Daemon) applyConfig(cfg *config.DaemonConfig) {
	registry, err := loadStyles(d.conn, cfg, d.logger)
	if err != nil {
		d.logger.Warn("keeping previous styles", "error", err)
		d.notifier.NotifyConfigError(err)
		return
	}

	old := d.registry
	d.cfg = cfg
	d.registry = registry
	d.queue.SetStyles(registry)
	d.queue.SetLayout(queue.NewLayout(cfg.Display, d.conn.Screen()))
	old.Teardown()

	d.logger.Info("configuration applied", "styles", registry.Len(), "position", cfg.Display.Position)
	d.redraw()
	d.notifier.NotifyConfigReloaded()
}

func (d *Daemon) redraw() {
	if err := d.queue.Draw(); err != nil {
		d.logger.Warn("failed to draw popups", "error", err)
	}
}

// Close releases every X resource and closes the connection. Run calls it
// on return; call it directly only when Run was never started.
func (d *Daemon) Close() {
	d.closeOnce.Do(func() {
		d.loop.Stop()
		d.states.Clear()
		d.queue.Close()
		d.registry.Teardown()
		d.conn.Close()
		d.logger.Info("daemon stopped")
	})
}
