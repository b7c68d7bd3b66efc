package xserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// maxText8 is the longest string a single ImageText8 request can carry.
const maxText8 = 255

// ErrConnectionClosed is returned by WaitForEvent after Close.
var ErrConnectionClosed = errors.New("x connection closed")

// XConn implements Conn over an xgb connection.
type XConn struct {
	conn   *xgb.Conn
	screen Screen
	logger *slog.Logger
}

// Dial connects to the X server named by display ("" means $DISPLAY).
func Dial(display string, logger *slog.Logger) (*XConn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		conn *xgb.Conn
		err  error
	)
	if display == "" {
		conn, err = xgb.NewConn()
	} else {
		conn, err = xgb.NewConnDisplay(display)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	info := xproto.Setup(conn).DefaultScreen(conn)
	x := &XConn{
		conn:   conn,
		logger: logger,
		screen: Screen{
			Root:       uint32(info.Root),
			Colormap:   uint32(info.DefaultColormap),
			Visual:     uint32(info.RootVisual),
			WhitePixel: info.WhitePixel,
			BlackPixel: info.BlackPixel,
			Width:      int(info.WidthInPixels),
			Height:     int(info.HeightInPixels),
		},
	}

	logger.Debug("connected to X server",
		"display", display,
		"root", x.screen.Root,
		"width", x.screen.Width,
		"height", x.screen.Height,
	)
	return x, nil
}

// Screen returns the default screen.
func (x *XConn) Screen() Screen {
	return x.screen
}

// NewID allocates a resource id.
func (x *XConn) NewID() (uint32, error) {
	id, err := x.conn.NewId()
	if err != nil {
		return 0, &RequestError{Request: "NewId", Cause: err}
	}
	return id, nil
}

// OpenFont opens a core font by name.
func (x *XConn) OpenFont(id uint32, name string) error {
	if err := xproto.OpenFontChecked(x.conn, xproto.Font(id), uint16(len(name)), name).Check(); err != nil {
		return &RequestError{Request: fmt.Sprintf("OpenFont(%q)", name), Cause: err}
	}
	return nil
}

// CloseFont releases a font.
func (x *XConn) CloseFont(id uint32) error {
	if err := xproto.CloseFontChecked(x.conn, xproto.Font(id)).Check(); err != nil {
		return &RequestError{Request: "CloseFont", Cause: err}
	}
	return nil
}

// AllocColor allocates a read-only color cell.
func (x *XConn) AllocColor(cmap uint32, r, g, b uint16) (uint32, error) {
	reply, err := xproto.AllocColor(x.conn, xproto.Colormap(cmap), r, g, b).Reply()
	if err != nil {
		return 0, &RequestError{Request: "AllocColor", Cause: err}
	}
	if reply == nil {
		return 0, &RequestError{Request: "AllocColor", Cause: errors.New("empty reply")}
	}
	return reply.Pixel, nil
}

// CreateGC creates a graphics context on drawable.
func (x *XConn) CreateGC(id, drawable, mask uint32, values []uint32) error {
	err := xproto.CreateGCChecked(x.conn, xproto.Gcontext(id), xproto.Drawable(drawable), mask, values).Check()
	if err != nil {
		return &RequestError{Request: "CreateGC", Cause: err}
	}
	return nil
}

// FreeGC releases a graphics context.
func (x *XConn) FreeGC(id uint32) error {
	if err := xproto.FreeGCChecked(x.conn, xproto.Gcontext(id)).Check(); err != nil {
		return &RequestError{Request: "FreeGC", Cause: err}
	}
	return nil
}

// CreatePopup creates an override-redirect child of the root window.
func (x *XConn) CreatePopup(id uint32, r Rect, background uint32) error {
	mask := uint32(xproto.CwBackPixel | xproto.CwOverrideRedirect | xproto.CwEventMask)
	values := []uint32{
		background,
		1,
		uint32(xproto.EventMaskExposure | xproto.EventMaskButtonPress),
	}

	err := xproto.CreateWindowChecked(x.conn,
		xproto.WindowClassCopyFromParent,
		xproto.Window(id),
		xproto.Window(x.screen.Root),
		int16(r.X), int16(r.Y),
		uint16(r.Width), uint16(r.Height),
		0,
		xproto.WindowClassInputOutput,
		xproto.Visualid(x.screen.Visual),
		mask, values,
	).Check()
	if err != nil {
		return &RequestError{Request: "CreateWindow", Cause: err}
	}
	return nil
}

// MapWindow makes a window visible.
func (x *XConn) MapWindow(id uint32) error {
	if err := xproto.MapWindowChecked(x.conn, xproto.Window(id)).Check(); err != nil {
		return &RequestError{Request: "MapWindow", Cause: err}
	}
	return nil
}

// MoveResizeWindow sets a window's geometry.
func (x *XConn) MoveResizeWindow(id uint32, r Rect) error {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(int32(r.X)), uint32(int32(r.Y)), uint32(r.Width), uint32(r.Height)}
	xproto.ConfigureWindow(x.conn, xproto.Window(id), mask, values)
	return nil
}

// SetBackground changes the window background pixel.
func (x *XConn) SetBackground(id, pixel uint32) error {
	xproto.ChangeWindowAttributes(x.conn, xproto.Window(id), xproto.CwBackPixel, []uint32{pixel})
	return nil
}

// ClearWindow repaints the whole window with its background.
func (x *XConn) ClearWindow(id uint32) error {
	xproto.ClearArea(x.conn, false, xproto.Window(id), 0, 0, 0, 0)
	return nil
}

// DestroyWindow destroys a window.
func (x *XConn) DestroyWindow(id uint32) error {
	if err := xproto.DestroyWindowChecked(x.conn, xproto.Window(id)).Check(); err != nil {
		return &RequestError{Request: "DestroyWindow", Cause: err}
	}
	return nil
}

// DrawRectangle strokes the outline of r with gc.
func (x *XConn) DrawRectangle(drawable, gc uint32, r Rect) error {
	xproto.PolyRectangle(x.conn, xproto.Drawable(drawable), xproto.Gcontext(gc), []xproto.Rectangle{{
		X:      int16(r.X),
		Y:      int16(r.Y),
		Width:  uint16(r.Width),
		Height: uint16(r.Height),
	}})
	return nil
}

// DrawText draws text with the gc's font, foreground and background. The
// text is sent as Latin-1 and truncated to what one request allows.
func (x *XConn) DrawText(drawable, gc uint32, px, py int, text string) error {
	text = Latin1(text)
	if len(text) > maxText8 {
		text = text[:maxText8]
	}
	xproto.ImageText8(x.conn, byte(len(text)), xproto.Drawable(drawable), xproto.Gcontext(gc), int16(px), int16(py), text)
	return nil
}

// WaitForEvent returns the next Expose or ButtonPress event. Protocol errors
// from unchecked requests are logged and skipped.
func (x *XConn) WaitForEvent() (Event, error) {
	for {
		ev, xerr := x.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return nil, ErrConnectionClosed
		}
		if xerr != nil {
			x.logger.Warn("X protocol error", "error", xerr)
			continue
		}

		switch e := ev.(type) {
		case xproto.ExposeEvent:
			return ExposeEvent{Window: uint32(e.Window), Count: int(e.Count)}, nil
		case xproto.ButtonPressEvent:
			return ButtonEvent{Window: uint32(e.Event), Button: int(e.Detail)}, nil
		}
	}
}

// Sync waits until the server has processed every request sent so far.
func (x *XConn) Sync() error {
	if _, err := xproto.GetInputFocus(x.conn).Reply(); err != nil {
		return &RequestError{Request: "Sync", Cause: err}
	}
	return nil
}

// Close closes the connection.
func (x *XConn) Close() {
	x.conn.Close()
}

var _ Conn = (*XConn)(nil)
