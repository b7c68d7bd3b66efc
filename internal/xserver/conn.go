// Package xserver is the narrow slice of the X11 core protocol that xpop
// needs: resource ids, fonts, colors, graphics contexts, popup windows and
// a handful of drawing requests.
package xserver

// Graphics context attribute bits, matching the X11 GC value mask.
const (
	GCForeground uint32 = 1 << 2
	GCBackground uint32 = 1 << 3
	GCLineWidth  uint32 = 1 << 4
	GCFont       uint32 = 1 << 14
)

// Screen holds the reference values of the screen popups are drawn on.
type Screen struct {
	Root       uint32
	Colormap   uint32
	Visual     uint32
	WhitePixel uint32
	BlackPixel uint32
	Width      int
	Height     int
}

// Rect is a screen rectangle in pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Event is something the server reported to us.
type Event interface {
	isEvent()
}

// ExposeEvent means part of a window needs repainting.
type ExposeEvent struct {
	Window uint32
	Count  int // remaining expose events in this series
}

// ButtonEvent is a mouse button press on a window.
type ButtonEvent struct {
	Window uint32
	Button int
}

func (ExposeEvent) isEvent() {}
func (ButtonEvent) isEvent() {}

// Conn is the display-server connection as seen by the registry and queue.
// Every request that returns a value or an error is a synchronous round trip.
type Conn interface {
	Screen() Screen

	NewID() (uint32, error)

	OpenFont(id uint32, name string) error
	CloseFont(id uint32) error

	// AllocColor returns the pixel value the server assigned to r,g,b in cmap.
	AllocColor(cmap uint32, r, g, b uint16) (uint32, error)

	CreateGC(id, drawable, mask uint32, values []uint32) error
	FreeGC(id uint32) error

	// CreatePopup creates an unmapped override-redirect window that reports
	// Expose and ButtonPress.
	CreatePopup(id uint32, r Rect, background uint32) error
	MapWindow(id uint32) error
	MoveResizeWindow(id uint32, r Rect) error
	SetBackground(id, pixel uint32) error
	ClearWindow(id uint32) error
	DestroyWindow(id uint32) error

	DrawRectangle(drawable, gc uint32, r Rect) error
	DrawText(drawable, gc uint32, x, y int, text string) error

	// WaitForEvent blocks until the next event. It returns an error once the
	// connection is closed.
	WaitForEvent() (Event, error)

	Sync() error
	Close()
}

// RequestError is a failed protocol request.
type RequestError struct {
	Request string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return e.Request + ": " + e.Cause.Error()
	}
	return e.Request
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}
