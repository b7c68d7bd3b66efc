// Package xservertest provides an in-memory xserver.Conn for tests.
package xservertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jmylchreest/xpop/internal/xserver"
)

// ErrInjected is returned by requests the test asked to fail.
var ErrInjected = errors.New("injected failure")

// DefaultScreen is the screen reported by New.
var DefaultScreen = xserver.Screen{
	Root:       1,
	Colormap:   2,
	Visual:     3,
	WhitePixel: 0xffffff,
	BlackPixel: 0x000000,
	Width:      1920,
	Height:     1080,
}

// GC is a created graphics context.
type GC struct {
	ID       uint32
	Drawable uint32
	Mask     uint32
	Values   []uint32
	Freed    bool
}

// Foreground returns the foreground pixel (the first value for our masks).
func (g GC) Foreground() uint32 { return g.Values[0] }

// Background returns the background pixel.
func (g GC) Background() uint32 { return g.Values[1] }

// LineWidth returns the line width.
func (g GC) LineWidth() uint32 { return g.Values[2] }

// Font returns the font id.
func (g GC) Font() uint32 { return g.Values[3] }

// Window is a created popup window.
type Window struct {
	ID         uint32
	Rect       xserver.Rect
	Background uint32
	Mapped     bool
	Destroyed  bool
}

// Op is a recorded drawing request.
type Op struct {
	Kind     string // "rect" or "text"
	Drawable uint32
	GC       uint32
	Rect     xserver.Rect
	Text     string
}

// Conn is a fake xserver.Conn. Colors are allocated TrueColor style: the
// pixel is 0xRRGGBB built from the top byte of each channel.
type Conn struct {
	mu sync.Mutex

	screen xserver.Screen
	nextID uint32

	Fonts       map[uint32]string
	ClosedFonts []uint32
	GCs         map[uint32]*GC
	Windows     map[uint32]*Window
	Ops         []Op

	// FailFonts makes OpenFont fail for these names.
	FailFonts map[string]bool
	// FailAllocColor makes every AllocColor fail.
	FailAllocColor bool
	// FailCreateGC makes every CreateGC fail.
	FailCreateGC bool

	events chan xserver.Event
	closed bool
}

// New returns an empty fake connection on DefaultScreen.
func New() *Conn {
	return &Conn{
		screen:    DefaultScreen,
		nextID:    0x200000,
		Fonts:     make(map[uint32]string),
		GCs:       make(map[uint32]*GC),
		Windows:   make(map[uint32]*Window),
		FailFonts: make(map[string]bool),
		events:    make(chan xserver.Event, 16),
	}
}

// Pixel returns the pixel the fake allocates for r,g,b.
func Pixel(r, g, b uint16) uint32 {
	return uint32(r>>8)<<16 | uint32(g>>8)<<8 | uint32(b>>8)
}

func (c *Conn) Screen() xserver.Screen { return c.screen }

func (c *Conn) NewID() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID, nil
}

func (c *Conn) OpenFont(id uint32, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailFonts[name] {
		return &xserver.RequestError{Request: fmt.Sprintf("OpenFont(%q)", name), Cause: ErrInjected}
	}
	c.Fonts[id] = name
	return nil
}

func (c *Conn) CloseFont(id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Fonts, id)
	c.ClosedFonts = append(c.ClosedFonts, id)
	return nil
}

func (c *Conn) AllocColor(_ uint32, r, g, b uint16) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailAllocColor {
		return 0, &xserver.RequestError{Request: "AllocColor", Cause: ErrInjected}
	}
	return Pixel(r, g, b), nil
}

func (c *Conn) CreateGC(id, drawable, mask uint32, values []uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailCreateGC {
		return &xserver.RequestError{Request: "CreateGC", Cause: ErrInjected}
	}
	c.GCs[id] = &GC{ID: id, Drawable: drawable, Mask: mask, Values: append([]uint32(nil), values...)}
	return nil
}

func (c *Conn) FreeGC(id uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gc, ok := c.GCs[id]; ok {
		gc.Freed = true
	}
	return nil
}

func (c *Conn) CreatePopup(id uint32, r xserver.Rect, background uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Windows[id] = &Window{ID: id, Rect: r, Background: background}
	return nil
}

func (c *Conn) MapWindow(id uint32) error {
	return c.withWindow(id, func(w *Window) { w.Mapped = true })
}

func (c *Conn) MoveResizeWindow(id uint32, r xserver.Rect) error {
	return c.withWindow(id, func(w *Window) { w.Rect = r })
}

func (c *Conn) SetBackground(id, pixel uint32) error {
	return c.withWindow(id, func(w *Window) { w.Background = pixel })
}

func (c *Conn) ClearWindow(id uint32) error {
	return c.withWindow(id, func(*Window) {})
}

func (c *Conn) DestroyWindow(id uint32) error {
	return c.withWindow(id, func(w *Window) { w.Destroyed = true })
}

func (c *Conn) withWindow(id uint32, fn func(*Window)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.Windows[id]
	if !ok {
		return &xserver.RequestError{Request: "window", Cause: fmt.Errorf("bad window %d", id)}
	}
	fn(w)
	return nil
}

func (c *Conn) DrawRectangle(drawable, gc uint32, r xserver.Rect) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ops = append(c.Ops, Op{Kind: "rect", Drawable: drawable, GC: gc, Rect: r})
	return nil
}

func (c *Conn) DrawText(drawable, gc uint32, x, y int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ops = append(c.Ops, Op{Kind: "text", Drawable: drawable, GC: gc, Rect: xserver.Rect{X: x, Y: y}, Text: text})
	return nil
}

// Inject queues an event for WaitForEvent.
func (c *Conn) Inject(ev xserver.Event) {
	c.events <- ev
}

func (c *Conn) WaitForEvent() (xserver.Event, error) {
	ev, ok := <-c.events
	if !ok {
		return nil, xserver.ErrConnectionClosed
	}
	return ev, nil
}

func (c *Conn) Sync() error { return nil }

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

// LiveGCs returns the number of GCs created and not yet freed.
func (c *Conn) LiveGCs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, gc := range c.GCs {
		if !gc.Freed {
			n++
		}
	}
	return n
}

// OpsFor returns the drawing requests issued on drawable.
func (c *Conn) OpsFor(drawable uint32) []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Op
	for _, op := range c.Ops {
		if op.Drawable == drawable {
			out = append(out, op)
		}
	}
	return out
}

// ResetOps forgets recorded drawing requests.
func (c *Conn) ResetOps() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ops = nil
}

var _ xserver.Conn = (*Conn)(nil)
