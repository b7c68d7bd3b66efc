// Package queue keeps the ordered set of notification popups and draws them
// as a stack of X11 windows.
package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jmylchreest/xpop/internal/gcontext"
	"github.com/jmylchreest/xpop/internal/model"
	"github.com/jmylchreest/xpop/internal/xserver"
)

var (
	// ErrNotOwned is returned when an item is removed through a queue that
	// did not create it.
	ErrNotOwned = errors.New("item belongs to another queue")
	// ErrUnknownItem is returned for items that were already removed.
	ErrUnknownItem = errors.New("unknown or removed item")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("queue closed")
)

// State is the lifecycle state of a queued notification.
type State int

const (
	// StateQueued means the item was added but has not been drawn yet.
	StateQueued State = iota
	// StateVisible means the item has been drawn at least once.
	StateVisible
	// StateRemoved means the item is gone.
	StateRemoved
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateVisible:
		return "visible"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// StyleSource resolves style names to graphics contexts.
type StyleSource interface {
	Lookup(name string) (gcontext.Handle, bool)
	Default() (gcontext.Handle, bool)
}

// ItemID identifies an item in the queue that created it. IDs of removed
// items never match a later item that reuses the same slot.
type ItemID struct {
	queue uint64
	slot  int32
	gen   uint32
}

// IsZero reports whether id is the zero ItemID.
func (id ItemID) IsZero() bool {
	return id == ItemID{}
}

// String implements fmt.Stringer.
func (id ItemID) String() string {
	return fmt.Sprintf("%d/%d.%d", id.queue, id.slot, id.gen)
}

// ItemView is a read-only snapshot of one item.
type ItemView struct {
	ID           ItemID
	Index        int
	StyleName    string
	State        State
	Window       uint32
	Rect         xserver.Rect
	Notification *model.Notification
}

const none int32 = -1

type item struct {
	gen       uint32
	live      bool
	prev      int32
	next      int32
	styleName string
	payload   *model.Notification
	state     State
	window    uint32
}

var queueSeq atomic.Uint64

// Queue is an ordered stack of popups, newest first. Items live in a slot
// arena linked through slot indices, so removal is O(1) and stale ids are
// detected by generation.
//
// A Queue is not safe for concurrent use. The daemon owns it from a single
// goroutine; other goroutines must hand work to that goroutine.
type Queue struct {
	id     uint64
	conn   xserver.Conn
	styles StyleSource
	layout Layout
	logger *slog.Logger

	slots  []item
	free   []int32
	head   int32
	count  int
	closed bool
}

// New creates an empty queue drawing on conn.
func New(conn xserver.Conn, styles StyleSource, layout Layout, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		id:     queueSeq.Add(1),
		conn:   conn,
		styles: styles,
		layout: layout,
		logger: logger,
		head:   none,
	}
}

// SetStyles replaces the style source used by the next Draw.
func (q *Queue) SetStyles(styles StyleSource) {
	q.styles = styles
}

// SetLayout replaces the layout used by the next Draw.
func (q *Queue) SetLayout(layout Layout) {
	q.layout = layout
}

// Layout returns the current layout.
func (q *Queue) Layout() Layout {
	return q.layout
}

// Len returns the number of items in the queue.
func (q *Queue) Len() int {
	return q.count
}

// Add puts a notification at the top of the stack (index 0), pushing every
// other item down one slot. It does not draw.
func (q *Queue) Add(styleName string, n *model.Notification) (ItemID, error) {
	if q.closed {
		return ItemID{}, ErrClosed
	}

	slot := q.alloc()
	it := &q.slots[slot]
	it.live = true
	it.styleName = styleName
	it.payload = n
	it.state = StateQueued
	it.window = 0
	it.prev = none
	it.next = q.head

	if q.head != none {
		q.slots[q.head].prev = slot
	}
	q.head = slot
	q.count++

	return ItemID{queue: q.id, slot: slot, gen: it.gen}, nil
}

// Remove unlinks the item, destroys its window and drops its payload. Items
// below it move up one slot on the next Draw.
func (q *Queue) Remove(id ItemID) error {
	if id.queue != q.id {
		return ErrNotOwned
	}
	if q.closed {
		return ErrClosed
	}
	it, ok := q.get(id)
	if !ok {
		return ErrUnknownItem
	}

	if it.prev != none {
		q.slots[it.prev].next = it.next
	} else {
		q.head = it.next
	}
	if it.next != none {
		q.slots[it.next].prev = it.prev
	}
	q.count--

	q.release(it)
	q.free = append(q.free, id.slot)
	return nil
}

// Draw lays out every item by its current index and paints it with the
// graphics context of its style, or the default style when the name is not
// registered. Styles are resolved on every call.
func (q *Queue) Draw() error {
	if q.closed {
		return ErrClosed
	}

	var errs []error
	index := 0
	for slot := q.head; slot != none; slot = q.slots[slot].next {
		it := &q.slots[slot]
		if err := q.drawItem(it, index); err != nil {
			errs = append(errs, err)
		}
		index++
	}

	if err := q.conn.Sync(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (q *Queue) drawItem(it *item, index int) error {
	style, ok := q.resolve(it.styleName)
	if !ok {
		return fmt.Errorf("no style for %q and no default style", it.styleName)
	}

	rect := q.layout.Rect(index)
	if it.window == 0 {
		id, err := q.conn.NewID()
		if err != nil {
			return err
		}
		if err := q.conn.CreatePopup(id, rect, style.Spec.Background); err != nil {
			return err
		}
		it.window = id
		if err := q.conn.MapWindow(id); err != nil {
			return err
		}
	} else {
		if err := q.conn.MoveResizeWindow(it.window, rect); err != nil {
			return err
		}
		if err := q.conn.SetBackground(it.window, style.Spec.Background); err != nil {
			return err
		}
		if err := q.conn.ClearWindow(it.window); err != nil {
			return err
		}
	}

	if err := q.paint(it, style); err != nil {
		return err
	}
	it.state = StateVisible
	return nil
}

// paint draws the border box and text lines in window coordinates.
func (q *Queue) paint(it *item, style gcontext.Handle) error {
	inset := int(style.Spec.LineWidth / 2)
	box := xserver.Rect{
		X:      inset,
		Y:      inset,
		Width:  max(q.layout.Width-1-2*inset, 0),
		Height: max(q.layout.Height-1-2*inset, 0),
	}
	if err := q.conn.DrawRectangle(it.window, style.GC, box); err != nil {
		return err
	}

	if it.payload == nil {
		return nil
	}
	x := q.layout.Padding + int(style.Spec.LineWidth)
	for i, line := range it.payload.Lines(q.layout.MaxLines()) {
		y := q.layout.Padding + (i+1)*q.layout.LineHeight - q.layout.LineHeight/4
		if err := q.conn.DrawText(it.window, style.GC, x, y, line); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) resolve(name string) (gcontext.Handle, bool) {
	if q.styles == nil {
		return gcontext.Handle{}, false
	}
	if h, ok := q.styles.Lookup(name); ok {
		return h, true
	}
	q.logger.Debug("style not registered, using default", "style", name)
	return q.styles.Default()
}

// Close removes every item without reflowing. The queue cannot be used
// afterwards.
func (q *Queue) Close() {
	if q.closed {
		return
	}
	for slot := q.head; slot != none; {
		it := &q.slots[slot]
		next := it.next
		q.release(it)
		slot = next
	}
	q.slots = nil
	q.free = nil
	q.head = none
	q.count = 0
	q.closed = true
}

// State returns the state of id. Unknown, removed and foreign ids report
// StateRemoved.
func (q *Queue) State(id ItemID) State {
	if id.queue != q.id {
		return StateRemoved
	}
	it, ok := q.get(id)
	if !ok {
		return StateRemoved
	}
	return it.state
}

// Payload returns the notification of a live item.
func (q *Queue) Payload(id ItemID) (*model.Notification, bool) {
	if id.queue != q.id {
		return nil, false
	}
	it, ok := q.get(id)
	if !ok {
		return nil, false
	}
	return it.payload, true
}

// FindByWindow returns the item drawn in window.
func (q *Queue) FindByWindow(window uint32) (ItemID, bool) {
	if window == 0 {
		return ItemID{}, false
	}
	for slot := q.head; slot != none; slot = q.slots[slot].next {
		if q.slots[slot].window == window {
			return q.idOf(slot), true
		}
	}
	return ItemID{}, false
}

// Items returns a snapshot of the queue in stack order.
func (q *Queue) Items() []ItemView {
	views := make([]ItemView, 0, q.count)
	index := 0
	for slot := q.head; slot != none; slot = q.slots[slot].next {
		it := &q.slots[slot]
		views = append(views, ItemView{
			ID:           q.idOf(slot),
			Index:        index,
			StyleName:    it.styleName,
			State:        it.state,
			Window:       it.window,
			Rect:         q.layout.Rect(index),
			Notification: it.payload,
		})
		index++
	}
	return views
}

func (q *Queue) idOf(slot int32) ItemID {
	return ItemID{queue: q.id, slot: slot, gen: q.slots[slot].gen}
}

func (q *Queue) get(id ItemID) (*item, bool) {
	if id.slot < 0 || int(id.slot) >= len(q.slots) {
		return nil, false
	}
	it := &q.slots[id.slot]
	if !it.live || it.gen != id.gen {
		return nil, false
	}
	return it, true
}

func (q *Queue) alloc() int32 {
	if n := len(q.free); n > 0 {
		slot := q.free[n-1]
		q.free = q.free[:n-1]
		return slot
	}
	q.slots = append(q.slots, item{prev: none, next: none})
	return int32(len(q.slots) - 1)
}

// release frees what an item owns and retires its generation.
func (q *Queue) release(it *item) {
	if it.window != 0 {
		if err := q.conn.DestroyWindow(it.window); err != nil {
			q.logger.Debug("failed to destroy popup window", "window", it.window, "error", err)
		}
	}
	it.live = false
	it.gen++
	it.payload = nil
	it.styleName = ""
	it.state = StateRemoved
	it.window = 0
	it.prev = none
	it.next = none
}
