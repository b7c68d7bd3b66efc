package dbus

import "sync"

// idTable hands out notification ids and remembers which are still on
// screen. It alone decides whether a Notify replaces an existing popup.
type idTable struct {
	mu   sync.Mutex
	last uint32
	live map[uint32]struct{}
}

func newIDTable() *idTable {
	return &idTable{live: make(map[uint32]struct{})}
}

// claim returns the id for a new notification. A replacesID that is still
// live is reused; anything else gets a fresh id. Zero is never handed out
// and neither is an id that is still live after the counter wraps.
func (t *idTable) claim(replacesID uint32) (id uint32, replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if replacesID != 0 {
		if _, ok := t.live[replacesID]; ok {
			return replacesID, true
		}
	}

	for {
		t.last++
		if t.last == 0 {
			continue
		}
		if _, busy := t.live[t.last]; !busy {
			break
		}
	}
	t.live[t.last] = struct{}{}
	return t.last, false
}

// release forgets id and reports whether it was live.
func (t *idTable) release(id uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.live[id]
	delete(t.live, id)
	return ok
}

func (t *idTable) contains(id uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.live[id]
	return ok
}

func (t *idTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}
