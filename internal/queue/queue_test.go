package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/xpop/internal/color"
	"github.com/jmylchreest/xpop/internal/config"
	"github.com/jmylchreest/xpop/internal/gcontext"
	"github.com/jmylchreest/xpop/internal/model"
	"github.com/jmylchreest/xpop/internal/xserver/xservertest"
)

type fixture struct {
	conn *xservertest.Conn
	reg  *gcontext.Registry
	q    *Queue
}

func newFixture(t *testing.T, toml string) *fixture {
	t.Helper()
	store, err := config.ParseStore([]byte(toml))
	require.NoError(t, err)

	conn := xservertest.New()
	reg := gcontext.New(conn, store, nil)
	if err := reg.LoadAll(); err == gcontext.ErrNotConfigured {
		_, err = reg.InitializeDefaults()
		require.NoError(t, err)
	} else {
		require.NoError(t, err)
	}

	return &fixture{
		conn: conn,
		reg:  reg,
		q:    New(conn, reg, testLayout(config.PositionTopLeft), nil),
	}
}

func note(summary string) *model.Notification {
	return &model.Notification{AppName: "test", Summary: summary}
}

func summaries(q *Queue) []string {
	var out []string
	for _, v := range q.Items() {
		out = append(out, v.Notification.Summary)
	}
	return out
}

func TestAdd_PrependsAndCounts(t *testing.T) {
	f := newFixture(t, ``)

	for _, s := range []string{"a", "b", "c"} {
		id, err := f.q.Add("info", note(s))
		require.NoError(t, err)
		assert.False(t, id.IsZero())
		assert.Equal(t, StateQueued, f.q.State(id))
	}

	assert.Equal(t, 3, f.q.Len())
	assert.Equal(t, []string{"c", "b", "a"}, summaries(f.q))
	for i, v := range f.q.Items() {
		assert.Equal(t, i, v.Index)
	}
	// Nothing is drawn until Draw
	assert.Empty(t, f.conn.Windows)
}

func TestRemove_AnySingleItem(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for victim := 0; victim < n; victim++ {
			t.Run(fmt.Sprintf("n=%d/remove=%d", n, victim), func(t *testing.T) {
				f := newFixture(t, ``)

				ids := make([]ItemID, n)
				for i := 0; i < n; i++ {
					id, err := f.q.Add("info", note(fmt.Sprint(i)))
					require.NoError(t, err)
					ids[i] = id
				}
				before := summaries(f.q)

				// Stack order is reversed insertion order
				removed := ids[n-1-victim]
				require.NoError(t, f.q.Remove(removed))

				assert.Equal(t, n-1, f.q.Len())
				assert.Equal(t, StateRemoved, f.q.State(removed))

				expected := append(append([]string{}, before[:victim]...), before[victim+1:]...)
				if len(expected) == 0 {
					expected = nil
				}
				assert.Equal(t, expected, summaries(f.q))

				for i, v := range f.q.Items() {
					assert.Equal(t, i, v.Index)
					assert.NotEqual(t, removed, v.ID)
				}
			})
		}
	}
}

func TestRemove_Twice(t *testing.T) {
	f := newFixture(t, ``)
	id, err := f.q.Add("info", note("a"))
	require.NoError(t, err)

	require.NoError(t, f.q.Remove(id))
	assert.ErrorIs(t, f.q.Remove(id), ErrUnknownItem)
	assert.Equal(t, 0, f.q.Len())
}

func TestRemove_StaleIDAfterSlotReuse(t *testing.T) {
	f := newFixture(t, ``)
	old, err := f.q.Add("info", note("old"))
	require.NoError(t, err)
	require.NoError(t, f.q.Remove(old))

	fresh, err := f.q.Add("info", note("fresh"))
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh)

	assert.ErrorIs(t, f.q.Remove(old), ErrUnknownItem)
	assert.Equal(t, 1, f.q.Len())
	payload, ok := f.q.Payload(fresh)
	require.True(t, ok)
	assert.Equal(t, "fresh", payload.Summary)
}

func TestRemove_ForeignQueue(t *testing.T) {
	f := newFixture(t, ``)
	other := New(f.conn, f.reg, testLayout(config.PositionTopLeft), nil)

	id, err := f.q.Add("info", note("mine"))
	require.NoError(t, err)
	_, err = other.Add("info", note("theirs"))
	require.NoError(t, err)

	assert.ErrorIs(t, other.Remove(id), ErrNotOwned)
	assert.Equal(t, 1, f.q.Len())
	assert.Equal(t, 1, other.Len())
	assert.Equal(t, StateRemoved, other.State(id))
	assert.Equal(t, StateQueued, f.q.State(id))
}

func TestRemove_ZeroID(t *testing.T) {
	f := newFixture(t, ``)
	assert.ErrorIs(t, f.q.Remove(ItemID{}), ErrNotOwned)
}

func TestDraw_LaysOutByIndex(t *testing.T) {
	f := newFixture(t, ``)
	layout := f.q.Layout()

	a, _ := f.q.Add("info", note("a"))
	b, _ := f.q.Add("info", note("b"))
	c, _ := f.q.Add("info", note("c"))
	require.NoError(t, f.q.Draw())

	views := f.q.Items()
	require.Len(t, views, 3)
	for i, v := range views {
		assert.Equal(t, StateVisible, v.State)
		w := f.conn.Windows[v.Window]
		require.NotNil(t, w)
		assert.True(t, w.Mapped)
		assert.Equal(t, layout.Rect(i), w.Rect)
	}
	assert.Equal(t, c, views[0].ID)

	// Removing the middle item closes the gap on the next draw
	bWindow := views[1].Window
	require.NoError(t, f.q.Remove(b))
	assert.True(t, f.conn.Windows[bWindow].Destroyed)

	require.NoError(t, f.q.Draw())
	views = f.q.Items()
	require.Len(t, views, 2)
	assert.Equal(t, a, views[1].ID)
	assert.Equal(t, layout.Rect(1), f.conn.Windows[views[1].Window].Rect)
}

func TestDraw_UsesStyleAndFallsBackToDefault(t *testing.T) {
	f := newFixture(t, `
[gc]
list = "info,warn"

[gc.warn]
fg = "f00"
bg = "fff"
`)

	warnID, _ := f.q.Add("warn", note("w"))
	unknownID, _ := f.q.Add("nope", note("u"))
	require.NoError(t, f.q.Draw())

	warn, ok := f.reg.Lookup("warn")
	require.True(t, ok)
	def, ok := f.reg.Default()
	require.True(t, ok)

	byID := map[ItemID]ItemView{}
	for _, v := range f.q.Items() {
		byID[v.ID] = v
	}

	warnOps := f.conn.OpsFor(byID[warnID].Window)
	require.NotEmpty(t, warnOps)
	for _, op := range warnOps {
		assert.Equal(t, warn.GC, op.GC)
	}
	assert.Equal(t, warn.Spec.Background, f.conn.Windows[byID[warnID].Window].Background)

	for _, op := range f.conn.OpsFor(byID[unknownID].Window) {
		assert.Equal(t, def.GC, op.GC)
	}
}

func TestDraw_DrawsBoxAndText(t *testing.T) {
	f := newFixture(t, ``)
	id, _ := f.q.Add("info", &model.Notification{AppName: "disk", Summary: "low space", Body: "97% used"})
	require.NoError(t, f.q.Draw())

	view := f.q.Items()[0]
	require.Equal(t, id, view.ID)
	ops := f.conn.OpsFor(view.Window)
	require.Len(t, ops, 3)

	assert.Equal(t, "rect", ops[0].Kind)
	inset := gcontext.DefaultLineWidth / 2
	assert.Equal(t, inset, ops[0].Rect.X)
	assert.Equal(t, 300-1-2*inset, ops[0].Rect.Width)

	assert.Equal(t, "text", ops[1].Kind)
	assert.Equal(t, "disk: low space", ops[1].Text)
	assert.Equal(t, "97% used", ops[2].Text)
	assert.Less(t, ops[1].Rect.Y, ops[2].Rect.Y)
}

func TestDraw_PicksUpRegistryChanges(t *testing.T) {
	f := newFixture(t, ``)
	f.q.Add("warn", note("w"))
	require.NoError(t, f.q.Draw())

	def, _ := f.reg.Default()
	window := f.q.Items()[0].Window
	assert.Equal(t, def.GC, f.conn.OpsFor(window)[0].GC)

	store, err := config.ParseStore([]byte("gc.list = \"warn\"\ngc.warn.bg = \"f00\""))
	require.NoError(t, err)
	reg := gcontext.New(f.conn, store, nil)
	require.NoError(t, reg.LoadAll())
	f.q.SetStyles(reg)

	f.conn.ResetOps()
	require.NoError(t, f.q.Draw())

	warn, _ := reg.Lookup("warn")
	assert.Equal(t, warn.GC, f.conn.OpsFor(window)[0].GC)
	assert.Equal(t, warn.Spec.Background, f.conn.Windows[window].Background)
}

func TestDraw_NoStyles(t *testing.T) {
	conn := xservertest.New()
	q := New(conn, nil, testLayout(config.PositionTopLeft), nil)
	id, _ := q.Add("info", note("a"))

	assert.Error(t, q.Draw())
	assert.Equal(t, StateQueued, q.State(id))
}

func TestFindByWindow(t *testing.T) {
	f := newFixture(t, ``)
	id, _ := f.q.Add("info", note("a"))
	f.q.Add("info", note("b"))
	require.NoError(t, f.q.Draw())

	var window uint32
	for _, v := range f.q.Items() {
		if v.ID == id {
			window = v.Window
		}
	}

	got, ok := f.q.FindByWindow(window)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = f.q.FindByWindow(0)
	assert.False(t, ok)
	_, ok = f.q.FindByWindow(12345)
	assert.False(t, ok)
}

func TestClose(t *testing.T) {
	f := newFixture(t, ``)
	id, _ := f.q.Add("info", note("a"))
	f.q.Add("info", note("b"))
	require.NoError(t, f.q.Draw())

	windows := []uint32{}
	for _, v := range f.q.Items() {
		windows = append(windows, v.Window)
	}

	f.q.Close()
	assert.Equal(t, 0, f.q.Len())
	for _, w := range windows {
		assert.True(t, f.conn.Windows[w].Destroyed)
	}

	assert.ErrorIs(t, f.q.Remove(id), ErrClosed)
	assert.ErrorIs(t, f.q.Draw(), ErrClosed)
	_, err := f.q.Add("info", note("c"))
	assert.ErrorIs(t, err, ErrClosed)

	// Idempotent
	f.q.Close()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "queued", StateQueued.String())
	assert.Equal(t, "visible", StateVisible.String())
	assert.Equal(t, "removed", StateRemoved.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestEndToEnd_WarnStyleAtFirstSlot(t *testing.T) {
	f := newFixture(t, `
[gc]
list = "info,warn"

[gc.warn]
fg = "f00"
`)

	id, err := f.q.Add("warn", &model.Notification{Summary: "disk full"})
	require.NoError(t, err)
	require.NoError(t, f.q.Draw())

	view := f.q.Items()[0]
	assert.Equal(t, id, view.ID)

	dx, dy := f.q.Layout().Offset(view.Index)
	assert.Equal(t, 0, dx)
	assert.Equal(t, 0, dy)
	assert.Equal(t, f.q.Layout().Rect(0), f.conn.Windows[view.Window].Rect)

	red := color.MustResolve("f00")
	ops := f.conn.OpsFor(view.Window)
	require.NotEmpty(t, ops)
	gc := f.conn.GCs[ops[0].GC]
	require.NotNil(t, gc)
	assert.Equal(t, xservertest.Pixel(red.R, red.G, red.B), gc.Foreground())
}
