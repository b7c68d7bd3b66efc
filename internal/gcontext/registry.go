// Package gcontext resolves the named drawing styles from gc.* configuration
// into X11 graphics contexts and answers name lookups for the popup queue.
package gcontext

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmylchreest/xpop/internal/color"
	"github.com/jmylchreest/xpop/internal/config"
	"github.com/jmylchreest/xpop/internal/xserver"
)

const (
	// DefaultFont is opened when gc.font is not set.
	DefaultFont = "-*-terminal-medium-r-*-*-14-*-*-*-*-*-iso8859-*"
	// DefaultLineWidth is used when gc.width is not set.
	DefaultLineWidth = 5
	// DefaultStyleName names the baseline style's graphics context.
	DefaultStyleName = "default"

	// ListKey holds the comma-separated style names to register.
	ListKey = "gc.list"

	gcMask = xserver.GCForeground | xserver.GCBackground | xserver.GCLineWidth | xserver.GCFont
)

var (
	// ErrNotConfigured is returned by LoadAll when gc.list is absent.
	ErrNotConfigured = errors.New("no styles configured")
	// ErrNoBaseline is returned when a style is registered before InitializeDefaults.
	ErrNoBaseline = errors.New("baseline style not initialized")
)

// Spec is the resolved attribute set of one style. Colors are allocated
// pixel values; ForegroundColor/BackgroundColor keep the parsed RGB when the
// pixel came from a color string.
type Spec struct {
	Name            string
	Foreground      uint32
	Background      uint32
	ForegroundColor *color.Value
	BackgroundColor *color.Value
	LineWidth       uint32
	Font            uint32
	FontName        string
}

// Handle is a registered style bound to its graphics context.
type Handle struct {
	Name string
	GC   uint32
	Spec Spec
}

// Registry owns the graphics contexts and fonts created for styles.
// It is not safe for concurrent use; the daemon drives it from one goroutine.
type Registry struct {
	conn   xserver.Conn
	screen xserver.Screen
	store  config.Store
	logger *slog.Logger

	baseline *Spec
	defaults Handle
	// entries is in registration order; lookups walk it backwards so the
	// newest entry with a name shadows older ones.
	entries []Handle
	fonts   []uint32
}

// New creates an empty registry.
func New(conn xserver.Conn, store config.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conn:   conn,
		screen: conn.Screen(),
		store:  store,
		logger: logger,
	}
}

// InitializeDefaults builds the baseline style from gc.font, gc.width, gc.fg
// and gc.bg and creates its graphics context under DefaultStyleName.
// Any server failure here is fatal to the registry.
func (r *Registry) InitializeDefaults() (Spec, error) {
	if r.baseline != nil {
		return *r.baseline, nil
	}

	spec := Spec{
		Name:       DefaultStyleName,
		Foreground: r.screen.WhitePixel,
		Background: r.screen.BlackPixel,
		LineWidth:  DefaultLineWidth,
		FontName:   DefaultFont,
	}

	if r.store.HasEntry("gc.font") {
		spec.FontName = r.store.GetString("gc.font")
	}
	font, err := r.openFont(spec.FontName)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to open default font: %w", err)
	}
	spec.Font = font

	if r.store.HasEntry("gc.width") {
		width, err := r.store.GetInt("gc.width")
		if err != nil || width < 0 {
			r.logger.Warn("invalid gc.width, using default", "value", r.store.GetString("gc.width"), "error", err)
		} else {
			spec.LineWidth = uint32(width)
		}
	}

	if r.store.HasEntry("gc.fg") {
		pixel, value, err := r.baselineColor(r.store.GetString("gc.fg"))
		if err != nil {
			return Spec{}, fmt.Errorf("failed to allocate default foreground: %w", err)
		}
		spec.Foreground, spec.ForegroundColor = pixel, value
	}

	if r.store.HasEntry("gc.bg") {
		pixel, value, err := r.baselineColor(r.store.GetString("gc.bg"))
		if err != nil {
			return Spec{}, fmt.Errorf("failed to allocate default background: %w", err)
		}
		spec.Background, spec.BackgroundColor = pixel, value
	}

	handle, err := r.createGC(spec)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to create default graphics context: %w", err)
	}
	r.baseline = &spec
	r.defaults = handle

	r.logger.Debug("baseline style initialized",
		"font", spec.FontName,
		"width", spec.LineWidth,
		"fg", spec.Foreground,
		"bg", spec.Background,
	)
	return spec, nil
}

// RegisterStyle registers name with attributes from gc.<name>.fg, .bg,
// .width and .font. Each missing or unusable attribute takes the baseline's
// value as of this call.
func (r *Registry) RegisterStyle(name string, baseline Spec) (Handle, error) {
	if r.baseline == nil {
		return Handle{}, ErrNoBaseline
	}

	spec := baseline
	spec.Name = name
	prefix := "gc." + name + "."

	if key := prefix + "fg"; r.store.HasEntry(key) {
		if pixel, value, ok := r.overrideColor(key); ok {
			spec.Foreground, spec.ForegroundColor = pixel, value
		}
	}

	if key := prefix + "bg"; r.store.HasEntry(key) {
		if pixel, value, ok := r.overrideColor(key); ok {
			spec.Background, spec.BackgroundColor = pixel, value
		}
	}

	if key := prefix + "width"; r.store.HasEntry(key) {
		width, err := r.store.GetInt(key)
		if err != nil || width < 0 {
			r.logger.Warn("invalid style width, using baseline", "key", key, "error", err)
		} else {
			spec.LineWidth = uint32(width)
		}
	}

	if key := prefix + "font"; r.store.HasEntry(key) {
		fontName := r.store.GetString(key)
		font, err := r.openFont(fontName)
		if err != nil {
			r.logger.Warn("failed to open style font, using baseline", "key", key, "font", fontName, "error", err)
		} else {
			spec.Font, spec.FontName = font, fontName
		}
	}

	handle, err := r.createGC(spec)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to create graphics context for style %q: %w", name, err)
	}

	r.logger.Debug("registered style", "name", name, "gc", handle.GC, "fg", spec.Foreground, "bg", spec.Background)
	return handle, nil
}

// LoadAll initializes the baseline and registers every style named in
// gc.list, in list order. It does nothing and returns ErrNotConfigured when
// gc.list is absent.
func (r *Registry) LoadAll() error {
	if !r.store.HasEntry(ListKey) {
		return ErrNotConfigured
	}

	baseline, err := r.InitializeDefaults()
	if err != nil {
		return err
	}

	for _, name := range strings.Split(r.store.GetString(ListKey), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, shadowed := r.Lookup(name); shadowed {
			r.logger.Debug("style registered twice, newest wins", "name", name)
		}
		if _, err := r.RegisterStyle(name, baseline); err != nil {
			return err
		}
	}

	r.logger.Info("styles loaded", "count", len(r.entries))
	return nil
}

// Lookup returns the most recently registered style called name.
func (r *Registry) Lookup(name string) (Handle, bool) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Name == name {
			return r.entries[i], true
		}
	}
	return Handle{}, false
}

// Default returns the baseline style's handle.
func (r *Registry) Default() (Handle, bool) {
	if r.baseline == nil {
		return Handle{}, false
	}
	return r.defaults, true
}

// Baseline returns the baseline spec, if initialized.
func (r *Registry) Baseline() (Spec, bool) {
	if r.baseline == nil {
		return Spec{}, false
	}
	return *r.baseline, true
}

// Styles returns every registered handle, newest first.
func (r *Registry) Styles() []Handle {
	out := make([]Handle, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
	}
	return out
}

// Len returns the number of registered graphics contexts, baseline included.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Teardown frees every graphics context and font the registry created.
// It may be called more than once.
func (r *Registry) Teardown() {
	for _, h := range r.entries {
		if err := r.conn.FreeGC(h.GC); err != nil {
			r.logger.Debug("failed to free graphics context", "name", h.Name, "error", err)
		}
	}
	for _, font := range r.fonts {
		if err := r.conn.CloseFont(font); err != nil {
			r.logger.Debug("failed to close font", "error", err)
		}
	}
	r.entries = nil
	r.fonts = nil
	r.baseline = nil
	r.defaults = Handle{}
}

func (r *Registry) createGC(spec Spec) (Handle, error) {
	id, err := r.conn.NewID()
	if err != nil {
		return Handle{}, err
	}
	values := []uint32{spec.Foreground, spec.Background, spec.LineWidth, spec.Font}
	if err := r.conn.CreateGC(id, r.screen.Root, gcMask, values); err != nil {
		return Handle{}, err
	}

	h := Handle{Name: spec.Name, GC: id, Spec: spec}
	r.entries = append(r.entries, h)
	return h, nil
}

func (r *Registry) openFont(name string) (uint32, error) {
	id, err := r.conn.NewID()
	if err != nil {
		return 0, err
	}
	if err := r.conn.OpenFont(id, name); err != nil {
		return 0, err
	}
	r.fonts = append(r.fonts, id)
	return id, nil
}

// baselineColor resolves a baseline color string. Unsupported lengths map to
// the screen's black pixel.
func (r *Registry) baselineColor(spec string) (uint32, *color.Value, error) {
	value, ok := color.Resolve(spec)
	if !ok {
		r.logger.Warn("unsupported color, using black", "color", spec)
		return r.screen.BlackPixel, nil, nil
	}
	pixel, err := r.conn.AllocColor(r.screen.Colormap, value.R, value.G, value.B)
	if err != nil {
		return 0, nil, err
	}
	return pixel, &value, nil
}

// overrideColor resolves a per-style color. Any failure reports !ok so the
// caller keeps the baseline.
func (r *Registry) overrideColor(key string) (uint32, *color.Value, bool) {
	spec := r.store.GetString(key)
	value, ok := color.Resolve(spec)
	if !ok {
		r.logger.Warn("unsupported style color, using baseline", "key", key, "color", spec)
		return 0, nil, false
	}
	pixel, err := r.conn.AllocColor(r.screen.Colormap, value.R, value.G, value.B)
	if err != nil {
		r.logger.Warn("failed to allocate style color, using baseline", "key", key, "error", err)
		return 0, nil, false
	}
	return pixel, &value, true
}
