package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "10s", "1m", "1h30m", or integer milliseconds.
// A value of "0" or 0 means never expire.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for xpopd.
// Loaded from ~/.config/xpop/xpopd.toml. The [gc] tables of the same file are
// read through Keys().
type DaemonConfig struct {
	Display  DisplayConfig `toml:"display"`
	Timeouts TimeoutConfig `toml:"timeouts"`
	Styles   StyleConfig   `toml:"styles"`

	keys *MapStore
}

// DisplayConfig contains popup geometry settings.
type DisplayConfig struct {
	Position       string `toml:"position"`        // "top-right", "bottom-left", etc.
	OffsetX        int    `toml:"offset_x"`        // Pixels from the anchored screen edge
	OffsetY        int    `toml:"offset_y"`        // Pixels from the anchored screen edge
	Width          int    `toml:"width"`           // Popup width in pixels
	Height         int    `toml:"height"`          // Popup height in pixels
	VerticalStep   int    `toml:"vertical_step"`   // Distance between stacked popups
	HorizontalStep int    `toml:"horizontal_step"` // Sideways shift per stacked popup
	Padding        int    `toml:"padding"`         // Text inset from the popup border
	LineHeight     int    `toml:"line_height"`     // Baseline distance between text lines
}

// TimeoutConfig contains timeout settings per urgency level.
type TimeoutConfig struct {
	Low      Duration `toml:"low"`
	Normal   Duration `toml:"normal"`
	Critical Duration `toml:"critical"`
}

// StyleConfig maps urgency levels to gc style names.
type StyleConfig struct {
	Low      string `toml:"low"`
	Normal   string `toml:"normal"`
	Critical string `toml:"critical"`
}

// Position represents the screen corner popups stack from.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionBottomLeft,
		PositionBottomRight,
	}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Display: DisplayConfig{
			Position:       string(PositionTopRight),
			OffsetX:        10,
			OffsetY:        10,
			Width:          300,
			Height:         60,
			VerticalStep:   65,
			HorizontalStep: 0,
			Padding:        8,
			LineHeight:     16,
		},
		Timeouts: TimeoutConfig{
			Low:      Duration(5 * time.Second),
			Normal:   Duration(10 * time.Second),
			Critical: Duration(0), // Never expires
		},
		Styles: StyleConfig{
			Low:      "low",
			Normal:   "normal",
			Critical: "critical",
		},
		keys: NewMapStore(nil),
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "xpopd.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from path.
// An empty path means DaemonConfigPath(). A missing file yields the defaults.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		var err error
		path, err = DaemonConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseDaemonConfig(data)
}

// ParseDaemonConfig parses and validates TOML data on top of the defaults.
func ParseDaemonConfig(data []byte) (*DaemonConfig, error) {
	cfg := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	keys, err := ParseStore(data)
	if err != nil {
		return nil, err
	}
	cfg.keys = keys

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Keys returns the flat key-value view of the file the config came from.
func (c *DaemonConfig) Keys() *MapStore {
	if c.keys == nil {
		c.keys = NewMapStore(nil)
	}
	return c.keys
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	validPos := false
	for _, p := range ValidPositions() {
		if c.Display.Position == string(p) {
			validPos = true
			break
		}
	}
	if !validPos {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Display.Position, ValidPositions())
	}

	if c.Display.Width < 50 || c.Display.Width > 2000 {
		return fmt.Errorf("width must be between 50 and 2000, got %d", c.Display.Width)
	}
	if c.Display.Height < 16 || c.Display.Height > 1000 {
		return fmt.Errorf("height must be between 16 and 1000, got %d", c.Display.Height)
	}
	if c.Display.VerticalStep < 0 || c.Display.HorizontalStep < 0 {
		return fmt.Errorf("stacking steps must not be negative, got vertical=%d horizontal=%d",
			c.Display.VerticalStep, c.Display.HorizontalStep)
	}
	if c.Display.LineHeight < 1 {
		return fmt.Errorf("line_height must be positive, got %d", c.Display.LineHeight)
	}

	for _, d := range []Duration{c.Timeouts.Low, c.Timeouts.Normal, c.Timeouts.Critical} {
		if d < 0 {
			return fmt.Errorf("timeouts must not be negative, got %s", d.Duration())
		}
	}

	return nil
}

// GetTimeoutForUrgency returns the popup lifetime for the given urgency level.
// Zero means the popup stays until dismissed.
func (c *DaemonConfig) GetTimeoutForUrgency(urgency int) time.Duration {
	switch urgency {
	case 0: // Low
		return c.Timeouts.Low.Duration()
	case 2: // Critical
		return c.Timeouts.Critical.Duration()
	default: // Normal (1) or unknown
		return c.Timeouts.Normal.Duration()
	}
}

// GetStyleForUrgency returns the gc style name for the given urgency level.
func (c *DaemonConfig) GetStyleForUrgency(urgency int) string {
	switch urgency {
	case 0:
		return c.Styles.Low
	case 2:
		return c.Styles.Critical
	default:
		return c.Styles.Normal
	}
}
