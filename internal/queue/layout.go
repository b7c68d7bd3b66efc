package queue

import (
	"github.com/jmylchreest/xpop/internal/config"
	"github.com/jmylchreest/xpop/internal/xserver"
)

// Layout places popups on screen. Slot 0 sits in the anchored corner; each
// following slot is shifted by (HorizontalStep, VerticalStep) away from it.
type Layout struct {
	Anchor         config.Position
	OffsetX        int
	OffsetY        int
	Width          int
	Height         int
	HorizontalStep int
	VerticalStep   int
	Padding        int
	LineHeight     int
	ScreenWidth    int
	ScreenHeight   int
}

// NewLayout builds a Layout from the display configuration for scr.
func NewLayout(cfg config.DisplayConfig, scr xserver.Screen) Layout {
	return Layout{
		Anchor:         config.Position(cfg.Position),
		OffsetX:        cfg.OffsetX,
		OffsetY:        cfg.OffsetY,
		Width:          cfg.Width,
		Height:         cfg.Height,
		HorizontalStep: cfg.HorizontalStep,
		VerticalStep:   cfg.VerticalStep,
		Padding:        cfg.Padding,
		LineHeight:     cfg.LineHeight,
		ScreenWidth:    scr.Width,
		ScreenHeight:   scr.Height,
	}
}

// Offset returns the stacking offset of slot index from the anchor.
func (l Layout) Offset(index int) (int, int) {
	return index * l.HorizontalStep, index * l.VerticalStep
}

// Rect returns the screen rectangle of slot index.
func (l Layout) Rect(index int) xserver.Rect {
	dx, dy := l.Offset(index)

	x := l.OffsetX + dx
	if l.IsRight() {
		x = l.ScreenWidth - l.OffsetX - l.Width - dx
	}

	y := l.OffsetY + dy
	if l.IsBottom() {
		y = l.ScreenHeight - l.OffsetY - l.Height - dy
	}

	return xserver.Rect{X: x, Y: y, Width: l.Width, Height: l.Height}
}

// IsBottom returns true if popups stack upwards from the bottom edge.
func (l Layout) IsBottom() bool {
	return l.Anchor == config.PositionBottomLeft || l.Anchor == config.PositionBottomRight
}

// IsRight returns true if popups are anchored to the right edge.
func (l Layout) IsRight() bool {
	return l.Anchor == config.PositionTopRight || l.Anchor == config.PositionBottomRight
}

// MaxLines returns how many text lines fit inside a popup.
func (l Layout) MaxLines() int {
	if l.LineHeight <= 0 {
		return 1
	}
	n := (l.Height - 2*l.Padding) / l.LineHeight
	if n < 1 {
		return 1
	}
	return n
}
