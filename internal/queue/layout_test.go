package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/xpop/internal/config"
	"github.com/jmylchreest/xpop/internal/xserver"
)

func testLayout(anchor config.Position) Layout {
	return Layout{
		Anchor:         anchor,
		OffsetX:        10,
		OffsetY:        20,
		Width:          300,
		Height:         60,
		HorizontalStep: 5,
		VerticalStep:   70,
		Padding:        8,
		LineHeight:     16,
		ScreenWidth:    1920,
		ScreenHeight:   1080,
	}
}

func TestLayout_Offset(t *testing.T) {
	l := testLayout(config.PositionTopLeft)

	x, y := l.Offset(0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, y = l.Offset(3)
	assert.Equal(t, 15, x)
	assert.Equal(t, 210, y)
}

func TestLayout_Rect(t *testing.T) {
	tests := []struct {
		anchor config.Position
		index  int
		want   xserver.Rect
	}{
		{config.PositionTopLeft, 0, xserver.Rect{X: 10, Y: 20, Width: 300, Height: 60}},
		{config.PositionTopLeft, 2, xserver.Rect{X: 20, Y: 160, Width: 300, Height: 60}},
		{config.PositionTopRight, 0, xserver.Rect{X: 1610, Y: 20, Width: 300, Height: 60}},
		{config.PositionTopRight, 1, xserver.Rect{X: 1605, Y: 90, Width: 300, Height: 60}},
		{config.PositionBottomLeft, 0, xserver.Rect{X: 10, Y: 1000, Width: 300, Height: 60}},
		{config.PositionBottomLeft, 1, xserver.Rect{X: 15, Y: 930, Width: 300, Height: 60}},
		{config.PositionBottomRight, 1, xserver.Rect{X: 1605, Y: 930, Width: 300, Height: 60}},
	}

	for _, tt := range tests {
		t.Run(string(tt.anchor), func(t *testing.T) {
			assert.Equal(t, tt.want, testLayout(tt.anchor).Rect(tt.index))
		})
	}
}

func TestNewLayout(t *testing.T) {
	cfg := config.DefaultDaemonConfig().Display
	scr := xserver.Screen{Width: 800, Height: 600}

	l := NewLayout(cfg, scr)
	assert.Equal(t, config.PositionTopRight, l.Anchor)
	assert.Equal(t, 800, l.ScreenWidth)
	assert.Equal(t, cfg.VerticalStep, l.VerticalStep)
	assert.True(t, l.IsRight())
	assert.False(t, l.IsBottom())
}

func TestLayout_MaxLines(t *testing.T) {
	l := testLayout(config.PositionTopLeft)
	assert.Equal(t, 2, l.MaxLines()) // (60 - 16) / 16

	l.Height = 10
	assert.Equal(t, 1, l.MaxLines())

	l.LineHeight = 0
	assert.Equal(t, 1, l.MaxLines())
}
