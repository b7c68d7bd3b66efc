package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/xpop/internal/color"
	"github.com/jmylchreest/xpop/internal/gcontext"
	"github.com/jmylchreest/xpop/internal/model"
)

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"low", model.UrgencyLow, false},
		{"Normal", model.UrgencyNormal, false},
		{"CRITICAL", model.UrgencyCritical, false},
		{"urgent", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseUrgency(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintColor(t *testing.T) {
	var buf bytes.Buffer
	printColor(&buf, "#f00")
	assert.Contains(t, buf.String(), "#ff0000")
	assert.Contains(t, buf.String(), "rgb(65535,0,0)")

	buf.Reset()
	printColor(&buf, "12345")
	assert.Contains(t, buf.String(), "unsupported length 5")
}

func TestPrintStyles(t *testing.T) {
	red := color.MustResolve("f00")
	baseline := gcontext.Spec{Name: "default", Foreground: 0xffffff, LineWidth: 5, FontName: "fixed"}
	styles := []gcontext.Handle{
		{Name: "warn", GC: 2, Spec: gcontext.Spec{Name: "warn", Foreground: 0xff0000, ForegroundColor: &red, LineWidth: 3, FontName: "fixed"}},
		{Name: "default", GC: 1, Spec: baseline},
	}

	var buf bytes.Buffer
	printStyles(&buf, styles, baseline)
	out := buf.String()

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "SAME")
	assert.Contains(t, out, "#ff0000")
	assert.Contains(t, out, "px:ffffff")
	assert.Contains(t, out, "bg,font")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("warn")), bytes.Index(buf.Bytes(), []byte("default")))
}

func TestShared(t *testing.T) {
	baseline := gcontext.Spec{Name: "default", Foreground: 1, Background: 2, LineWidth: 5, FontName: "fixed"}

	tests := []struct {
		name string
		h    gcontext.Handle
		want string
	}{
		{"baseline itself", gcontext.Handle{Name: "default", Spec: baseline}, "-"},
		{"nothing overridden", gcontext.Handle{Name: "low", Spec: gcontext.Spec{Name: "low", Foreground: 1, Background: 2, LineWidth: 5, FontName: "fixed"}}, "fg,bg,width,font"},
		{"fg overridden", gcontext.Handle{Name: "warn", Spec: gcontext.Spec{Name: "warn", Foreground: 9, Background: 2, LineWidth: 5, FontName: "fixed"}}, "bg,width,font"},
		{"all overridden", gcontext.Handle{Name: "loud", Spec: gcontext.Spec{Name: "loud", Foreground: 9, Background: 9, LineWidth: 1, FontName: "9x15"}}, "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shared(tt.h, baseline))
		})
	}
}
