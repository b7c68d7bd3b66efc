package xserver

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Latin1 re-encodes UTF-8 text for the core-protocol fonts, which index
// glyphs by ISO 8859-1 byte. Runes outside Latin-1 become '?'. The result
// has one byte per rune, so it can be cut at any length.
func Latin1(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b.WriteByte(c)
	}
	return b.String()
}
