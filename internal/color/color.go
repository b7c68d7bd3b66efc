// Package color parses the short hex color strings used in gc.* configuration
// into 16-bit-per-channel RGB values suitable for X11 color allocation.
package color

import "fmt"

const (
	// nibbleScale stretches a 4-bit value over a 16-bit channel (0xF * 4369 = 0xFFFF).
	nibbleScale = 4369
	// byteScale stretches an 8-bit value over a 16-bit channel (0xFF * 257 = 0xFFFF).
	byteScale = 257
)

// Value is an RGB triple with 16-bit channels, as X11 AllocColor expects.
type Value struct {
	R, G, B uint16
}

// Black is the zero value.
var Black = Value{}

// Hex returns the value as #rrggbb (channels truncated to 8 bits).
func (v Value) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", v.R>>8, v.G>>8, v.B>>8)
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", v.R, v.G, v.B)
}

// Resolve parses a color spec. Accepted forms, each with an optional leading
// marker character such as '#':
//
//	a       -> #aaaaaa
//	abc     -> #aabbcc
//	a1b2c3  -> #a1b2c3
//
// Characters that are not hex digits count as 0. Resolve reports false only
// when the length matches none of the forms; the caller picks the fallback.
func Resolve(spec string) (Value, bool) {
	s := spec
	switch len(s) {
	case 2, 4, 7:
		s = s[1:]
	}

	switch len(s) {
	case 1:
		v := uint16(nibble(s[0])) * nibbleScale
		return Value{R: v, G: v, B: v}, true
	case 3:
		return Value{
			R: uint16(nibble(s[0])) * nibbleScale,
			G: uint16(nibble(s[1])) * nibbleScale,
			B: uint16(nibble(s[2])) * nibbleScale,
		}, true
	case 6:
		return Value{
			R: pair(s[0], s[1]) * byteScale,
			G: pair(s[2], s[3]) * byteScale,
			B: pair(s[4], s[5]) * byteScale,
		}, true
	default:
		return Black, false
	}
}

// MustResolve is Resolve with unsupported lengths mapped to Black.
func MustResolve(spec string) Value {
	v, _ := Resolve(spec)
	return v
}

func pair(hi, lo byte) uint16 {
	return uint16(nibble(hi))<<4 | uint16(nibble(lo))
}

func nibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
