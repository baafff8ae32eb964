// Package colors resolves printable color names to render colors.
package colors

import (
	"fmt"
	"image/color"
	"strings"
)

// Option is one selectable printing color
type Option struct {
	Value string
	Label string
	Hex   uint32
}

// Default is the neutral gray used for unknown or missing names
const Default uint32 = 0x718096

var options = []Option{
	{Value: "red", Label: "Red", Hex: 0xe53e3e},
	{Value: "green", Label: "Green", Hex: 0x38a169},
	{Value: "blue", Label: "Blue", Hex: 0x3182ce},
	{Value: "yellow", Label: "Yellow", Hex: 0xecc94b},
	{Value: "purple", Label: "Purple", Hex: 0x805ad5},
	{Value: "orange", Label: "Orange", Hex: 0xdd6b20},
	{Value: "pink", Label: "Pink", Hex: 0xd53f8c},
	{Value: "cyan", Label: "Cyan", Hex: 0x00b5d8},
	{Value: "gray", Label: "Gray", Hex: 0x718096},
}

var table = func() map[string]uint32 {
	m := make(map[string]uint32, len(options)+1)
	for _, o := range options {
		m[o.Value] = o.Hex
	}
	m["grey"] = m["gray"]
	return m
}()

// Options returns the selectable colors in display order
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Lookup resolves a name case-insensitively, ignoring surrounding space.
// The second result reports whether the name was known.
func Lookup(name string) (uint32, bool) {
	hex, ok := table[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Default, false
	}
	return hex, true
}

// Hex returns the 0xRRGGBB value for a color name
func Hex(name string) uint32 {
	hex, _ := Lookup(name)
	return hex
}

// CSS returns the color as an "rgb(r, g, b)" string
func CSS(name string) string {
	c := RGBA(name)
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// RGBA returns the opaque color for a name
func RGBA(name string) color.RGBA {
	return FromHex(Hex(name))
}

// FromHex converts 0xRRGGBB to an opaque color
func FromHex(hex uint32) color.RGBA {
	return color.RGBA{
		R: uint8(hex >> 16),
		G: uint8(hex >> 8),
		B: uint8(hex),
		A: 0xff,
	}
}

// String formats an option as "#rrggbb"
func (o Option) String() string {
	return fmt.Sprintf("#%06x", o.Hex)
}
