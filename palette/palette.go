// Package palette implements the 16 entry color table used to resolve pixel
// indices into displayable colors. The table lives in console memory as 16
// packed RGB triples, alpha is never stored.
package palette

import (
	"fmt"
	"image/color"

	"github.com/jmchacon/tac70/memory"
)

const (
	// Colors is the number of palette entries.
	Colors = memory.PaletteColors

	kMASK_INDEX = uint8(0x0F)
)

// RGB is a single palette entry.
type RGB struct {
	R, G, B uint8
}

// Opaque returns the color with a fully opaque alpha.
func (c RGB) Opaque() color.RGBA {
	return color.RGBA{c.R, c.G, c.B, 0xFF}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%.2X%.2X%.2X", c.R, c.G, c.B)
}

// Default is the power on palette.
var Default = [Colors]RGB{
	{0x1A, 0x1C, 0x2C},
	{0x5D, 0x27, 0x5D},
	{0xB1, 0x3E, 0x53},
	{0xEF, 0x7D, 0x57},
	{0xFF, 0xCD, 0x75},
	{0xA7, 0xF0, 0x70},
	{0x38, 0xB7, 0x64},
	{0x25, 0x71, 0x79},
	{0x29, 0x36, 0x6F},
	{0x3B, 0x5D, 0xC9},
	{0x41, 0xA6, 0xF6},
	{0x73, 0xEF, 0xF7},
	{0xF4, 0xF4, 0xF4},
	{0x94, 0xB0, 0xC2},
	{0x56, 0x6C, 0x86},
	{0x33, 0x3C, 0x57},
}

// Palette is a view over the palette region of the arena.
type Palette struct {
	mem []uint8
}

// New returns the palette view for the given arena.
func New(a *memory.Arena) *Palette {
	return &Palette{
		mem: a.View(memory.Palette),
	}
}

// Get returns entry i. Only the low 4 bits of i are used so this never
// faults even if callers forget to mask.
func (p *Palette) Get(i uint8) RGB {
	off := int(i&kMASK_INDEX) * 3
	return RGB{p.mem[off], p.mem[off+1], p.mem[off+2]}
}

// Set updates entry i (low 4 bits only).
func (p *Palette) Set(i uint8, c RGB) {
	off := int(i&kMASK_INDEX) * 3
	p.mem[off] = c.R
	p.mem[off+1] = c.G
	p.mem[off+2] = c.B
}

// Seed writes the Default palette into the arena.
func Seed(a *memory.Arena) {
	p := New(a)
	for i, c := range Default {
		p.Set(uint8(i), c)
	}
}

// Nearest returns the index of the entry closest to c by squared RGB
// distance. Ties go to the lower index.
func (p *Palette) Nearest(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	best, bestDist := uint8(0), -1
	for i := 0; i < Colors; i++ {
		e := p.Get(uint8(i))
		dr := int(r>>8) - int(e.R)
		dg := int(g>>8) - int(e.G)
		db := int(b>>8) - int(e.B)
		if d := dr*dr + dg*dg + db*db; bestDist < 0 || d < bestDist {
			best, bestDist = uint8(i), d
		}
	}
	return best
}
