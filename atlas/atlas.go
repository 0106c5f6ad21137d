// Package atlas addresses the fixed size tiles of the sprite bank and the
// glyphs of the font region, and keeps the glyph metrics cache used for
// proportional text.
//
// Sprites are 8x8 at 4bpp (32 bytes) and are numbered 0-511 from the start
// of the sprite bank. Glyphs are 8x8 at 1bpp (8 bytes). The font region holds
// 128 Normal glyphs followed by 128 Alt glyphs.
package atlas

import (
	"fmt"

	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/surface"
)

// Style picks one of the two glyph sets.
type Style int

const (
	Normal Style = iota // 8x8 font.
	Alt                 // Small font.
)

func (s Style) String() string {
	switch s {
	case Normal:
		return "Normal"
	case Alt:
		return "Alt"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

const (
	// TileSize is the edge of a sprite or glyph in pixels.
	TileSize = 8
	// SheetWidth is how many sprites make up one row of the sprite sheet.
	SheetWidth = 16

	// SpaceWidth is the fixed advance of ' ' in the Normal font.
	SpaceWidth = 5
	// AltSpaceWidth is the fixed advance of ' ' in the Alt font.
	AltSpaceWidth = 3

	kSPACE = ' '
)

// Metric is the derived layout of one glyph. LeftPad is the count of blank
// columns before the first set pixel and Width the count of columns from
// there to the last set pixel.
type Metric struct {
	Width   int
	LeftPad int
}

// Atlas is a set of surface views over one arena plus the metrics cache.
type Atlas struct {
	sprites [memory.SpriteCount]*surface.Surface
	glyphs  [2][memory.GlyphCount]*surface.Surface
	metrics [2][memory.GlyphCount]Metric
}

// New builds the views over the sprite bank and font region of a and
// computes the metrics cache from whatever is in the font region now.
func New(a *memory.Arena) *Atlas {
	at := &Atlas{}
	bank := a.View(memory.SpriteBank)
	for i := range at.sprites {
		off := i * memory.SpriteBytes
		at.sprites[i] = mustSurface(bank[off:off+memory.SpriteBytes], 4)
	}
	font := a.View(memory.Font)
	for _, s := range []Style{Normal, Alt} {
		for c := 0; c < memory.GlyphCount; c++ {
			off := glyphOffset(c, s)
			at.glyphs[s][c] = mustSurface(font[off:off+memory.GlyphBytes], 1)
		}
	}
	at.Recompute()
	return at
}

func mustSurface(buf []uint8, bpp int) *surface.Surface {
	s, err := surface.New(buf, TileSize, TileSize, bpp)
	if err != nil {
		// Only reachable if the address map constants are broken.
		panic(err)
	}
	return s
}

// Sprite returns the surface for sprite id. It returns false for an id
// outside 0-511.
func (a *Atlas) Sprite(id int) (*surface.Surface, bool) {
	if id < 0 || id >= memory.SpriteCount {
		return nil, false
	}
	return a.sprites[id], true
}

// Glyph returns the surface for code in style s. It returns false for a code
// outside 0-127 or an unknown style.
func (a *Atlas) Glyph(code int, s Style) (*surface.Surface, bool) {
	if code < 0 || code >= memory.GlyphCount || (s != Normal && s != Alt) {
		return nil, false
	}
	return a.glyphs[s][code], true
}

// Metric returns the cached metric for code in style s.
func (a *Atlas) Metric(code int, s Style) (Metric, bool) {
	if code < 0 || code >= memory.GlyphCount || (s != Normal && s != Alt) {
		return Metric{}, false
	}
	return a.metrics[s][code], true
}

// Recompute re-derives every glyph metric from font memory. Nothing watches
// the font region so whoever writes to it must call this.
func (a *Atlas) Recompute() {
	for _, s := range []Style{Normal, Alt} {
		for c := 0; c < memory.GlyphCount; c++ {
			a.metrics[s][c] = measure(a.glyphs[s][c], c, s)
		}
	}
}

func measure(g *surface.Surface, code int, s Style) Metric {
	if code == kSPACE {
		if s == Alt {
			return Metric{Width: AltSpaceWidth}
		}
		return Metric{Width: SpaceWidth}
	}
	used := func(x int) bool {
		for y := 0; y < TileSize; y++ {
			if g.Pix(x, y) != 0 {
				return true
			}
		}
		return false
	}
	left := 0
	for left < TileSize && !used(left) {
		left++
	}
	right := 0
	for right < TileSize && !used(TileSize-1-right) {
		right++
	}
	w := TileSize - left - right
	if w < 0 {
		w = 0
	}
	return Metric{Width: w, LeftPad: left}
}

// block is a w x h run of sprites read as one source.
type block struct {
	a    *Atlas
	id   int
	w, h int
}

// Block returns a source covering w x h sprites starting at id and laid out
// the way the sprite sheet is: SheetWidth sprites per row. Tiles past the end
// of the bank (or before it) are holes.
func (a *Atlas) Block(id, w, h int) surface.Masked {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &block{a, id, w, h}
}

func (b *block) Width() int {
	return b.w * TileSize
}

func (b *block) Height() int {
	return b.h * TileSize
}

func (b *block) tile(x, y int) int {
	return b.id + x/TileSize + (y/TileSize)*SheetWidth
}

func (b *block) Pix(x, y int) uint8 {
	s, ok := b.a.Sprite(b.tile(x, y))
	if !ok {
		return 0
	}
	return s.Pix(x%TileSize, y%TileSize)
}

func (b *block) Present(x, y int) bool {
	_, ok := b.a.Sprite(b.tile(x, y))
	return ok
}
