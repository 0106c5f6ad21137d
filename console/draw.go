package console

import (
	"github.com/jmchacon/tac70/atlas"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/surface"
)

const (
	// VisibleCols and VisibleRows are the map cells that fill one screen.
	VisibleCols = memory.ScreenWidth / atlas.TileSize
	VisibleRows = memory.ScreenHeight / atlas.TileSize

	kFIXED_ADVANCE     = 6
	kFIXED_ADVANCE_ALT = 4
	kLINE_HEIGHT       = 8
	kLINE_HEIGHT_ALT   = 6
)

// SprOpts are the optional arguments of spr().
type SprOpts struct {
	Alpha  int // Color key, surface.NoAlpha for none.
	Scale  int
	Flip   surface.Flip
	Rotate int // Clockwise quarter turns, applied before Flip.
	W, H   int // Size in sprites.
}

// DefaultSpr returns the options spr() uses when a script passes none.
func DefaultSpr() SprOpts {
	return SprOpts{
		Alpha: surface.NoAlpha,
		Scale: 1,
		W:     1,
		H:     1,
	}
}

// Spr draws a W x H block of sprites starting at id with its top left at x,y.
// An id outside 0-511 draws nothing.
func (c *Console) Spr(id, x, y int, o SprOpts) {
	if _, ok := c.atlas.Sprite(id); !ok {
		return
	}
	var src surface.Source = c.atlas.Block(id, o.W, o.H)
	if o.Rotate != 0 {
		src = surface.Rotate(src, o.Rotate)
	}
	c.screen.Blit(x, y, src, o.Alpha, o.Flip, o.Scale)
}

// RemapFunc rewrites a map cell as it's drawn. It gets the stored tile id
// and the map cell and returns the sprite id (0-511), flip and rotation to draw.
type RemapFunc func(id uint8, x, y int) (int, surface.Flip, int)

// MapOpts are the arguments of map().
type MapOpts struct {
	X, Y   int // First map cell.
	W, H   int // Cells to draw.
	SX, SY int // Screen position.
	Alpha  int
	Scale  int
	Remap  RemapFunc
}

// DefaultMap returns the options map() uses when a script passes none: one
// full screen from cell 0,0.
func DefaultMap() MapOpts {
	return MapOpts{
		W:     VisibleCols,
		H:     VisibleRows,
		Alpha: surface.NoAlpha,
		Scale: 1,
	}
}

// Map draws a W x H region of the tile map as sprites. Cells outside the
// map draw tile 0. Cells that would land off screen are skipped and Remap
// isn't called for them.
func (c *Console) Map(o MapOpts) {
	if o.Scale <= 0 {
		return
	}
	step := atlas.TileSize * o.Scale
	i0, i1 := surface.Span(o.SX, o.W, step, memory.ScreenWidth)
	j0, j1 := surface.Span(o.SY, o.H, step, memory.ScreenHeight)
	for j := j0; j < j1; j++ {
		for i := i0; i < i1; i++ {
			mx, my := o.X+i, o.Y+j
			tile := c.Mget(mx, my)
			id := int(tile)
			var flip surface.Flip
			rot := 0
			if o.Remap != nil {
				id, flip, rot = o.Remap(tile, mx, my)
			}
			c.Spr(id, o.SX+i*step, o.SY+j*step, SprOpts{
				Alpha:  o.Alpha,
				Scale:  o.Scale,
				Flip:   flip,
				Rotate: rot,
				W:      1,
				H:      1,
			})
		}
	}
}

// PrintOpts are the optional arguments of print().
type PrintOpts struct {
	Color uint8
	Fixed bool // Every glyph advances the same amount.
	Scale int
	Small bool // Use the Alt font.
}

// DefaultPrint returns the options print() uses when a script passes none.
func DefaultPrint() PrintOpts {
	return PrintOpts{
		Color: 15,
		Scale: 1,
	}
}

// Print draws text at x,y and returns the width in pixels of the widest
// line. Codes 128 and up (including every byte of a multi byte UTF-8
// sequence) are skipped. '\n' starts a new line back at x.
func (c *Console) Print(text string, x, y int, o PrintOpts) int {
	style, fixed, line := atlas.Normal, kFIXED_ADVANCE, kLINE_HEIGHT
	if o.Small {
		style, fixed, line = atlas.Alt, kFIXED_ADVANCE_ALT, kLINE_HEIGHT_ALT
	}
	cx, cy := x, y
	widest := 0
	for i := 0; i < len(text); i++ {
		ch := int(text[i])
		if ch == '\n' {
			if cx-x > widest {
				widest = cx - x
			}
			cx = x
			cy += line * o.Scale
			continue
		}
		g, ok := c.atlas.Glyph(ch, style)
		if !ok {
			continue
		}
		src := surface.Tint(g, o.Color)
		if o.Fixed {
			c.screen.Blit(cx, cy, src, surface.NoAlpha, surface.FlipNone, o.Scale)
			cx += fixed * o.Scale
			continue
		}
		m, _ := c.atlas.Metric(ch, style)
		c.screen.Blit(cx-m.LeftPad*o.Scale, cy, src, surface.NoAlpha, surface.FlipNone, o.Scale)
		cx += (m.Width + 1) * o.Scale
	}
	if cx-x > widest {
		widest = cx - x
	}
	return widest
}
