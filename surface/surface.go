// Package surface implements a bit packed 2D pixel view over a run of
// console memory. The screen, every sprite and every font glyph are all
// surfaces that differ only in base, size and bits per pixel.
//
// Pixels are packed least significant bits first. For a surface of width W
// and depth B pixel (x,y) lives at bit (x + y*W) * B of the buffer.
package surface

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jmchacon/tac70/palette"
)

// NoAlpha disables color keying in Blit.
const NoAlpha = -1

// Flip selects mirroring for Blit. Values match the flip argument of spr().
type Flip uint8

const (
	FlipNone Flip = 0x00
	FlipH    Flip = 0x01 // Mirror left/right.
	FlipV    Flip = 0x02 // Mirror top/bottom.
	FlipHV        = FlipH | FlipV
)

// Source is anything Blit can read pixels from.
type Source interface {
	Width() int
	Height() int
	// Pix returns the pixel at x,y. Callers guarantee 0 <= x < Width() and 0 <= y < Height().
	Pix(x, y int) uint8
}

// Masked is an optional interface for sources with holes. Pixels where
// Present returns false are never written by Blit.
type Masked interface {
	Source
	Present(x, y int) bool
}

// Surface is a read/write lens over a byte buffer. It never owns the buffer.
type Surface struct {
	buf  []uint8
	w    int
	h    int
	bpp  int
	mask uint8
}

var _ = Source(&Surface{})

// New returns a surface of w x h pixels at bpp bits each over buf. bpp must
// evenly divide 8 and buf must be large enough to hold every pixel.
func New(buf []uint8, w, h, bpp int) (*Surface, error) {
	switch bpp {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("invalid bits per pixel %d: must be 1, 2, 4 or 8", bpp)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", w, h)
	}
	if need := (w*h*bpp + 7) / 8; len(buf) < need {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d at %d bpp (need %d)", len(buf), w, h, bpp, need)
	}
	return &Surface{
		buf:  buf,
		w:    w,
		h:    h,
		bpp:  bpp,
		mask: uint8(0xFF) >> uint(8-bpp),
	}, nil
}

// Width implements Source.
func (s *Surface) Width() int {
	return s.w
}

// Height implements Source.
func (s *Surface) Height() int {
	return s.h
}

// BPP returns the bits per pixel.
func (s *Surface) BPP() int {
	return s.bpp
}

// Mask returns the mask for a single pixel value, (1<<BPP)-1.
func (s *Surface) Mask() uint8 {
	return s.mask
}

// In reports whether x,y is on the surface.
func (s *Surface) In(x, y int) bool {
	return x >= 0 && x < s.w && y >= 0 && y < s.h
}

// Pix implements Source. There's no bounds check here since it's only
// used from loops that already clipped. Use In() first for untrusted coordinates.
func (s *Surface) Pix(x, y int) uint8 {
	bit := (x + y*s.w) * s.bpp
	return (s.buf[bit/8] >> uint(bit%8)) & s.mask
}

// SetPix sets x,y to v (masked to the pixel depth). Coordinates off the
// surface are silently ignored. Neighboring pixels in the same byte are untouched.
func (s *Surface) SetPix(x, y int, v uint8) {
	if !s.In(x, y) {
		return
	}
	bit := (x + y*s.w) * s.bpp
	shift := uint(bit % 8)
	b := s.buf[bit/8]
	b &^= s.mask << shift
	b |= (v & s.mask) << shift
	s.buf[bit/8] = b
}

// Clear sets every pixel to c.
func (s *Surface) Clear(c uint8) {
	c &= s.mask
	pattern := uint8(0x00)
	for i := 0; i < 8; i += s.bpp {
		pattern |= c << uint(i)
	}
	bits := s.w * s.h * s.bpp
	full := bits / 8
	for i := 0; i < full; i++ {
		s.buf[i] = pattern
	}
	// Only odd sized 1/2 bpp surfaces have a partial last byte.
	for p := full * 8 / s.bpp; p < s.w*s.h; p++ {
		s.SetPix(p%s.w, p/s.w, c)
	}
}

// Rect fills a w x h box at x,y with c, clipped to the surface.
func (s *Surface) Rect(x, y, w, h int, c uint8) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0, x1, y1 := clip(x, y, x+w, y+h, s.w, s.h)
	for j := y0; j < y1; j++ {
		for i := x0; i < x1; i++ {
			s.SetPix(i, j, c)
		}
	}
}

// RectB draws the one pixel outline of a w x h box at x,y with c.
func (s *Surface) RectB(x, y, w, h int, c uint8) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0, x1, y1 := clip(x, y+1, x+w, y+h-1, s.w, s.h)
	for i := x0; i < x1; i++ {
		s.SetPix(i, y, c)
		s.SetPix(i, y+h-1, c)
	}
	for j := y0; j < y1; j++ {
		s.SetPix(x, j, c)
		s.SetPix(x+w-1, j, c)
	}
}

func clip(x0, y0, x1, y1, w, h int) (int, int, int, int) {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return x0, y0, x1, y1
}

// Blit draws src with its top left corner at x,y.
//
// The source is walked exactly once in row major order. Each source pixel
// (read through the requested flips) equal to alpha is skipped, otherwise a
// scale x scale block of destination pixels is written in row major order.
// Overlapping blits therefore compose deterministically: last write wins.
// A scale of zero or less draws nothing. Pass NoAlpha to disable keying.
func (s *Surface) Blit(x, y int, src Source, alpha int, flip Flip, scale int) {
	if scale <= 0 {
		return
	}
	m, masked := src.(Masked)
	w, h := src.Width(), src.Height()
	// Only source pixels whose block lands on s are visited and each block
	// is cut down to its visible part.
	j0, j1 := Span(y, h, scale, s.h)
	i0, i1 := Span(x, w, scale, s.w)
	for j := j0; j < j1; j++ {
		sy := j
		if flip&FlipV != 0 {
			sy = h - 1 - j
		}
		dy := y + j*scale
		l0, l1 := cut(dy, scale, s.h)
		for i := i0; i < i1; i++ {
			sx := i
			if flip&FlipH != 0 {
				sx = w - 1 - i
			}
			if masked && !m.Present(sx, sy) {
				continue
			}
			p := src.Pix(sx, sy)
			if alpha >= 0 && int(p) == alpha {
				continue
			}
			dx := x + i*scale
			k0, k1 := cut(dx, scale, s.w)
			for l := l0; l < l1; l++ {
				for k := k0; k < k1; k++ {
					s.SetPix(dx+k, dy+l, p)
				}
			}
		}
	}
}

// Span returns the range [lo, hi) of the n cells of the given size laid out
// from pos that overlap [0, limit). The range is empty if none do.
func Span(pos, n, size, limit int) (int, int) {
	if n <= 0 || size <= 0 || pos >= limit {
		return 0, 0
	}
	lo := 0
	if pos < 0 {
		lo = -pos / size
	}
	hi := (limit - pos) / size
	if (limit-pos)%size != 0 {
		hi++
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// cut returns the offsets [lo, hi) of a size wide run starting at pos that
// fall inside [0, limit).
func cut(pos, size, limit int) (int, int) {
	lo, hi := 0, size
	if pos < 0 {
		lo = -pos
	}
	if hi > limit-pos {
		hi = limit - pos
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// ToRGBA resolves every pixel through p and returns W*H opaque colors in row major order.
func (s *Surface) ToRGBA(p *palette.Palette) []color.RGBA {
	out := make([]color.RGBA, 0, s.w*s.h)
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			out = append(out, p.Get(s.Pix(x, y)).Opaque())
		}
	}
	return out
}

// Image returns the surface resolved through p as an image for display or encoding.
func (s *Surface) Image(p *palette.Palette) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.w, s.h))
	for i, c := range s.ToRGBA(p) {
		off := i * 4
		img.Pix[off] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
		img.Pix[off+3] = c.A
	}
	return img
}
