package surface

// rotated presents a source turned clockwise by a number of quarter turns.
type rotated struct {
	src   Source
	turns int
}

// Rotate returns src turned clockwise by quarterTurns * 90 degrees. Any
// integer is accepted and reduced mod 4. Holes in a Masked source are kept.
func Rotate(src Source, quarterTurns int) Source {
	t := quarterTurns % 4
	if t < 0 {
		t += 4
	}
	if t == 0 {
		return src
	}
	return &rotated{src, t}
}

func (r *rotated) Width() int {
	if r.turns%2 == 1 {
		return r.src.Height()
	}
	return r.src.Width()
}

func (r *rotated) Height() int {
	if r.turns%2 == 1 {
		return r.src.Width()
	}
	return r.src.Height()
}

// at maps a rotated coordinate back onto the source.
func (r *rotated) at(x, y int) (int, int) {
	w, h := r.src.Width(), r.src.Height()
	switch r.turns {
	case 1:
		return y, h - 1 - x
	case 2:
		return w - 1 - x, h - 1 - y
	default:
		return w - 1 - y, x
	}
}

func (r *rotated) Pix(x, y int) uint8 {
	return r.src.Pix(r.at(x, y))
}

func (r *rotated) Present(x, y int) bool {
	m, ok := r.src.(Masked)
	if !ok {
		return true
	}
	return m.Present(r.at(x, y))
}

// tinted draws the set pixels of a source in one color.
type tinted struct {
	src Source
	c   uint8
}

// Tint returns a Masked source where every non-zero pixel of src reads as c
// and every zero pixel is a hole. It's how 1bpp glyphs get drawn in a color.
func Tint(src Source, c uint8) Masked {
	return &tinted{src, c}
}

func (t *tinted) Width() int {
	return t.src.Width()
}

func (t *tinted) Height() int {
	return t.src.Height()
}

func (t *tinted) Pix(x, y int) uint8 {
	return t.c
}

func (t *tinted) Present(x, y int) bool {
	if m, ok := t.src.(Masked); ok && !m.Present(x, y) {
		return false
	}
	return t.src.Pix(x, y) != 0
}
