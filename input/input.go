// Package input implements the memory mapped peripheral registers: four
// gamepad latches (one byte per player) and the packed 4 byte mouse register.
//
// Mouse register layout:
//
//	byte 0: x
//	byte 1: y
//	byte 2: bit 0 left, bit 1 middle, bit 2 right, bits 3-7 scroll x bits 0-4
//	byte 3: bit 0 scroll x bit 5, bits 1-6 scroll y
//
// Both scroll deltas are signed 6 bit values.
package input

import (
	"fmt"

	"github.com/jmchacon/tac70/io"
	"github.com/jmchacon/tac70/memory"
)

const (
	// Players is the number of gamepad latches.
	Players = 4
	// ButtonsPerPlayer is the number of buttons in one latch.
	ButtonsPerPlayer = 8
	// MaxButton is the largest valid linear button index.
	MaxButton = Players*ButtonsPerPlayer - 1
)

// Button is the bit number of a button within a player latch.
type Button int

const (
	Up Button = iota
	Down
	Left
	Right
	A
	B
	X
	Y
)

// Index returns the linear index btn() uses for button b of player.
func Index(player int, b Button) int {
	return player*ButtonsPerPlayer + int(b)
}

// Gamepad bundles the physical inputs for one player. Any nil entry is
// simply never pressed.
type Gamepad struct {
	Up    io.PortIn1
	Down  io.PortIn1
	Left  io.PortIn1
	Right io.PortIn1
	A     io.PortIn1
	B     io.PortIn1
	X     io.PortIn1
	Y     io.PortIn1
}

var _ = io.Port8(&Gamepad{})

// Input implements io.Port8 returning the latch byte for this gamepad.
// Bits are active high (1 == pressed).
func (g *Gamepad) Input() uint8 {
	return io.Buttons8{g.Up, g.Down, g.Left, g.Right, g.A, g.B, g.X, g.Y}.Input()
}

// Gamepads is a view over the gamepad latch region.
type Gamepads struct {
	mem []uint8
}

// NewGamepads returns the gamepad view for the given arena.
func NewGamepads(a *memory.Arena) *Gamepads {
	return &Gamepads{
		mem: a.View(memory.Gamepads),
	}
}

func split(i int) (int, uint8, bool) {
	if i < 0 || i > MaxButton {
		return 0, 0, false
	}
	return i / ButtonsPerPlayer, uint8(1) << uint(i%ButtonsPerPlayer), true
}

// Btn reports whether linear button i (player i/8, bit i%8) is pressed.
// Indices outside 0-31 read as not pressed.
func (g *Gamepads) Btn(i int) bool {
	p, bit, ok := split(i)
	if !ok {
		return false
	}
	return g.mem[p]&bit != 0
}

// SetBtn sets or clears linear button i. Indices outside 0-31 are ignored.
func (g *Gamepads) SetBtn(i int, pressed bool) {
	p, bit, ok := split(i)
	if !ok {
		return
	}
	if pressed {
		g.mem[p] |= bit
		return
	}
	g.mem[p] &^= bit
}

// Latch samples port and stores it as the whole latch for player. A nil
// port releases every button. Players outside 0-3 are ignored.
func (g *Gamepads) Latch(player int, port io.Port8) {
	if player < 0 || player >= Players {
		return
	}
	v := uint8(0x00)
	if port != nil {
		v = port.Input()
	}
	g.mem[player] = v
}

// Player returns the raw latch byte for player or 0 if out of range.
func (g *Gamepads) Player(player int) uint8 {
	if player < 0 || player >= Players {
		return 0
	}
	return g.mem[player]
}

const (
	// MinScroll and MaxScroll bound a signed 6 bit scroll delta.
	MinScroll = -31
	MaxScroll = 31

	kMASK_SCROLL  = uint8(0x3F)
	kMASK_BUTTONS = uint8(0x07)
	kMASK_SX_LOW  = uint8(0x1F)

	kMOUSE_LEFT   = uint8(0x01)
	kMOUSE_MIDDLE = uint8(0x02)
	kMOUSE_RIGHT  = uint8(0x04)

	kShiftScrollX = 3
	kShiftScrollY = 1
)

// MouseState is the unpacked form of the mouse register.
type MouseState struct {
	X, Y   uint8
	Left   bool
	Middle bool
	Right  bool
	// ScrollX and ScrollY are clamped to MinScroll..MaxScroll when stored.
	ScrollX int
	ScrollY int
}

func (m MouseState) String() string {
	return fmt.Sprintf("(%d,%d) L:%t M:%t R:%t scroll:(%d,%d)", m.X, m.Y, m.Left, m.Middle, m.Right, m.ScrollX, m.ScrollY)
}

// EncodeScroll returns the 6 bit two's complement form of v. Values outside
// the representable range are clamped first.
func EncodeScroll(v int) uint8 {
	if v < MinScroll {
		v = MinScroll
	}
	if v > MaxScroll {
		v = MaxScroll
	}
	return uint8(v) & kMASK_SCROLL
}

// DecodeScroll sign extends a 6 bit field (upper bits ignored).
func DecodeScroll(f uint8) int {
	return int(int8(f<<2) >> 2)
}

// Mouse is a view over the mouse register.
type Mouse struct {
	mem []uint8
}

// NewMouse returns the mouse view for the given arena.
func NewMouse(a *memory.Arena) *Mouse {
	return &Mouse{
		mem: a.View(memory.Mouse),
	}
}

// Set packs s into the register. Front-ends call this once per step.
func (m *Mouse) Set(s MouseState) {
	btn := uint8(0x00)
	if s.Left {
		btn |= kMOUSE_LEFT
	}
	if s.Middle {
		btn |= kMOUSE_MIDDLE
	}
	if s.Right {
		btn |= kMOUSE_RIGHT
	}
	sx := EncodeScroll(s.ScrollX)
	sy := EncodeScroll(s.ScrollY)
	m.mem[0] = s.X
	m.mem[1] = s.Y
	m.mem[2] = btn | (sx&kMASK_SX_LOW)<<kShiftScrollX
	m.mem[3] = sx>>5 | sy<<kShiftScrollY
}

// Pos returns the x,y position.
func (m *Mouse) Pos() (uint8, uint8) {
	return m.mem[0], m.mem[1]
}

// Buttons returns the left, middle and right button flags.
func (m *Mouse) Buttons() (bool, bool, bool) {
	b := m.mem[2] & kMASK_BUTTONS
	return b&kMOUSE_LEFT != 0, b&kMOUSE_MIDDLE != 0, b&kMOUSE_RIGHT != 0
}

// ScrollX returns the signed horizontal scroll delta.
func (m *Mouse) ScrollX() int {
	return DecodeScroll(m.mem[2]>>kShiftScrollX | (m.mem[3]&0x01)<<5)
}

// ScrollY returns the signed vertical scroll delta.
func (m *Mouse) ScrollY() int {
	return DecodeScroll(m.mem[3] >> kShiftScrollY)
}

// State unpacks the whole register.
func (m *Mouse) State() MouseState {
	x, y := m.Pos()
	l, mid, r := m.Buttons()
	return MouseState{
		X:       x,
		Y:       y,
		Left:    l,
		Middle:  mid,
		Right:   r,
		ScrollX: m.ScrollX(),
		ScrollY: m.ScrollY(),
	}
}
