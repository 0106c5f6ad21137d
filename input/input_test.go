package input

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/jmchacon/tac70/memory"
)

type swtch bool

func (s *swtch) Input() bool {
	return bool(*s)
}

func TestButtons(t *testing.T) {
	a := memory.New()
	g := NewGamepads(a)
	for i := 0; i <= MaxButton; i++ {
		g.SetBtn(i, true)
		if !g.Btn(i) {
			t.Fatalf("Btn(%d) false after SetBtn(true)", i)
		}
		if got, want := a.Read(memory.Gamepads.Addr+uint32(i/8)), uint8(1)<<uint(i%8); got != want {
			t.Fatalf("latch %d = %.2X after pressing %d, want %.2X", i/8, got, i, want)
		}
		// No other button in any latch changed.
		for j := 0; j <= MaxButton; j++ {
			if j != i && g.Btn(j) {
				t.Fatalf("Btn(%d) pressed after SetBtn(%d)", j, i)
			}
		}
		g.SetBtn(i, false)
		if g.Btn(i) {
			t.Fatalf("Btn(%d) still pressed after release", i)
		}
	}
}

func TestButtonsOutOfRange(t *testing.T) {
	a := memory.New()
	g := NewGamepads(a)
	for _, i := range []int{-1, 32, 255} {
		g.SetBtn(i, true)
		if g.Btn(i) {
			t.Errorf("Btn(%d) = true, want false", i)
		}
	}
	for _, r := range memory.Regions() {
		for _, b := range a.View(r) {
			if b != 0 {
				t.Fatalf("out of range SetBtn wrote into %s", r)
			}
		}
	}
}

func TestLatch(t *testing.T) {
	g := NewGamepads(memory.New())
	up, a, y := swtch(true), swtch(false), swtch(true)
	pad := &Gamepad{Up: &up, A: &a, Y: &y}
	g.Latch(2, pad)
	if got, want := g.Player(2), uint8(0x81); got != want {
		t.Errorf("player 2 latch = %.2X, want %.2X", got, want)
	}
	if !g.Btn(Index(2, Up)) || g.Btn(Index(2, A)) || !g.Btn(Index(2, Y)) {
		t.Errorf("Btn mismatch for latch %.2X", g.Player(2))
	}
	a = true
	up = false
	g.Latch(2, pad)
	if got, want := g.Player(2), uint8(0x90); got != want {
		t.Errorf("player 2 latch after change = %.2X, want %.2X", got, want)
	}
	g.Latch(2, nil)
	if got := g.Player(2); got != 0 {
		t.Errorf("nil port latch = %.2X, want 0", got)
	}
	g.Latch(4, pad)
	g.Latch(-1, pad)
	if got := g.Player(4); got != 0 {
		t.Errorf("Player(4) = %d, want 0", got)
	}
}

func TestScrollRoundTrip(t *testing.T) {
	for s := MinScroll; s <= MaxScroll; s++ {
		if got := DecodeScroll(EncodeScroll(s)); got != s {
			t.Errorf("DecodeScroll(EncodeScroll(%d)) = %d", s, got)
		}
	}
	// Clamped at the edge instead of wrapping.
	tests := []struct {
		in, want int
	}{
		{32, 31},
		{-32, -31},
		{1000, 31},
		{-1000, -31},
	}
	for _, test := range tests {
		if got := DecodeScroll(EncodeScroll(test.in)); got != test.want {
			t.Errorf("scroll %d stored as %d, want %d", test.in, got, test.want)
		}
	}
}

func TestMouseRegister(t *testing.T) {
	tests := []struct {
		name  string
		state MouseState
		bytes []uint8
	}{
		{
			name:  "zero",
			bytes: []uint8{0x00, 0x00, 0x00, 0x00},
		},
		{
			name:  "position and buttons",
			state: MouseState{X: 239, Y: 135, Left: true, Right: true},
			bytes: []uint8{239, 135, 0x05, 0x00},
		},
		{
			name:  "scroll x -1",
			state: MouseState{ScrollX: -1},
			// 0x3F: low 5 bits in byte 2 high bits, sign in byte 3 bit 0.
			bytes: []uint8{0x00, 0x00, 0xF8, 0x01},
		},
		{
			name:  "scroll y -31",
			state: MouseState{Middle: true, ScrollY: -31},
			// -31 == 0x21 in 6 bits.
			bytes: []uint8{0x00, 0x00, 0x02, 0x42},
		},
		{
			name:  "everything",
			state: MouseState{X: 1, Y: 2, Left: true, Middle: true, Right: true, ScrollX: 31, ScrollY: 5},
			bytes: []uint8{0x01, 0x02, 0xFF, 0x0A},
		},
	}
	for _, test := range tests {
		a := memory.New()
		m := NewMouse(a)
		m.Set(test.state)
		if diff := deep.Equal(a.View(memory.Mouse), test.bytes); diff != nil {
			t.Errorf("%s: register bytes: %v", test.name, diff)
		}
		if diff := deep.Equal(m.State(), test.state); diff != nil {
			t.Errorf("%s: State(): %v", test.name, diff)
		}
	}
}

func TestMouseAllScrolls(t *testing.T) {
	m := NewMouse(memory.New())
	for sx := MinScroll; sx <= MaxScroll; sx++ {
		for sy := MinScroll; sy <= MaxScroll; sy++ {
			m.Set(MouseState{X: 7, Left: true, ScrollX: sx, ScrollY: sy})
			if got, want := [2]int{m.ScrollX(), m.ScrollY()}, [2]int{sx, sy}; got != want {
				t.Fatalf("scroll = %v, want %v", got, want)
			}
			if l, mid, r := m.Buttons(); !l || mid || r {
				t.Fatalf("scroll %d,%d leaked into buttons: %t %t %t", sx, sy, l, mid, r)
			}
			if x, _ := m.Pos(); x != 7 {
				t.Fatalf("scroll %d,%d leaked into x: %d", sx, sy, x)
			}
		}
	}
}
