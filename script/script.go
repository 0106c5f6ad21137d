// Package script runs cartridge code on an embedded Lua interpreter. The
// drawing and input API of the console is bound as Lua globals and the
// code's TIC function is called once per step.
package script

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	lua "github.com/yuin/gopher-lua"

	"github.com/jmchacon/tac70/console"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/surface"
)

const (
	kTIC  = "TIC"
	kBOOT = "BOOT"
)

// ErrNoTIC is returned when the code doesn't define a global TIC function.
var ErrNoTIC = errors.New("code doesn't define a TIC function")

// Host owns a Lua state bound to one console.
type Host struct {
	l   *lua.LState
	con *console.Console
}

// New loads con.Code into a fresh interpreter, binds the console API and
// runs BOOT once if the code defines it.
func New(con *console.Console) (*Host, error) {
	h := &Host{
		l:   lua.NewState(),
		con: con,
	}
	h.bind()
	if err := h.l.DoString(con.Code); err != nil {
		h.l.Close()
		return nil, fmt.Errorf("can't load code for %s: %w", con.Title, err)
	}
	if _, ok := h.l.GetGlobal(kTIC).(*lua.LFunction); !ok {
		h.l.Close()
		return nil, ErrNoTIC
	}
	if boot, ok := h.l.GetGlobal(kBOOT).(*lua.LFunction); ok {
		if err := h.l.CallByParam(lua.P{Fn: boot, NRet: 0, Protect: true}); err != nil {
			h.l.Close()
			return nil, fmt.Errorf("BOOT failed: %w", err)
		}
	}
	glog.Infof("script host ready for %s", con.Title)
	return h, nil
}

// Step runs one frame: inputs are latched, TIC is called and the finished
// frame is handed to the console. On error the frame isn't completed.
// TIC is looked up on every step so code may replace it.
func (h *Host) Step() error {
	tic, ok := h.l.GetGlobal(kTIC).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("frame %d: %w", h.con.Frames(), ErrNoTIC)
	}
	h.con.BeginStep()
	if err := h.l.CallByParam(lua.P{Fn: tic, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("TIC failed on frame %d: %w", h.con.Frames(), err)
	}
	h.con.EndStep()
	return nil
}

// Close releases the interpreter.
func (h *Host) Close() {
	h.l.Close()
}

func (h *Host) bind() {
	for name, fn := range map[string]lua.LGFunction{
		"cls":   h.cls,
		"pix":   h.pix,
		"rect":  h.rect,
		"rectb": h.rectb,
		"mget":  h.mget,
		"mset":  h.mset,
		"spr":   h.spr,
		"map":   h.drawMap,
		"print": h.print,
		"btn":   h.btn,
		"time":  h.time,
		"trace": h.trace,
		"peek":  h.peek,
		"poke":  h.poke,
		"mouse": h.mouse,
		"fget":  h.fget,
		"fset":  h.fset,
	} {
		h.l.SetGlobal(name, h.l.NewFunction(fn))
	}
}

func color(l *lua.LState, n int, def int) uint8 {
	return uint8(l.OptInt(n, def))
}

func (h *Host) cls(l *lua.LState) int {
	h.con.Cls(color(l, 1, 0))
	return 0
}

// pix(x, y) reads, pix(x, y, color) writes.
func (h *Host) pix(l *lua.LState) int {
	x, y := l.CheckInt(1), l.CheckInt(2)
	if l.Get(3) == lua.LNil {
		l.Push(lua.LNumber(h.con.Pix(x, y)))
		return 1
	}
	h.con.SetPix(x, y, color(l, 3, 0))
	return 0
}

func (h *Host) rect(l *lua.LState) int {
	h.con.Rect(l.CheckInt(1), l.CheckInt(2), l.CheckInt(3), l.CheckInt(4), color(l, 5, 0))
	return 0
}

func (h *Host) rectb(l *lua.LState) int {
	h.con.RectB(l.CheckInt(1), l.CheckInt(2), l.CheckInt(3), l.CheckInt(4), color(l, 5, 0))
	return 0
}

func (h *Host) mget(l *lua.LState) int {
	l.Push(lua.LNumber(h.con.Mget(l.CheckInt(1), l.CheckInt(2))))
	return 1
}

func (h *Host) mset(l *lua.LState) int {
	h.con.Mset(l.CheckInt(1), l.CheckInt(2), uint8(l.CheckInt(3)))
	return 0
}

// spr(id, x, y, [alpha=-1], [scale=1], [flip=0], [rotate=0], [w=1], [h=1])
func (h *Host) spr(l *lua.LState) int {
	d := console.DefaultSpr()
	h.con.Spr(l.CheckInt(1), l.CheckInt(2), l.CheckInt(3), console.SprOpts{
		Alpha:  l.OptInt(4, d.Alpha),
		Scale:  l.OptInt(5, d.Scale),
		Flip:   surface.Flip(l.OptInt(6, int(d.Flip))),
		Rotate: l.OptInt(7, d.Rotate),
		W:      l.OptInt(8, d.W),
		H:      l.OptInt(9, d.H),
	})
	return 0
}

// map([x=0], [y=0], [w=30], [h=17], [sx=0], [sy=0], [alpha=-1], [scale=1], [remap])
//
// remap is called as remap(id, x, y) and returns id, [flip], [rotate].
func (h *Host) drawMap(l *lua.LState) int {
	d := console.DefaultMap()
	o := console.MapOpts{
		X:     l.OptInt(1, d.X),
		Y:     l.OptInt(2, d.Y),
		W:     l.OptInt(3, d.W),
		H:     l.OptInt(4, d.H),
		SX:    l.OptInt(5, d.SX),
		SY:    l.OptInt(6, d.SY),
		Alpha: l.OptInt(7, d.Alpha),
		Scale: l.OptInt(8, d.Scale),
	}
	if fn := l.OptFunction(9, nil); fn != nil {
		o.Remap = func(id uint8, x, y int) (int, surface.Flip, int) {
			// Unprotected so a Lua error unwinds to the TIC call.
			l.CallByParam(lua.P{Fn: fn, NRet: 3, Protect: false}, lua.LNumber(id), lua.LNumber(x), lua.LNumber(y))
			nid := lua.LVAsNumber(l.Get(-3))
			flip := lua.LVAsNumber(l.Get(-2))
			rot := lua.LVAsNumber(l.Get(-1))
			l.Pop(3)
			return int(nid), surface.Flip(int(flip)), int(rot)
		}
	}
	h.con.Map(o)
	return 0
}

// print(text, [x=0], [y=0], [color=15], [fixed=false], [scale=1], [small=false]) -> width
func (h *Host) print(l *lua.LState) int {
	d := console.DefaultPrint()
	text := l.ToStringMeta(l.Get(1)).String()
	w := h.con.Print(text, l.OptInt(2, 0), l.OptInt(3, 0), console.PrintOpts{
		Color: color(l, 4, int(d.Color)),
		Fixed: l.OptBool(5, d.Fixed),
		Scale: l.OptInt(6, d.Scale),
		Small: l.OptBool(7, d.Small),
	})
	l.Push(lua.LNumber(w))
	return 1
}

func (h *Host) btn(l *lua.LState) int {
	l.Push(lua.LBool(h.con.Btn(l.CheckInt(1))))
	return 1
}

func (h *Host) time(l *lua.LState) int {
	l.Push(lua.LNumber(h.con.Time()))
	return 1
}

func (h *Host) trace(l *lua.LState) int {
	h.con.Trace(l.ToStringMeta(l.Get(1)).String())
	return 0
}

func addr(l *lua.LState, n int) (uint32, bool) {
	a := l.CheckInt(n)
	if a < 0 {
		return 0, false
	}
	return uint32(a), true
}

func (h *Host) peek(l *lua.LState) int {
	v := uint8(0)
	if a, ok := addr(l, 1); ok {
		v = h.con.Peek(a)
	}
	l.Push(lua.LNumber(v))
	return 1
}

// poke(addr, value). A write into font memory refreshes the glyph metrics
// so the next print() sees the new glyph.
func (h *Host) poke(l *lua.LState) int {
	a, ok := addr(l, 1)
	v := uint8(l.CheckInt(2))
	if !ok {
		return 0
	}
	h.con.Poke(a, v)
	if memory.Font.Contains(a) {
		h.con.SyncFont()
	}
	return 0
}

// mouse() -> x, y, left, middle, right, scrollx, scrolly
func (h *Host) mouse(l *lua.LState) int {
	m := h.con.Mouse()
	l.Push(lua.LNumber(m.X))
	l.Push(lua.LNumber(m.Y))
	l.Push(lua.LBool(m.Left))
	l.Push(lua.LBool(m.Middle))
	l.Push(lua.LBool(m.Right))
	l.Push(lua.LNumber(m.ScrollX))
	l.Push(lua.LNumber(m.ScrollY))
	return 7
}

func (h *Host) fget(l *lua.LState) int {
	l.Push(lua.LBool(h.con.Fget(l.CheckInt(1), l.CheckInt(2))))
	return 1
}

func (h *Host) fset(l *lua.LState) int {
	h.con.Fset(l.CheckInt(1), l.CheckInt(2), lua.LVAsBool(l.Get(3)))
	return 0
}
