// Package console ties the memory arena and all the views over it into one
// machine. The chips (surface, atlas, palette, input) are implemented in
// other packages and most of the logic here is the drawing API a script
// host calls once per step.
package console

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/golang/glog"

	"github.com/jmchacon/tac70/atlas"
	"github.com/jmchacon/tac70/cart"
	"github.com/jmchacon/tac70/input"
	"github.com/jmchacon/tac70/io"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/palette"
	"github.com/jmchacon/tac70/surface"
)

// Def defines the optional hooks a front-end wires into a Console.
type Def struct {
	// Gamepads are sampled into the player latches at the start of every
	// step. A nil entry leaves that latch alone.
	Gamepads [4]io.Port8
	// Mouse, if set, is sampled into the mouse register at the start of every step.
	Mouse func() input.MouseState
	// Now is the clock behind time(). Defaults to time.Now.
	Now func() time.Time
	// Trace is called with every trace() message after it's logged.
	Trace func(string)
	// FrameDone is called with the resolved screen when a step completes.
	FrameDone func(*image.NRGBA)
}

// Console is a loaded machine.
type Console struct {
	Title string
	Code  string

	arena    *memory.Arena
	screen   *surface.Surface
	palette  *palette.Palette
	atlas    *atlas.Atlas
	gamepads *input.Gamepads
	mouse    *input.Mouse
	tiles    []uint8
	flags    []uint8

	def    Def
	start  time.Time
	frames int
}

// New returns a Console running over img. img.Arena is used in place, not copied.
func New(img *MemoryImage, def *Def) (*Console, error) {
	if img == nil || img.Arena == nil {
		return nil, errors.New("memory image must have an arena")
	}
	d := Def{}
	if def != nil {
		d = *def
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	scr, err := surface.New(img.Arena.View(memory.Screen), memory.ScreenWidth, memory.ScreenHeight, memory.ScreenBPP)
	if err != nil {
		return nil, fmt.Errorf("can't create screen: %v", err)
	}
	c := &Console{
		Title:    img.Title,
		Code:     img.Code,
		arena:    img.Arena,
		screen:   scr,
		palette:  palette.New(img.Arena),
		atlas:    atlas.New(img.Arena),
		gamepads: input.NewGamepads(img.Arena),
		mouse:    input.NewMouse(img.Arena),
		tiles:    img.Arena.View(memory.Map),
		flags:    img.Arena.View(memory.Flags),
		def:      d,
	}
	c.start = d.Now()
	glog.Infof("console %q up: %d bytes of code", c.Title, len(c.Code))
	return c, nil
}

// Load reads, decodes and builds the cartridge at path and returns a Console for it.
func Load(path string, def *Def) (*Console, error) {
	cr, err := cart.Load(path)
	if err != nil {
		return nil, err
	}
	img, err := Build(cr)
	if err != nil {
		return nil, fmt.Errorf("can't build %s: %w", cr.Title, err)
	}
	return New(img, def)
}

// Arena returns the backing memory.
func (c *Console) Arena() *memory.Arena {
	return c.arena
}

// Screen returns the 4bpp screen surface.
func (c *Console) Screen() *surface.Surface {
	return c.screen
}

// Palette returns the palette view.
func (c *Console) Palette() *palette.Palette {
	return c.palette
}

// Atlas returns the sprite and font atlas.
func (c *Console) Atlas() *atlas.Atlas {
	return c.atlas
}

// Gamepads returns the gamepad latches.
func (c *Console) Gamepads() *input.Gamepads {
	return c.gamepads
}

// MouseRegister returns the mouse register.
func (c *Console) MouseRegister() *input.Mouse {
	return c.mouse
}

// Frames returns the number of completed steps.
func (c *Console) Frames() int {
	return c.frames
}

// BeginStep samples the front-end inputs into the registers.
func (c *Console) BeginStep() {
	for p, port := range c.def.Gamepads {
		if port != nil {
			c.gamepads.Latch(p, port)
		}
	}
	if c.def.Mouse != nil {
		c.mouse.Set(c.def.Mouse())
	}
}

// EndStep marks a step complete and hands the finished frame to FrameDone.
// Nothing outside a step ever sees a partially drawn screen.
func (c *Console) EndStep() {
	c.frames++
	if c.def.FrameDone != nil {
		c.def.FrameDone(c.Frame())
	}
}

// Frame returns the screen resolved through the palette.
func (c *Console) Frame() *image.NRGBA {
	return c.screen.Image(c.palette)
}

// Cls clears the screen to color.
func (c *Console) Cls(color uint8) {
	c.screen.Clear(color)
}

// Pix returns the screen pixel at x,y or 0 off screen.
func (c *Console) Pix(x, y int) uint8 {
	if !c.screen.In(x, y) {
		return 0
	}
	return c.screen.Pix(x, y)
}

// SetPix sets the screen pixel at x,y. Off screen is a no-op.
func (c *Console) SetPix(x, y int, color uint8) {
	c.screen.SetPix(x, y, color)
}

// Rect fills a box on screen.
func (c *Console) Rect(x, y, w, h int, color uint8) {
	c.screen.Rect(x, y, w, h, color)
}

// RectB outlines a box on screen.
func (c *Console) RectB(x, y, w, h int, color uint8) {
	c.screen.RectB(x, y, w, h, color)
}

// Mget returns the tile id at map cell x,y or 0 outside the map.
func (c *Console) Mget(x, y int) uint8 {
	if x < 0 || x >= memory.MapWidth || y < 0 || y >= memory.MapHeight {
		return 0
	}
	return c.tiles[x+y*memory.MapWidth]
}

// Mset sets the tile id at map cell x,y. Outside the map is a no-op.
func (c *Console) Mset(x, y int, id uint8) {
	if x < 0 || x >= memory.MapWidth || y < 0 || y >= memory.MapHeight {
		return
	}
	c.tiles[x+y*memory.MapWidth] = id
}

// Fget reports whether flag bit (0-7) of sprite id is set. Anything out of range reads false.
func (c *Console) Fget(id, bit int) bool {
	if id < 0 || id >= len(c.flags) || bit < 0 || bit > 7 {
		return false
	}
	return c.flags[id]&(1<<uint(bit)) != 0
}

// Fset sets or clears flag bit (0-7) of sprite id.
func (c *Console) Fset(id, bit int, v bool) {
	if id < 0 || id >= len(c.flags) || bit < 0 || bit > 7 {
		return
	}
	if v {
		c.flags[id] |= 1 << uint(bit)
		return
	}
	c.flags[id] &^= 1 << uint(bit)
}

// Btn reports whether linear button i is pressed.
func (c *Console) Btn(i int) bool {
	return c.gamepads.Btn(i)
}

// Mouse returns the unpacked mouse register.
func (c *Console) Mouse() input.MouseState {
	return c.mouse.State()
}

// Time returns milliseconds since the console was created.
func (c *Console) Time() int64 {
	return c.def.Now().Sub(c.start).Milliseconds()
}

// Trace logs msg and forwards it to Def.Trace.
func (c *Console) Trace(msg string) {
	glog.Infof("trace: %s", msg)
	if c.def.Trace != nil {
		c.def.Trace(msg)
	}
}

// Peek reads one byte of memory. Addresses past the arena read 0.
func (c *Console) Peek(addr uint32) uint8 {
	return c.arena.Read(addr)
}

// Poke writes one byte of memory. Addresses past the arena are ignored.
// Writes to font memory don't change text layout until SyncFont is called.
func (c *Console) Poke(addr uint32, v uint8) {
	c.arena.Write(addr, v)
}

// SyncFont recomputes glyph metrics after font memory changed.
func (c *Console) SyncFont() {
	c.atlas.Recompute()
}
