package script

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/image/draw"

	"github.com/jmchacon/tac70/cart"
	"github.com/jmchacon/tac70/console"
	"github.com/jmchacon/tac70/input"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/palette"
)

var (
	testImageDir    = flag.String("test_image_dir", "", "If set will generate images from tests to this directory")
	testImageScaler = flag.Float64("test_image_scaler", 1.0, "The amount to rescale the output PNGs")
)

func writeImage(t *testing.T, name string, i *image.NRGBA) {
	t.Helper()
	if *testImageDir == "" {
		return
	}
	n := i
	if *testImageScaler != 1.0 {
		d := image.NewNRGBA(image.Rect(0, 0, int(float64(i.Bounds().Max.X)**testImageScaler), int(float64(i.Bounds().Max.Y)**testImageScaler)))
		draw.NearestNeighbor.Scale(d, d.Bounds(), i, i.Bounds(), draw.Over, nil)
		n = d
	}
	o, err := os.Create(filepath.Join(*testImageDir, fmt.Sprintf("%s.png", name)))
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	defer o.Close()
	if err := png.Encode(o, n); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
}

func fill(n int, v uint8) []uint8 {
	b := make([]uint8, n)
	for i := range b {
		b[i] = v
	}
	return b
}

// setup encodes the chunks, decodes them back and runs the whole load path.
func setup(t *testing.T, def *console.Def, code string, chunks ...cart.Chunk) (*console.Console, *Host) {
	t.Helper()
	chunks = append(chunks, cart.Chunk{Type: cart.Code, Data: []uint8(code)})
	b, err := cart.Encode(&cart.Cartridge{Chunks: chunks})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cr, err := cart.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	img, err := console.Build(cr)
	if err != nil {
		t.Fatalf("Build: %v\n%s", err, spew.Sdump(cr))
	}
	con, err := console.New(img, def)
	if err != nil {
		t.Fatalf("console.New: %v", err)
	}
	h, err := New(con)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	return con, h
}

// lnumber returns a Lua number as a float64 or NaN for anything else.
func lnumber(v lua.LValue) float64 {
	n, ok := v.(lua.LNumber)
	if !ok {
		return math.NaN()
	}
	return float64(n)
}

func step(t *testing.T, h *Host) {
	t.Helper()
	if err := h.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
}

func TestEndToEnd(t *testing.T) {
	// The map is 240 cells wide so 17 full rows cover the visible 30x17.
	mapChunk := cart.Chunk{Type: cart.Map, Data: fill(memory.MapWidth*console.VisibleRows, 1)}
	// Sprite 1 is solid color 5.
	sprites := cart.Chunk{Type: cart.Sprites, Data: append(fill(memory.SpriteBytes, 0), fill(memory.SpriteBytes, 0x55)...)}
	const code = `
function TIC()
  for y=0,16 do
    for x=0,29 do
      spr(mget(x,y),x*8,y*8)
    end
  end
end
`
	var frame *image.NRGBA
	con, h := setup(t, &console.Def{FrameDone: func(i *image.NRGBA) { frame = i }}, code, mapChunk, sprites)
	step(t, h)

	scr := con.Screen()
	for y := 0; y < scr.Height(); y++ {
		for x := 0; x < scr.Width(); x++ {
			if got := scr.Pix(x, y); got != 5 {
				t.Fatalf("Pix(%d, %d) = %d, want 5", x, y, got)
			}
		}
	}
	if frame == nil {
		t.Fatal("no frame delivered")
	}
	want := palette.Default[5].Opaque()
	for i, c := range con.Screen().ToRGBA(con.Palette()) {
		if c != want {
			t.Fatalf("RGBA %d = %v, want %v", i, c, want)
		}
	}
	writeImage(t, "end_to_end", frame)
}

func TestNoTIC(t *testing.T) {
	img, err := console.Build(&cart.Cartridge{Chunks: []cart.Chunk{{Type: cart.Code, Data: []uint8("x = 1")}}})
	if err != nil {
		t.Fatal(err)
	}
	con, err := console.New(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(con); !errors.Is(err, ErrNoTIC) {
		t.Errorf("New = %v, want ErrNoTIC", err)
	}
	con.Code = "TIC = 3"
	if _, err := New(con); !errors.Is(err, ErrNoTIC) {
		t.Errorf("New with non function TIC = %v, want ErrNoTIC", err)
	}
	con.Code = "function TIC( end"
	if _, err := New(con); err == nil || errors.Is(err, ErrNoTIC) {
		t.Errorf("New with a syntax error = %v", err)
	}
}

func TestStepError(t *testing.T) {
	frames := 0
	con, h := setup(t, &console.Def{FrameDone: func(*image.NRGBA) { frames++ }}, `
n = 0
function TIC()
  n = n + 1
  if n == 2 then error("boom") end
end`)
	step(t, h)
	err := h.Step()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Step = %v, want boom", err)
	}
	if frames != 1 || con.Frames() != 1 {
		t.Errorf("failed step completed a frame: %d %d", frames, con.Frames())
	}
}

func TestBootAndTrace(t *testing.T) {
	var traced []string
	_, h := setup(t, &console.Def{Trace: func(s string) { traced = append(traced, s) }}, `
function BOOT() trace("boot") end
function TIC() trace(42) trace("tic " .. tostring(btn(0))) end`)
	step(t, h)
	if diff := deep.Equal(traced, []string{"boot", "42", "tic false"}); diff != nil {
		t.Errorf("trace: %v", diff)
	}
}

func TestDrawingAPI(t *testing.T) {
	con, h := setup(t, nil, `
function TIC()
  cls(1)
  pix(0, 0, 7)
  got = pix(0, 0)
  off = pix(-5, 400)
  rect(10, 10, 4, 4, 3)
  rectb(20, 20, 3, 3, 4)
  mset(2, 3, 9)
  m = mget(2, 3)
  outside = mget(-1, 0)
  w = print("AA", 50, 50, 12)
  ws = print("AA", 50, 60, 12, false, 1, true)
  wf = print("AA", 50, 70, 12, true)
  n = print(12, 0, 100)
end`)
	step(t, h)
	globals := map[string]float64{
		"got":     7,
		"off":     0,
		"m":       9,
		"outside": 0,
		"w":       14,
		"ws":      8,
		"wf":      12,
		"n":       14,
	}
	for name, want := range globals {
		v := h.l.GetGlobal(name)
		if got := lnumber(v); got != want {
			t.Errorf("%s = %v, want %v", name, v, want)
		}
	}
	for _, c := range []struct {
		x, y int
		want uint8
	}{
		{0, 0, 7},
		{1, 0, 1},
		{13, 13, 3},
		{14, 14, 1},
		{20, 20, 4},
		{21, 21, 1},
		{22, 22, 4},
	} {
		if got := con.Pix(c.x, c.y); got != c.want {
			t.Errorf("Pix(%d, %d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
	if got := con.Mget(2, 3); got != 9 {
		t.Errorf("Mget(2, 3) = %d", got)
	}
}

func TestSprAndMapFromLua(t *testing.T) {
	tiles := cart.Chunk{Type: cart.Tiles, Data: append(append(fill(32, 0x00), fill(32, 0x55)...), fill(32, 0x66)...)}
	mp := cart.Chunk{Type: cart.Map, Data: []uint8{1, 2}}
	con, h := setup(t, nil, `
function TIC()
  cls(0)
  spr(1, 0, 0, -1, 2)
  spr(2, 16, 0, 6)
  map(0, 0, 2, 1, 0, 40, -1, 1, function(id, x, y) return 3 - id end)
end`, tiles, mp)
	step(t, h)
	for _, c := range []struct {
		x, y int
		want uint8
	}{
		{15, 15, 5},
		{16, 0, 0},
		{0, 40, 6},
		{8, 40, 5},
	} {
		if got := con.Pix(c.x, c.y); got != c.want {
			t.Errorf("Pix(%d, %d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestRemapError(t *testing.T) {
	_, h := setup(t, nil, `
function TIC()
  map(0, 0, 1, 1, 0, 0, -1, 1, function() error("bad remap") end)
end`)
	if err := h.Step(); err == nil || !strings.Contains(err.Error(), "bad remap") {
		t.Errorf("Step = %v, want bad remap", err)
	}
}

func TestRemapHighSprite(t *testing.T) {
	// Sprite 300 is color 7.
	bank := append(fill(300*memory.SpriteBytes, 0), fill(memory.SpriteBytes, 0x77)...)
	con, h := setup(t, nil, `
function TIC()
  cls(1)
  map(0, 0, 1, 1, 0, 0, -1, 1, function() return 300 end)
  map(0, 0, 1, 1, 8, 0, -1, 1, function() return 556 end)
end`, cart.Chunk{Type: cart.Sprites, Data: bank})
	step(t, h)
	if got := con.Pix(0, 0); got != 7 {
		t.Errorf("Pix(0, 0) = %d, want 7", got)
	}
	if got := con.Pix(8, 0); got != 1 {
		t.Errorf("Pix(8, 0) = %d, want 1 for an id past the bank", got)
	}
}

func TestHugeScaleFromLua(t *testing.T) {
	con, h := setup(t, nil, `
function TIC()
  cls(0)
  spr(0, 0, 0, -1, 20000)
  spr(0, -100000000, 0, -1, 20000, 0, 0, 1000, 1000)
  map(0, 0, 1000000, 1000000, 0, 0, -1, 20000)
end`, cart.Chunk{Type: cart.Tiles, Data: fill(memory.SpriteBytes, 0x33)})
	done := make(chan error, 1)
	go func() { done <- h.Step() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Step with a huge scale didn't finish")
	}
	if got := con.Pix(memory.ScreenWidth-1, memory.ScreenHeight-1); got != 3 {
		t.Errorf("Pix = %d, want 3", got)
	}
}

func TestTICReplaced(t *testing.T) {
	var traced []string
	_, h := setup(t, &console.Def{Trace: func(s string) { traced = append(traced, s) }}, `
function TIC()
  trace("first")
  TIC = function() trace("second") end
end`)
	step(t, h)
	step(t, h)
	if diff := deep.Equal(traced, []string{"first", "second"}); diff != nil {
		t.Errorf("trace: %v", diff)
	}
}

func TestTICRemoved(t *testing.T) {
	con, h := setup(t, nil, `function TIC() TIC = nil end`)
	step(t, h)
	if err := h.Step(); !errors.Is(err, ErrNoTIC) {
		t.Errorf("Step = %v, want ErrNoTIC", err)
	}
	if con.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", con.Frames())
	}
}

func TestPokeFontChangesPrint(t *testing.T) {
	base := memory.Font.Addr + uint32('A')*memory.GlyphBytes
	_, h := setup(t, nil, fmt.Sprintf(`
function TIC()
  before = print("A")
  for i=0,7 do poke(%d + i, 0) end
  poke(%d, 8)
  after = print("A")
  p = peek(%d)
  neg = peek(-1)
  poke(-1, 3)
end`, base, base, base))
	step(t, h)
	for name, want := range map[string]float64{"before": 7, "after": 2, "p": 8, "neg": 0} {
		if got := lnumber(h.l.GetGlobal(name)); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

type pad uint8

func (p *pad) Input() uint8 {
	return uint8(*p)
}

func TestInputs(t *testing.T) {
	p := pad(0)
	now := time.Unix(0, 0)
	def := &console.Def{
		Now: func() time.Time { return now },
		Mouse: func() input.MouseState {
			return input.MouseState{X: 100, Y: 50, Left: true, ScrollX: -2, ScrollY: 31}
		},
	}
	def.Gamepads[0] = &p
	_, h := setup(t, def, `
function TIC()
  up, a = btn(0), btn(4)
  t = time()
  mx, my, ml, mm, mr, sx, sy = mouse()
  fset(3, 1, true)
  f = fget(3, 1)
end`)
	p = pad(1 << uint(input.A))
	now = now.Add(250 * time.Millisecond)
	step(t, h)
	got := map[string]string{}
	for _, name := range []string{"up", "a", "t", "mx", "my", "ml", "mm", "mr", "sx", "sy", "f"} {
		got[name] = h.l.GetGlobal(name).String()
	}
	want := map[string]string{
		"up": "false", "a": "true", "t": "250",
		"mx": "100", "my": "50", "ml": "true", "mm": "false", "mr": "false",
		"sx": "-2", "sy": "31", "f": "true",
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("globals: %v", diff)
	}
}
