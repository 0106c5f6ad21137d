// tac70 loads a cartridge and runs it. By default it opens an SDL window and
// steps the cartridge once per frame with the keyboard mapped to player 0
// and the SDL mouse mapped to the mouse register.
//
// With -headless no window is opened. The cartridge is stepped -frames times
// and if -png is set the last frame is written there.
package main

import (
	"flag"
	"image"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/glog"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/image/draw"

	"github.com/jmchacon/tac70/console"
	"github.com/jmchacon/tac70/input"
	"github.com/jmchacon/tac70/io"
	"github.com/jmchacon/tac70/memory"
	"github.com/jmchacon/tac70/script"
)

var (
	cart     = flag.String("cart", "", "Path to cart image to load")
	scale    = flag.Int("scale", 4, "Window (or PNG) scale factor")
	headless = flag.Bool("headless", false, "If true run without a window")
	frames   = flag.Int("frames", 1, "Number of steps to run in headless mode")
	pngOut   = flag.String("png", "", "Headless only: write the last frame as a PNG here")
	fps      = flag.Int("fps", 60, "Target steps per second for the window")
)

// key is a single keyboard key sampled from the SDL keyboard state.
type key struct {
	state []uint8
	code  sdl.Scancode
}

func (k *key) Input() bool {
	return k.state[k.code] != 0
}

// mouse accumulates SDL mouse events between steps.
type mouse struct {
	s input.MouseState
}

func (m *mouse) event(ev sdl.Event, scale int32) {
	switch e := ev.(type) {
	case *sdl.MouseMotionEvent:
		m.s.X = clampByte(e.X/scale, memory.ScreenWidth-1)
		m.s.Y = clampByte(e.Y/scale, memory.ScreenHeight-1)
	case *sdl.MouseButtonEvent:
		down := e.State == sdl.PRESSED
		switch e.Button {
		case sdl.BUTTON_LEFT:
			m.s.Left = down
		case sdl.BUTTON_MIDDLE:
			m.s.Middle = down
		case sdl.BUTTON_RIGHT:
			m.s.Right = down
		}
	case *sdl.MouseWheelEvent:
		m.s.ScrollX += int(e.X)
		m.s.ScrollY += int(e.Y)
	}
}

// state returns the register contents for this step. Scroll is a per step delta.
func (m *mouse) state() input.MouseState {
	s := m.s
	m.s.ScrollX, m.s.ScrollY = 0, 0
	return s
}

func clampByte(v, max int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > max {
		return uint8(max)
	}
	return uint8(v)
}

func scaled(i *image.NRGBA, s int) *image.NRGBA {
	if s <= 1 {
		return i
	}
	d := image.NewNRGBA(image.Rect(0, 0, i.Bounds().Dx()*s, i.Bounds().Dy()*s))
	draw.NearestNeighbor.Scale(d, d.Bounds(), i, i.Bounds(), draw.Src, nil)
	return d
}

func runHeadless() {
	var last *image.NRGBA
	con, err := console.Load(*cart, &console.Def{
		FrameDone: func(i *image.NRGBA) { last = i },
	})
	if err != nil {
		glog.Fatalf("Can't load cart: %v", err)
	}
	h, err := script.New(con)
	if err != nil {
		glog.Fatalf("Can't start script host: %v", err)
	}
	defer h.Close()
	for i := 0; i < *frames; i++ {
		if err := h.Step(); err != nil {
			glog.Fatalf("Step error: %v", err)
		}
	}
	if *pngOut == "" || last == nil {
		return
	}
	if err := gg.SavePNG(*pngOut, scaled(last, *scale)); err != nil {
		glog.Fatalf("Can't write %s: %v", *pngOut, err)
	}
	glog.Infof("wrote frame %d to %s", con.Frames(), *pngOut)
}

func runWindow() {
	sdl.Main(func() {
		var window *sdl.Window
		var surface *sdl.Surface
		var keys []uint8
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
				glog.Fatalf("Can't init SDL: %v", err)
			}
			var err error
			window, err = sdl.CreateWindow("tac70", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(memory.ScreenWidth**scale), int32(memory.ScreenHeight**scale), sdl.WINDOW_SHOWN)
			if err != nil {
				glog.Fatalf("Can't create window: %v", err)
			}
			surface, err = window.GetSurface()
			if err != nil {
				glog.Fatalf("Can't get window surface: %v", err)
			}
			keys = sdl.GetKeyboardState()
		})
		defer sdl.Do(func() {
			window.Destroy()
			sdl.Quit()
		})

		k := func(c sdl.Scancode) io.PortIn1 { return &key{keys, c} }
		pad := &input.Gamepad{
			Up:    k(sdl.SCANCODE_UP),
			Down:  k(sdl.SCANCODE_DOWN),
			Left:  k(sdl.SCANCODE_LEFT),
			Right: k(sdl.SCANCODE_RIGHT),
			A:     k(sdl.SCANCODE_Z),
			B:     k(sdl.SCANCODE_X),
			X:     k(sdl.SCANCODE_A),
			Y:     k(sdl.SCANCODE_S),
		}
		m := &mouse{}
		def := &console.Def{
			Mouse: m.state,
			FrameDone: func(i *image.NRGBA) {
				draw.NearestNeighbor.Scale(surface, surface.Bounds(), i, i.Bounds(), draw.Src, nil)
				if err := window.UpdateSurface(); err != nil {
					glog.Errorf("Can't update window: %v", err)
				}
			},
		}
		def.Gamepads[0] = pad
		con, err := console.Load(*cart, def)
		if err != nil {
			glog.Fatalf("Can't load cart: %v", err)
		}
		sdl.Do(func() {
			window.SetTitle(con.Title)
		})
		h, err := script.New(con)
		if err != nil {
			glog.Fatalf("Can't start script host: %v", err)
		}
		defer h.Close()

		tick := time.Second / time.Duration(*fps)
		for {
			start := time.Now()
			quit := false
			var stepErr error
			// Input, step and display all stay on the SDL thread.
			sdl.Do(func() {
				for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
					if _, ok := ev.(*sdl.QuitEvent); ok {
						quit = true
					}
					m.event(ev, int32(*scale))
				}
				stepErr = h.Step()
			})
			if quit {
				return
			}
			if stepErr != nil {
				glog.Errorf("Step error: %v", stepErr)
				return
			}
			if d := tick - time.Since(start); d > 0 {
				time.Sleep(d)
			}
		}
	})
}

func main() {
	flag.Parse()
	defer glog.Flush()
	if *cart == "" {
		glog.Fatal("-cart is required")
	}
	if *scale < 1 {
		glog.Fatalf("-scale must be at least 1, got %d", *scale)
	}
	if *headless {
		runHeadless()
		return
	}
	if *fps < 1 {
		glog.Fatalf("-fps must be at least 1, got %d", *fps)
	}
	runWindow()
}
