package main

import (
	"fmt"

	"github.com/inkyblackness/imgui-go/v4"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	windowWidth  = 1024
	windowHeight = 768
)

// platform owns the SDL window and its OpenGL context.
type platform struct {
	window    *sdl.Window
	glContext sdl.GLContext
}

// newPlatform opens a window with an OpenGL 3.2 core context and makes the context
// current on the calling thread.
func newPlatform(title string) (*platform, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}

	attributes := []struct {
		attr  sdl.GLattr
		value int
	}{
		{sdl.GL_CONTEXT_MAJOR_VERSION, 3},
		{sdl.GL_CONTEXT_MINOR_VERSION, 2},
		{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_FORWARD_COMPATIBLE_FLAG},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
	}
	for _, a := range attributes {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			sdl.Quit()
			return nil, fmt.Errorf("sdl: %w", err)
		}
	}

	plt := &platform{}
	var err error
	plt.window, err = sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		windowWidth, windowHeight,
		sdl.WINDOW_OPENGL|sdl.WINDOW_ALLOW_HIGHDPI|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	plt.glContext, err = plt.window.GLCreateContext()
	if err != nil {
		_ = plt.destroy()
		return nil, fmt.Errorf("sdl: %w", err)
	}
	if err := plt.window.GLMakeCurrent(plt.glContext); err != nil {
		_ = plt.destroy()
		return nil, fmt.Errorf("sdl: %w", err)
	}
	if err := sdl.GLSetSwapInterval(1); err != nil {
		_ = plt.destroy()
		return nil, fmt.Errorf("sdl: %w", err)
	}
	return plt, nil
}

func (plt *platform) destroy() error {
	if plt.glContext != nil {
		sdl.GLDeleteContext(plt.glContext)
		plt.glContext = nil
	}
	if plt.window != nil {
		if err := plt.window.Destroy(); err != nil {
			return err
		}
		plt.window = nil
	}
	sdl.Quit()
	return nil
}

// processEvents forwards pending SDL events to imgui. It returns false once the
// window was closed.
func (plt *platform) processEvents(io imgui.IO) bool {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev := ev.(type) {
		case *sdl.QuitEvent:
			return false

		case *sdl.TextInputEvent:
			io.AddInputCharacters(string(ev.Text[:]))

		case *sdl.MouseWheelEvent:
			io.AddMouseWheelDelta(float32(ev.X), float32(ev.Y))

		case *sdl.KeyboardEvent:
			switch ev.Type {
			case sdl.KEYDOWN:
				io.KeyPress(int(ev.Keysym.Scancode))
			case sdl.KEYUP:
				io.KeyRelease(int(ev.Keysym.Scancode))
			}
			io.KeyShift(int(sdl.SCANCODE_LSHIFT), int(sdl.SCANCODE_RSHIFT))
			io.KeyCtrl(int(sdl.SCANCODE_LCTRL), int(sdl.SCANCODE_RCTRL))
			io.KeyAlt(int(sdl.SCANCODE_LALT), int(sdl.SCANCODE_RALT))
		}
	}
	return true
}

func (plt *platform) displaySize() [2]float32 {
	w, h := plt.window.GetSize()
	return [2]float32{float32(w), float32(h)}
}

func (plt *platform) framebufferSize() [2]float32 {
	w, h := plt.window.GLGetDrawableSize()
	return [2]float32{float32(w), float32(h)}
}

// newFrame updates the display size and mouse state of imgui.
func (plt *platform) newFrame(io imgui.IO) {
	displaySize := plt.displaySize()
	io.SetDisplaySize(imgui.Vec2{X: displaySize[0], Y: displaySize[1]})

	x, y, state := sdl.GetMouseState()
	io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	for i, button := range []uint32{sdl.BUTTON_LEFT, sdl.BUTTON_RIGHT, sdl.BUTTON_MIDDLE} {
		io.SetMouseButtonDown(i, (state&sdl.Button(button)) != 0)
	}
}

func (plt *platform) postRender() {
	plt.window.GLSwap()
}

// setKeyMapping maps the imgui navigation keys to SDL scancodes.
func setKeyMapping(io imgui.IO) {
	keys := map[int]int{
		int(imgui.KeyTab):        int(sdl.SCANCODE_TAB),
		int(imgui.KeyLeftArrow):  int(sdl.SCANCODE_LEFT),
		int(imgui.KeyRightArrow): int(sdl.SCANCODE_RIGHT),
		int(imgui.KeyUpArrow):    int(sdl.SCANCODE_UP),
		int(imgui.KeyDownArrow):  int(sdl.SCANCODE_DOWN),
		int(imgui.KeyPageUp):     int(sdl.SCANCODE_PAGEUP),
		int(imgui.KeyPageDown):   int(sdl.SCANCODE_PAGEDOWN),
		int(imgui.KeyHome):       int(sdl.SCANCODE_HOME),
		int(imgui.KeyEnd):        int(sdl.SCANCODE_END),
		int(imgui.KeyInsert):     int(sdl.SCANCODE_INSERT),
		int(imgui.KeyDelete):     int(sdl.SCANCODE_DELETE),
		int(imgui.KeyBackspace):  int(sdl.SCANCODE_BACKSPACE),
		int(imgui.KeySpace):      int(sdl.SCANCODE_SPACE),
		int(imgui.KeyEnter):      int(sdl.SCANCODE_RETURN),
		int(imgui.KeyEscape):     int(sdl.SCANCODE_ESCAPE),
		int(imgui.KeyA):          int(sdl.SCANCODE_A),
		int(imgui.KeyC):          int(sdl.SCANCODE_C),
		int(imgui.KeyV):          int(sdl.SCANCODE_V),
		int(imgui.KeyX):          int(sdl.SCANCODE_X),
		int(imgui.KeyY):          int(sdl.SCANCODE_Y),
		int(imgui.KeyZ):          int(sdl.SCANCODE_Z),
	}
	for imguiKey, nativeKey := range keys {
		io.KeyMap(imguiKey, nativeKey)
	}
}
