package rainglare

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyA int = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyMinus
	KeyEqual
	KeyLeftBracket
	KeyRightBracket
	KeySemicolon
	KeyApostrophe
	KeyComma
	KeyPeriod
	KeyShift
	KeyControl
)

type InputModule struct{}

// Input is the polled keyboard state for the current frame.
type Input struct {
	Pressed      [64]bool
	JustPressed  [64]bool
	JustReleased [64]bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate),
	)
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		action := s.windowGlfw.GetKey(glfwKey)

		input.JustPressed[key] = false
		input.JustReleased[key] = false

		if glfw.Press == action {
			if !input.Pressed[key] {
				input.JustPressed[key] = true
			}
			input.Pressed[key] = true
		} else if glfw.Release == action {
			if input.Pressed[key] {
				input.JustReleased[key] = true
			}
			input.Pressed[key] = false
		}
	}

	if input.Pressed[KeyEscape] {
		s.windowGlfw.SetShouldClose(true)
	}
}

var keyToGlfw = map[int]glfw.Key{
	KeyA:            glfw.KeyA,
	KeyB:            glfw.KeyB,
	KeyC:            glfw.KeyC,
	KeyD:            glfw.KeyD,
	KeyE:            glfw.KeyE,
	KeyF:            glfw.KeyF,
	KeyG:            glfw.KeyG,
	KeyH:            glfw.KeyH,
	KeyI:            glfw.KeyI,
	KeyJ:            glfw.KeyJ,
	KeyK:            glfw.KeyK,
	KeyL:            glfw.KeyL,
	KeyM:            glfw.KeyM,
	KeyN:            glfw.KeyN,
	KeyO:            glfw.KeyO,
	KeyP:            glfw.KeyP,
	KeyQ:            glfw.KeyQ,
	KeyR:            glfw.KeyR,
	KeyS:            glfw.KeyS,
	KeyT:            glfw.KeyT,
	KeyU:            glfw.KeyU,
	KeyV:            glfw.KeyV,
	KeyW:            glfw.KeyW,
	KeyX:            glfw.KeyX,
	KeyY:            glfw.KeyY,
	KeyZ:            glfw.KeyZ,
	Key0:            glfw.Key0,
	Key1:            glfw.Key1,
	Key2:            glfw.Key2,
	Key3:            glfw.Key3,
	Key4:            glfw.Key4,
	Key5:            glfw.Key5,
	Key6:            glfw.Key6,
	Key7:            glfw.Key7,
	Key8:            glfw.Key8,
	Key9:            glfw.Key9,
	KeySpace:        glfw.KeySpace,
	KeyEnter:        glfw.KeyEnter,
	KeyEscape:       glfw.KeyEscape,
	KeyTab:          glfw.KeyTab,
	KeyRight:        glfw.KeyRight,
	KeyLeft:         glfw.KeyLeft,
	KeyDown:         glfw.KeyDown,
	KeyUp:           glfw.KeyUp,
	KeyMinus:        glfw.KeyMinus,
	KeyEqual:        glfw.KeyEqual,
	KeyLeftBracket:  glfw.KeyLeftBracket,
	KeyRightBracket: glfw.KeyRightBracket,
	KeySemicolon:    glfw.KeySemicolon,
	KeyApostrophe:   glfw.KeyApostrophe,
	KeyComma:        glfw.KeyComma,
	KeyPeriod:       glfw.KeyPeriod,
	KeyShift:        glfw.KeyLeftShift,
	KeyControl:      glfw.KeyLeftControl,
}
