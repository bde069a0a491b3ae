package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/veandco/go-sdl2/sdl"

	"nescore/emu"
	"nescore/hw"
)

var buttonNames = [hw.NumButtons]string{
	"A", "B",
	"Select", "Start",
	"Up", "Down", "Left", "Right",
}

// Keyboard maps the keyboard to the controller plugged into the first port.
// The second port is left unplugged.
//
// SDL owns the key state array and only the SDL thread may look at it, so
// the Display copies the buttons into an atomic bitmask each time it pumps
// events. The emulation goroutine only ever reads that bitmask.
type Keyboard struct {
	keys    [hw.NumButtons]sdl.Scancode
	buttons atomic.Uint32 // bit n set if button n is held
}

// NewKeyboard creates a Keyboard from the key names found in cfg.
func NewKeyboard(cfg emu.InputConfig) (*Keyboard, error) {
	kb := &Keyboard{}
	var err error
	sdl.Do(func() {
		for i, name := range cfg.Keys() {
			sc := sdl.GetScancodeFromName(name)
			if sc == sdl.SCANCODE_UNKNOWN {
				err = fmt.Errorf("button %s: unknown key %q", buttonNames[i], name)
				return
			}
			kb.keys[i] = sc
		}
	})
	if err != nil {
		return nil, err
	}
	return kb, nil
}

// update takes a snapshot of the mapped keys. keystate is the array returned
// by sdl.GetKeyboardState, so update must run on the SDL thread.
func (kb *Keyboard) update(keystate []uint8) {
	var buttons uint32
	for i, sc := range kb.keys {
		if int(sc) < len(keystate) && keystate[sc] != 0 {
			buttons |= 1 << i
		}
	}
	kb.buttons.Store(buttons)
}

// PollButton implements hw.InputDevice.
func (kb *Keyboard) PollButton(port, line int) bool {
	if port != 0 {
		return false
	}
	return kb.buttons.Load()&(1<<line) != 0
}
