package ui

import (
	"sync"
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func testKeyboard() *Keyboard {
	return &Keyboard{keys: [...]sdl.Scancode{
		sdl.SCANCODE_X, sdl.SCANCODE_Z,
		sdl.SCANCODE_RSHIFT, sdl.SCANCODE_RETURN,
		sdl.SCANCODE_UP, sdl.SCANCODE_DOWN, sdl.SCANCODE_LEFT, sdl.SCANCODE_RIGHT,
	}}
}

func TestKeyboardSnapshot(t *testing.T) {
	kb := testKeyboard()
	keystate := make([]uint8, sdl.NUM_SCANCODES)

	kb.update(keystate)
	for line := range buttonNames {
		if kb.PollButton(0, line) {
			t.Errorf("%s pressed with no key down", buttonNames[line])
		}
	}

	keystate[sdl.SCANCODE_Z] = 1
	keystate[sdl.SCANCODE_LEFT] = 1
	keystate[sdl.SCANCODE_A] = 1 // not mapped
	if kb.PollButton(0, 1) {
		t.Errorf("B seen before the next snapshot")
	}

	kb.update(keystate)
	for line, name := range buttonNames {
		want := name == "B" || name == "Left"
		if got := kb.PollButton(0, line); got != want {
			t.Errorf("PollButton(0, %s) = %t, want %t", name, got, want)
		}
		if kb.PollButton(1, line) {
			t.Errorf("PollButton(1, %s) = true, port 1 is unplugged", name)
		}
	}

	keystate[sdl.SCANCODE_Z] = 0
	kb.update(keystate)
	if kb.PollButton(0, 1) {
		t.Errorf("B still pressed after release")
	}
}

// The emulation goroutine polls while the SDL thread takes snapshots; run
// with -race.
func TestKeyboardConcurrentPoll(t *testing.T) {
	kb := testKeyboard()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		keystate := make([]uint8, sdl.NUM_SCANCODES)
		for i := range 1000 {
			keystate[sdl.SCANCODE_RETURN] = uint8(i & 1)
			kb.update(keystate)
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			for line := range buttonNames {
				kb.PollButton(0, line)
			}
		}
	}()
	wg.Wait()

	// The last snapshot had Start released.
	if kb.PollButton(0, 3) {
		t.Errorf("Start pressed after the last snapshot released it")
	}
}
