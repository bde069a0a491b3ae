// Package ui implements an SDL and OpenGL front-end for the emulator.
package ui

import (
	"context"
	"image"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
)

// Display shows the emulated screen in a window and handles the keyboard
// shortcuts:
//
//	Escape  quit
//	P       pause/resume
//	F2      soft reset
//	F3      hard reset
//	F12     screenshot
type Display struct {
	win   *window
	img   *image.RGBA
	frame *hw.Frame
	fps   int

	// ScreenshotPath is where F12 saves the current frame.
	ScreenshotPath string

	// Keyboard, if set, gets a new snapshot of the keys after each batch
	// of events.
	Keyboard *Keyboard

	last int64 // last frame uploaded to the texture
}

// NewDisplay opens the emulator window. It must be called from a function
// running in sdl.Main.
func NewDisplay(frame *hw.Frame, cfg emu.VideoConfig) (*Display, error) {
	var (
		win *window
		err error
	)
	sdl.Do(func() {
		win, err = newWindow("nescore", hw.ScreenWidth, hw.ScreenHeight, cfg.Scale, !cfg.DisableVSync)
	})
	if err != nil {
		return nil, err
	}

	fps := cfg.FPS
	if fps == 0 {
		fps = 60
	}
	return &Display{
		win:            win,
		img:            image.NewRGBA(image.Rect(0, 0, hw.ScreenWidth, hw.ScreenHeight)),
		frame:          frame,
		fps:            fps,
		ScreenshotPath: "screenshot.png",
		last:           -1,
	}, nil
}

// Run implements emu.Display.
func (d *Display) Run(ctx context.Context, e *emu.Emulator) error {
	defer sdl.Do(func() {
		if err := d.win.Close(); err != nil {
			log.ModEmu.WarnZ("Failed to close window").Error("err", err).End()
		}
	})

	ticker := time.NewTicker(time.Second / time.Duration(d.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		quit := false
		sdl.Do(func() {
			quit = d.pollEvents(e)
			if quit {
				return
			}
			if n := d.frame.Count(); n != d.last {
				d.frame.RGBA(d.img)
				d.win.update(d.img.Pix)
				d.last = n
			}
			d.win.render()
		})
		if quit {
			e.Stop()
			return nil
		}
	}
}

// pollEvents processes pending SDL events and reports whether the user asked
// to quit.
func (d *Display) pollEvents(e *emu.Emulator) bool {
	if d.Keyboard != nil {
		defer func() { d.Keyboard.update(sdl.GetKeyboardState()) }()
	}
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case sdl.QuitEvent:
			return true
		case sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_RESIZED {
				d.win.resize(ev.Data1, ev.Data2)
			}
		case sdl.KeyboardEvent:
			if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
				continue
			}
			switch ev.Keysym.Sym {
			case sdl.K_ESCAPE:
				return true
			case sdl.K_p:
				e.TogglePause()
			case sdl.K_F2:
				e.Reset()
			case sdl.K_F3:
				e.Restart()
			case sdl.K_F12:
				if err := e.Screenshot(d.ScreenshotPath); err != nil {
					log.ModEmu.WarnZ("Screenshot failed").Error("err", err).End()
				} else {
					log.ModEmu.InfoZ("Screenshot saved").String("path", d.ScreenshotPath).End()
				}
			}
		}
	}
	return false
}
