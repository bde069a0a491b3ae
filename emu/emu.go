package emu

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

// A Display shows the frames produced by the emulator and forwards the user
// commands to it. Run blocks until the user quits or ctx is done.
type Display interface {
	Run(ctx context.Context, e *Emulator) error
}

type Emulator struct {
	NES   *NES
	Frame *hw.Frame

	cfg    Config
	jtrace *JSONTracer
	frames int

	// These are accessed concurrently by the emulator loop and the display.
	quit    atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	restart atomic.Bool
}

// Launch powers up the machine, plugs the video sink and setups the execution
// trace. It doesn't start the emulation loop, call Run() for that.
func Launch(rom *ines.Rom, cfg Config) (*Emulator, error) {
	cfg.Check()
	nes, err := PowerUp(rom, cfg.Emulation)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	e := &Emulator{
		NES:   nes,
		Frame: hw.NewFrame(),
		cfg:   cfg,
	}
	nes.PPU.Video = e.Frame
	nes.PPU.WarmupFrames = cfg.Video.WarmupFrames

	// CPU execution trace setup.
	if cfg.TraceOut != nil {
		switch cfg.TraceFormat {
		case "", "text":
			nes.CPU.SetTraceOutput(cfg.TraceOut)
		case "json":
			e.jtrace = NewJSONTracer(cfg.TraceOut)
			nes.CPU.SetTracer(e.jtrace.Trace)
		default:
			return nil, fmt.Errorf("unknown trace format %q", cfg.TraceFormat)
		}
	}
	return e, nil
}

// Run runs the emulation loop until the display quits, ctx is done, the CPU
// halts or, if maxFrames is positive, maxFrames frames have been emulated.
// Without display, the emulation runs as fast as possible.
func (e *Emulator) Run(ctx context.Context, disp Display, maxFrames int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return e.loop(ctx, disp != nil, maxFrames)
	})
	if disp != nil {
		g.Go(func() error {
			defer cancel()
			return disp.Run(ctx, e)
		})
	}

	err := g.Wait()
	log.ModEmu.InfoZ("Emulation loop exited").Int("frames", e.frames).End()
	if err == nil && e.jtrace != nil {
		err = e.jtrace.Err()
	}
	return err
}

func (e *Emulator) loop(ctx context.Context, pace bool, maxFrames int) error {
	var tick <-chan time.Time
	if fps := e.cfg.Video.FPS; pace && fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	nframes := 0
	for ctx.Err() == nil && !e.quit.Load() {
		e.handleReset()

		// Handle pause.
		if e.isPaused() {
			// Don't burn cpu while paused.
			select {
			case <-ctx.Done():
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		if err := e.NES.RunFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", e.NES.PPU.Frame, err)
		}
		e.frames++
		nframes++
		if maxFrames > 0 && nframes >= maxFrames {
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
	return nil
}

// Frames returns the number of frames emulated so far. It must not be called
// concurrently with Run.
func (e *Emulator) Frames() int { return e.frames }

// Screenshot saves the last frame as a PNG image.
func (e *Emulator) Screenshot(path string) error {
	return e.Frame.SaveAsPNG(path, e.cfg.Video.Scale)
}

// SetPause, Stop, Reset and Restart allows to control
// the emulator loop in a concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.Store(pause) }
func (e *Emulator) TogglePause()        { e.SetPause(!e.isPaused()) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Restart()            { e.restart.Store(true) }
func (e *Emulator) Stop() {
	e.quit.Store(true)
}

func (e *Emulator) isPaused() bool {
	return e.paused.Load()
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing soft reset").End()
		e.NES.Reset(true)
	} else if e.restart.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing hard reset").End()
		e.NES.Reset(false)
	}
}
