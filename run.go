package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/veandco/go-sdl2/sdl"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/ines"
	"nescore/ui"
)

func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	checkf(err, "failed to load config file %s", path)
	return cfg
}

// applyFlags overrides the configuration with the command line flags.
func applyFlags(args Run, cfg *emu.Config) {
	if args.FPS != nil {
		cfg.Video.FPS = *args.FPS
	}
	if args.Scale != nil {
		cfg.Video.Scale = *args.Scale
	}
	if args.DisableDelayedWrites {
		cfg.Emulation.DelayedWrites = false
	}
	if args.Trace != nil {
		cfg.TraceOut = args.Trace
		cfg.TraceFormat = args.TraceFormat
	}
}

// emuMain runs the emulator with the given rom and returns the process exit
// code.
func emuMain(args Run, cfg emu.Config) int {
	rom, err := ines.Open(args.RomPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading ROM: %s\n", err)
		return 1
	}

	if args.Trace != nil {
		defer args.Trace.Close()
	}
	applyFlags(args, &cfg)

	emulator, err := emu.Launch(rom, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if args.Headless {
		err = emulator.Run(ctx, nil, args.Frames)
	} else {
		err = runWithDisplay(ctx, emulator, cfg, args.Frames)
	}

	exitcode := 0
	if err != nil {
		fmt.Fprintf(os.Stderr, "emulation stopped: %v\n", err)
		exitcode = 1
	}

	if args.Screenshot != "" {
		if err := emulator.Screenshot(args.Screenshot); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save screenshot: %v\n", err)
			return 1
		}
		log.ModEmu.InfoZ("Screenshot saved").String("path", args.Screenshot).End()
	}
	return exitcode
}

// runWithDisplay opens the window, plugs the keyboard and runs the emulator
// until the user quits.
func runWithDisplay(ctx context.Context, emulator *emu.Emulator, cfg emu.Config, maxFrames int) error {
	var err error
	sdl.Main(func() {
		var disp *ui.Display
		disp, err = ui.NewDisplay(emulator.Frame, cfg.Video)
		if err != nil {
			err = fmt.Errorf("failed to create display: %w", err)
			return
		}

		var kb *ui.Keyboard
		kb, err = ui.NewKeyboard(cfg.Input)
		if err != nil {
			err = fmt.Errorf("input config: %w", err)
			return
		}
		disp.Keyboard = kb
		emulator.NES.CPU.PlugInputDevice(kb)

		err = emulator.Run(ctx, disp, maxFrames)
	})
	return err
}

func printRomInfos(w io.Writer, rom *ines.Rom) {
	mirroring := "horizontal"
	if rom.VertMirroring() {
		mirroring = "vertical"
	}
	fmt.Fprintf(w, "mapper:      %d\n", rom.Mapper())
	fmt.Fprintf(w, "PRG ROM:     %d x 16KB\n", rom.PRGBanks())
	fmt.Fprintf(w, "CHR ROM:     %d x 8KB\n", rom.CHRBanks())
	fmt.Fprintf(w, "mirroring:   %s\n", mirroring)
	fmt.Fprintf(w, "trainer:     %t\n", rom.HasTrainer())
	fmt.Fprintf(w, "persistent:  %t\n", rom.HasPersistent())
}
