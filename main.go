package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"nescore/ines"
)

func main() {
	args := parseArgs(os.Args[1:])

	switch args.mode {
	case romInfosMode:
		rom, err := ines.Open(args.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		printRomInfos(os.Stdout, rom)
	case versionMode:
		printVersion()
	case runMode:
		cfg := loadConfig(args.Config)
		os.Exit(emuMain(args.Run, cfg))
	}
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("nescore", version)
}
