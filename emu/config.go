package emu

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"nescore/emu/log"
	"nescore/hw"
)

type Config struct {
	Video     VideoConfig     `toml:"video"`
	Input     InputConfig     `toml:"input"`
	Emulation EmulationConfig `toml:"emulation"`

	TraceOut    io.Writer `toml:"-"`
	TraceFormat string    `toml:"-"` // "text" (default) or "json"
}

type VideoConfig struct {
	Scale        int  `toml:"scale"`
	FPS          int  `toml:"fps"`
	DisableVSync bool `toml:"disable_vsync"`
	WarmupFrames int  `toml:"warmup_frames"`
}

// InputConfig maps the buttons of the controller plugged in port 1 to
// keyboard keys, by their SDL scancode names.
type InputConfig struct {
	A      string `toml:"a"`
	B      string `toml:"b"`
	Select string `toml:"select"`
	Start  string `toml:"start"`
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Left   string `toml:"left"`
	Right  string `toml:"right"`
}

// Keys returns the key names, in controller shift register order.
func (icfg InputConfig) Keys() [hw.NumButtons]string {
	return [hw.NumButtons]string{
		icfg.A, icfg.B, icfg.Select, icfg.Start,
		icfg.Up, icfg.Down, icfg.Left, icfg.Right,
	}
}

type EmulationConfig struct {
	// DelayedWrites delays CPU writes to PPU registers until the last cycle
	// of the writing instruction.
	DelayedWrites bool `toml:"delayed_writes"`
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "nescore")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

func DefaultConfig() Config {
	return Config{
		Video: VideoConfig{
			Scale:        2,
			FPS:          60,
			WarmupFrames: hw.DefaultWarmupFrames,
		},
		Input: InputConfig{
			A:      "Keypad 7",
			B:      "Keypad 9",
			Select: "Keypad 2",
			Start:  "Keypad 3",
			Up:     "Keypad 8",
			Down:   "Keypad 5",
			Left:   "Keypad 4",
			Right:  "Keypad 6",
		},
		Emulation: EmulationConfig{
			DelayedWrites: true,
		},
	}
}

// Check replaces out of range values with their defaults.
func (cfg *Config) Check() {
	def := DefaultConfig()
	if cfg.Video.Scale < 1 {
		log.ModEmu.Warnf("Invalid video scale %d, fallback to %d", cfg.Video.Scale, def.Video.Scale)
		cfg.Video.Scale = def.Video.Scale
	}
	if cfg.Video.FPS < 0 {
		log.ModEmu.Warnf("Invalid fps %d, fallback to %d", cfg.Video.FPS, def.Video.FPS)
		cfg.Video.FPS = def.Video.FPS
	}
	if cfg.Video.WarmupFrames < 0 {
		cfg.Video.WarmupFrames = 0
	}
}

const cfgFilename = "config.toml"

// LoadConfig loads the configuration from path. Settings missing from the
// file keep their default value, a missing file gives the default config.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return DefaultConfig(), nil
	case err != nil:
		return DefaultConfig(), err
	}
	cfg.Check()
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nescore config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	cfg, err := LoadConfig(path)
	if err != nil {
		log.ModEmu.WarnZ("Invalid config file, using defaults").
			String("path", path).
			Error("err", err).
			End()
	}
	return cfg
}

// SaveConfig into nescore config directory.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func SaveConfigTo(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
