package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("partial", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		const content = `
[video]
scale = 3
fps = 0

[input]
a = "X"
b = "Z"

[emulation]
delayed_writes = false
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}

		want := DefaultConfig()
		want.Video.Scale = 3
		want.Video.FPS = 0
		want.Input.A = "X"
		want.Input.B = "Z"
		want.Emulation.DelayedWrites = false
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		const content = `
[video]
scale = -1
fps = -30
warmup_frames = -2
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		want := DefaultConfig().Video
		want.WarmupFrames = 0
		if diff := cmp.Diff(want, cfg.Video); diff != "" {
			t.Errorf("video config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[video\nscale = 2"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatal("LoadConfig succeeded on a malformed file")
		}
	})
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Video.DisableVSync = true
	cfg.Input.Start = "Return"
	if err := SaveConfigTo(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestInputConfigKeys(t *testing.T) {
	keys := DefaultConfig().Input.Keys()
	want := [8]string{"Keypad 7", "Keypad 9", "Keypad 2", "Keypad 3", "Keypad 8", "Keypad 5", "Keypad 4", "Keypad 6"}
	if keys != want {
		t.Errorf("Keys() = %q, want %q", keys, want)
	}
}
