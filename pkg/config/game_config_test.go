package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultIsValid 默认配置必须通过校验
func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Cat.RunSpeed < 2*cfg.Cat.WalkSpeed {
		t.Errorf("run speed %.1f should be at least twice walk speed %.1f", cfg.Cat.RunSpeed, cfg.Cat.WalkSpeed)
	}
	if cfg.Fish.Restitution != 0.6 {
		t.Errorf("Restitution: got %v, want 0.6", cfg.Fish.Restitution)
	}
	if cfg.Bridge.SaveEvery != 50 {
		t.Errorf("SaveEvery: got %d, want 50", cfg.Bridge.SaveEvery)
	}
	if !cfg.Fish.Physics {
		t.Error("gravity variant should be enabled by default")
	}
	for _, state := range []string{"idle", "clean", "walk", "run", "sleep", "eat"} {
		if _, ok := cfg.Clips[state]; !ok {
			t.Errorf("missing clip for state %q", state)
		}
	}
}

func TestClipCell(t *testing.T) {
	idle := ClipConfig{Row: 0, Rows: 2, Frames: 8, FrameMs: 150}

	tests := []struct {
		index   int
		wantRow int
		wantCol int
	}{
		{0, 0, 0},
		{7, 0, 7},
		{8, 1, 0},
		{15, 1, 7},
		{16, 0, 0}, // 取模回绕
		{-1, 1, 7},
	}
	for _, tt := range tests {
		row, col := idle.Cell(tt.index)
		if row != tt.wantRow || col != tt.wantCol {
			t.Errorf("Cell(%d) = (%d,%d), want (%d,%d)", tt.index, row, col, tt.wantRow, tt.wantCol)
		}
	}

	if idle.Len() != 16 {
		t.Errorf("Len: got %d, want 16", idle.Len())
	}
	if idle.FrameDuration() != 0.15 {
		t.Errorf("FrameDuration: got %v, want 0.15", idle.FrameDuration())
	}
}

func TestParseGameConfigOverrides(t *testing.T) {
	data := []byte(`
cat:
  walkSpeed: 30
fish:
  physics: false
behaviors:
  - state: sleep
    weight: 1
    duration: {min: 1, max: 2}
`)
	cfg, err := ParseGameConfig(data)
	if err != nil {
		t.Fatalf("ParseGameConfig error: %v", err)
	}

	if cfg.Cat.WalkSpeed != 30 {
		t.Errorf("WalkSpeed: got %v, want 30", cfg.Cat.WalkSpeed)
	}
	// 未覆盖的字段保持默认
	if cfg.Cat.RunSpeed != 100 {
		t.Errorf("RunSpeed: got %v, want default 100", cfg.Cat.RunSpeed)
	}
	if cfg.Fish.Physics {
		t.Error("Physics should be disabled by override")
	}
	if len(cfg.Behaviors) != 1 || cfg.Behaviors[0].State != "sleep" {
		t.Errorf("Behaviors should be replaced, got %+v", cfg.Behaviors)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr string
	}{
		{"zero weights", func(c *GameConfig) {
			for i := range c.Behaviors {
				c.Behaviors[i].Weight = 0
			}
		}, "positive weight"},
		{"eat is not random", func(c *GameConfig) {
			c.Behaviors[0].State = "eat"
		}, "not a random behavior"},
		{"bad duration", func(c *GameConfig) {
			c.Behaviors[0].Duration = DurationRange{Min: 5, Max: 1}
		}, "duration invalid"},
		{"clip outside sheet", func(c *GameConfig) {
			c.Clips["scared"] = ClipConfig{Row: 9, Rows: 2, Frames: 8, FrameMs: 60}
		}, "outside"},
		{"restitution too high", func(c *GameConfig) {
			c.Fish.Restitution = 1.2
		}, "restitution"},
		{"save cadence", func(c *GameConfig) {
			c.Bridge.SaveEvery = 0
		}, "saveEvery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadGameConfig(t *testing.T) {
	cfg, err := LoadGameConfig("")
	if err != nil || cfg.Window.Width != 220 {
		t.Fatalf("empty path should give defaults, got %+v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "feedcat.yaml")
	if err := os.WriteFile(path, []byte("window:\n  width: 300\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadGameConfig(path)
	if err != nil {
		t.Fatalf("LoadGameConfig error: %v", err)
	}
	if cfg.Window.Width != 300 || cfg.Window.Height != 120 {
		t.Errorf("window: got %dx%d, want 300x120", cfg.Window.Width, cfg.Window.Height)
	}

	if _, err := LoadGameConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should return error")
	}
}

// TestShippedConfig 仓库自带的 data/feedcat.yaml 必须能被加载
func TestShippedConfig(t *testing.T) {
	if _, err := LoadGameConfig(filepath.Join("..", "..", "data", "feedcat.yaml")); err != nil {
		t.Fatalf("data/feedcat.yaml: %v", err)
	}
}
