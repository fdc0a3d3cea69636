package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"math"
	"os"
	"path/filepath"
	"time"

	"git.lost.host/meutraa/tempo/internal/engine"
	"git.lost.host/meutraa/tempo/internal/game"
	"git.lost.host/meutraa/tempo/internal/input"
	"gopkg.in/yaml.v3"
)

// Settings persist between runs.
type Settings struct {
	HitWindowMode         game.HitWindowMode `yaml:"hit_window_mode"`
	HitWindowValue        float64            `yaml:"hit_window_value"`
	ScrollSpeedMs         float64            `yaml:"scroll_speed_ms"`
	GlobalOffsetMs        float64            `yaml:"global_offset_ms"`
	MasterVolume          float64            `yaml:"master_volume"`
	Keybinds              map[uint8]string   `yaml:"keybinds"`
	CheckpointCooldown    time.Duration      `yaml:"checkpoint_cooldown"`
	CheckpointRetryOffset time.Duration      `yaml:"checkpoint_retry_offset"`
	Skin                  map[string]string  `yaml:"skin,omitempty"`
}

func Default() Settings {
	return Settings{
		HitWindowMode:         game.ModeOsuOD,
		HitWindowValue:        8,
		ScrollSpeedMs:         engine.DefaultScrollSpeedMs,
		MasterVolume:          1,
		Keybinds:              maps.Clone(input.DefaultKeys),
		CheckpointCooldown:    engine.DefaultCooldown,
		CheckpointRetryOffset: engine.DefaultRetryOffset,
	}
}

// LoadSettings reads path over the defaults. A missing file is not an
// error, the defaults are returned as they are.
func LoadSettings(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if nil != err {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); nil != err {
		return Default(), fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.Validate(); nil != err {
		return Default(), err
	}
	return s, nil
}

// Validate checks value ranges and that the hit window can be built.
func (s *Settings) Validate() error {
	if _, err := s.HitWindow(); nil != err {
		return err
	}
	if !(s.ScrollSpeedMs > 0) || math.IsInf(s.ScrollSpeedMs, 0) {
		return fmt.Errorf("scroll_speed_ms must be positive, got %v", s.ScrollSpeedMs)
	}
	if math.IsNaN(s.GlobalOffsetMs) || math.Abs(s.GlobalOffsetMs) > 1000 {
		return fmt.Errorf("global_offset_ms must be within one second, got %v", s.GlobalOffsetMs)
	}
	if !(s.MasterVolume >= 0 && s.MasterVolume <= 1) {
		return fmt.Errorf("master_volume must be between 0 and 1, got %v", s.MasterVolume)
	}
	if s.CheckpointCooldown < 0 || s.CheckpointRetryOffset < 0 {
		return errors.New("checkpoint durations must not be negative")
	}
	for keys, binds := range s.Keybinds {
		if n := len([]rune(binds)); n != int(keys) {
			return fmt.Errorf("keybinds for %dk have %d keys", keys, n)
		}
		if _, err := input.NewKeymap(binds); nil != err {
			return fmt.Errorf("keybinds for %dk: %w", keys, err)
		}
	}
	return nil
}

// HitWindow builds the configured hit window.
func (s *Settings) HitWindow() (game.HitWindow, error) {
	return game.NewHitWindow(s.HitWindowMode, s.HitWindowValue)
}

// GlobalOffset is the settings offset as a duration.
func (s *Settings) GlobalOffset() time.Duration {
	return time.Duration(s.GlobalOffsetMs * float64(time.Millisecond))
}

// Save writes the settings, creating the directory when needed.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if nil != err {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); nil != err {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
