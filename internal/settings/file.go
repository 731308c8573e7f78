package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dori/pomodoro/internal/fsutil"
	"github.com/dori/pomodoro/internal/model"
)

// FileName is the settings file inside the data directory.
const FileName = "settings.yaml"

// fileSettings is the on-disk shape. Durations are whole minutes. Pointers
// tell an absent key (keep the default) from an explicit zero or false.
type fileSettings struct {
	PomodoroMinutes            *int  `yaml:"pomodoro_minutes,omitempty"`
	BreakMinutes               *int  `yaml:"break_minutes,omitempty"`
	LongBreakMinutes           *int  `yaml:"long_break_minutes,omitempty"`
	LongBreakFrequency         *int  `yaml:"long_break_frequency,omitempty"`
	StartNewPomodoroAfterBreak *bool `yaml:"start_new_pomodoro_after_break,omitempty"`
	RingVolume                 *int  `yaml:"ring_volume,omitempty"`
	PopupEnabled               *bool `yaml:"popup_enabled,omitempty"`
	BlockDuringBreak           *bool `yaml:"block_during_break,omitempty"`
	ShowToolWindow             *bool `yaml:"show_tool_window,omitempty"`
	ShowTimeInToolbarWidget    *bool `yaml:"show_time_in_toolbar_widget,omitempty"`
}

// Decode parses YAML settings on top of the defaults. Out of range values
// are replaced by their default one field at a time and reported by key in
// ignored.
func Decode(data []byte) (s model.Settings, ignored []string, err error) {
	s = model.DefaultSettings()

	var raw fileSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return s, nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	minutes := func(key string, v *int, dst *model.Duration) {
		if v == nil {
			return
		}
		if *v <= 0 {
			ignored = append(ignored, key)
			return
		}
		*dst = model.Minutes(*v)
	}
	minutes("pomodoro_minutes", raw.PomodoroMinutes, &s.PomodoroDuration)
	minutes("break_minutes", raw.BreakMinutes, &s.BreakDuration)
	minutes("long_break_minutes", raw.LongBreakMinutes, &s.LongBreakDuration)

	if v := raw.LongBreakFrequency; v != nil {
		if *v >= 1 {
			s.LongBreakFrequency = *v
		} else {
			ignored = append(ignored, "long_break_frequency")
		}
	}
	if v := raw.RingVolume; v != nil {
		if *v >= 0 && *v <= model.MaxRingVolume {
			s.RingVolume = *v
		} else {
			ignored = append(ignored, "ring_volume")
		}
	}

	flag := func(v *bool, dst *bool) {
		if v != nil {
			*dst = *v
		}
	}
	flag(raw.StartNewPomodoroAfterBreak, &s.StartNewPomodoroAfterBreak)
	flag(raw.PopupEnabled, &s.PopupEnabled)
	flag(raw.BlockDuringBreak, &s.BlockDuringBreak)
	flag(raw.ShowToolWindow, &s.ShowToolWindow)
	flag(raw.ShowTimeInToolbarWidget, &s.ShowTimeInToolbarWidget)

	return s, ignored, nil
}

// Encode renders every field so the file documents the full configuration.
func Encode(s model.Settings) ([]byte, error) {
	ptr := func(v int) *int { return &v }
	flag := func(v bool) *bool { return &v }

	raw := fileSettings{
		PomodoroMinutes:            ptr(int(s.PomodoroDuration.Minutes())),
		BreakMinutes:               ptr(int(s.BreakDuration.Minutes())),
		LongBreakMinutes:           ptr(int(s.LongBreakDuration.Minutes())),
		LongBreakFrequency:         ptr(s.LongBreakFrequency),
		StartNewPomodoroAfterBreak: flag(s.StartNewPomodoroAfterBreak),
		RingVolume:                 ptr(s.RingVolume),
		PopupEnabled:               flag(s.PopupEnabled),
		BlockDuringBreak:           flag(s.BlockDuringBreak),
		ShowToolWindow:             flag(s.ShowToolWindow),
		ShowTimeInToolbarWidget:    flag(s.ShowTimeInToolbarWidget),
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return data, nil
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (model.Settings, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.DefaultSettings(), nil, nil
		}
		return model.DefaultSettings(), nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return Decode(data)
}

// Save validates s and writes it to path atomically.
func Save(path string, s model.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
