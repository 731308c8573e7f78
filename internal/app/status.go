package app

import (
	"fmt"
	"time"

	"github.com/dori/pomodoro/internal/db"
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/pomodoro"
	"github.com/dori/pomodoro/internal/settings"
)

// Status is a read-only view of the saved timer.
type Status struct {
	State       model.State
	ProgressMax model.Duration
	TimeLeft    model.Duration
	Statistics  model.Statistics
	Settings    model.Settings
}

// ReadStatus loads the saved state and advances it to now in memory. It
// neither takes the lock nor saves, so it works while the TUI is running.
func ReadStatus(cfg *Config) (Status, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	current, _, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load settings: %w", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return Status{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	loaded, err := database.LoadState(current.LongBreakFrequency)
	if err != nil {
		return Status{}, err
	}

	now := cfg.now()
	m := pomodoro.New(pomodoro.StaticSettings(current), loaded)
	m.OnStartup(now)
	m.OnTimer(now)

	state := m.State()
	return Status{
		State:       state,
		ProgressMax: m.ProgressMax(),
		TimeLeft:    m.TimeLeft(),
		Statistics:  model.StatisticsAt(now, state.History, time.Local),
		Settings:    current,
	}, nil
}
