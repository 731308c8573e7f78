package model

import (
	"errors"
	"fmt"
)

// Default settings values
const (
	DefaultPomodoroMinutes    = 25
	DefaultBreakMinutes       = 5
	DefaultLongBreakMinutes   = 20
	DefaultLongBreakFrequency = 4
	DefaultRingVolume         = 1
	MaxRingVolume             = 2
)

// ErrInvalidSettings is returned by Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is an immutable snapshot of the user configuration. The timer
// model copies it at mode boundaries, so a value never changes under a
// running period.
type Settings struct {
	PomodoroDuration           Duration
	BreakDuration              Duration
	LongBreakDuration          Duration
	LongBreakFrequency         int
	StartNewPomodoroAfterBreak bool

	// Toggles consumed by collaborators, not by the timer itself.
	RingVolume              int
	PopupEnabled            bool
	BlockDuringBreak        bool
	ShowToolWindow          bool
	ShowTimeInToolbarWidget bool
}

// DefaultSettings returns the factory configuration.
func DefaultSettings() Settings {
	return Settings{
		PomodoroDuration:        Minutes(DefaultPomodoroMinutes),
		BreakDuration:           Minutes(DefaultBreakMinutes),
		LongBreakDuration:       Minutes(DefaultLongBreakMinutes),
		LongBreakFrequency:      DefaultLongBreakFrequency,
		RingVolume:              DefaultRingVolume,
		PopupEnabled:            true,
		ShowTimeInToolbarWidget: true,
	}
}

// TimeoutToContinuePomodoro is how long a saved, unfinished period stays
// resumable after the process exits. It equals the break duration.
func (s Settings) TimeoutToContinuePomodoro() Duration {
	return s.BreakDuration
}

// Validate checks that the durations and frequency are usable.
func (s Settings) Validate() error {
	switch {
	case s.PomodoroDuration <= 0:
		return fmt.Errorf("%w: pomodoro duration must be positive", ErrInvalidSettings)
	case s.BreakDuration <= 0:
		return fmt.Errorf("%w: break duration must be positive", ErrInvalidSettings)
	case s.LongBreakDuration <= 0:
		return fmt.Errorf("%w: long break duration must be positive", ErrInvalidSettings)
	case s.LongBreakFrequency < 1:
		return fmt.Errorf("%w: long break frequency must be at least 1", ErrInvalidSettings)
	case s.RingVolume < 0 || s.RingVolume > MaxRingVolume:
		return fmt.Errorf("%w: ring volume must be between 0 and %d", ErrInvalidSettings, MaxRingVolume)
	}
	return nil
}
