package model

import (
	"fmt"
	"strings"
)

// Mode is the phase the timer is in.
type Mode int

const (
	// Stop means the timer was never started or was stopped during a pomodoro or break.
	Stop Mode = iota
	// Run means a pomodoro is in progress.
	Run
	// Break follows a completed pomodoro.
	Break
)

// String returns the persisted name of the mode
func (m Mode) String() string {
	switch m {
	case Stop:
		return "STOP"
	case Run:
		return "RUN"
	case Break:
		return "BREAK"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Label returns a display name for the mode
func (m Mode) Label() string {
	switch m {
	case Run:
		return "Pomodoro"
	case Break:
		return "Break"
	default:
		return "Stopped"
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == Stop || m == Run || m == Break
}

// ParseMode parses a persisted mode name. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STOP":
		return Stop, nil
	case "RUN":
		return Run, nil
	case "BREAK":
		return Break, nil
	}
	return Stop, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
