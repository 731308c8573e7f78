package ui

import "github.com/dori/pomodoro/internal/model"

// View represents the current active view
type View int

const (
	ViewTimer View = iota
	ViewStats
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewTimer:
		return "Timer"
	case ViewStats:
		return "Stats"
	default:
		return "Unknown"
	}
}

// Messages for inter-component communication

// dispatchMsg carries work queued from another goroutine onto the update
// loop.
type dispatchMsg struct {
	fn func()
}

// SettingsChangedMsg is sent when settings.yaml was edited or saved.
type SettingsChangedMsg struct {
	Settings model.Settings
}
