package model

// State is the timer record shared with listeners and persisted between runs.
//
// Only LastMode, StartTime, LastUpdateTime, PomodorosAmount,
// PomodorosTillLongBreak and History are stored. Mode and Progress are
// rebuilt on startup.
type State struct {
	Mode                   Mode
	LastMode               Mode
	StartTime              Time
	LastUpdateTime         Time
	PomodorosAmount        int
	Progress               Duration
	PomodorosTillLongBreak int
	History                []Snapshot
}

// NewState returns an idle state with the long break countdown primed.
func NewState(longBreakFrequency int) State {
	return State{
		Mode:                   Stop,
		LastMode:               Stop,
		PomodorosTillLongBreak: longBreakFrequency,
	}
}

// RestoreState rebuilds a state from its persisted fields. Mode is taken
// from lastMode and progress starts at zero until the model reconciles it.
func RestoreState(lastMode Mode, startTime, lastUpdateTime Time, pomodoros, tillLongBreak int, history []Snapshot) State {
	return State{
		Mode:                   lastMode,
		LastMode:               lastMode,
		StartTime:              startTime,
		LastUpdateTime:         lastUpdateTime,
		PomodorosAmount:        pomodoros,
		PomodorosTillLongBreak: tillLongBreak,
		History:                history,
	}
}

// IsLongBreakDue reports whether the next (or current) break is a long one.
func (s State) IsLongBreakDue() bool {
	return s.PomodorosTillLongBreak == 0
}
