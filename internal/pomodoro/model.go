// Package pomodoro implements the timer state machine: work periods, breaks,
// long breaks, restart recovery and change notification.
package pomodoro

import (
	"fmt"
	"sync"

	"github.com/dori/pomodoro/internal/model"
)

// SettingsProvider hands out the current settings snapshot.
type SettingsProvider interface {
	Current() model.Settings
}

// SettingsFunc adapts a plain function to SettingsProvider.
type SettingsFunc func() model.Settings

// Current implements SettingsProvider
func (f SettingsFunc) Current() model.Settings {
	return f()
}

// StaticSettings always returns the same snapshot.
func StaticSettings(s model.Settings) SettingsProvider {
	return SettingsFunc(func() model.Settings { return s })
}

// Listener is notified after every state change. manuallyStopped is true
// when the change was a user stopping a pomodoro or break.
//
// Listeners run synchronously with the model locked and must not call back
// into the model.
type Listener func(state model.State, manuallyStopped bool)

// Model owns the single authoritative timer state.
//
// All entry points are serialized by one mutex that also covers listener
// notification.
type Model struct {
	mu        sync.Mutex
	provider  SettingsProvider
	settings  model.Settings
	state     model.State
	listeners map[any]Listener
}

// New creates a model around a fresh or restored state. The settings
// snapshot is taken now and refreshed only at period boundaries.
func New(provider SettingsProvider, state model.State) *Model {
	return &Model{
		provider:  provider,
		settings:  provider.Current(),
		state:     state,
		listeners: make(map[any]Listener),
	}
}

// OnStartup reconciles a restored state with the wall clock. A period whose
// last update is older than the continuation timeout is dropped; otherwise
// progress is recomputed as if the process had never exited.
//
// Call it once, right after New and before adding listeners. It does not
// notify.
func (m *Model) OnStartup(now model.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Mode == model.Stop {
		return
	}
	elapsed := now.Sub(m.state.LastUpdateTime)
	if elapsed > m.settings.TimeoutToContinuePomodoro() {
		m.state.Mode = model.Stop
		m.state.LastMode = model.Stop
		m.state.StartTime = 0
		m.state.Progress = model.ZeroDuration
		return
	}
	m.updateProgressLocked(now)
}

// OnUserSwitchToNextState starts a pomodoro when stopped, or stops the
// current pomodoro or break.
func (m *Model) OnUserSwitchToNextState(now model.Time) model.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	manuallyStopped := false
	switch m.state.Mode {
	case model.Stop:
		m.state.Mode = model.Run
		m.settings = m.provider.Current()
		m.state.StartTime = now
	case model.Run:
		m.state.Progress = m.progressMaxLocked()
		m.appendHistoryLocked(model.FailedSnapshot(m.state.StartTime, now))
		m.state.Mode = model.Stop
		manuallyStopped = true
		if m.state.PomodorosTillLongBreak == 0 {
			m.state.PomodorosTillLongBreak = m.settings.LongBreakFrequency
		}
	case model.Break:
		m.state.Progress = m.progressMaxLocked()
		m.endBreakLocked()
		m.state.Mode = model.Stop
		manuallyStopped = true
	default:
		panic(fmt.Sprintf("pomodoro: unexpected mode %v", m.state.Mode))
	}

	m.onTimerLocked(now, manuallyStopped)
	return m.state
}

// OnTimer advances the clock. It is driven by the time source.
//
// When a break runs out and the next pomodoro starts on its own, progress
// restarts from zero for the new pomodoro instead of showing the finished
// break as full.
func (m *Model) OnTimer(now model.Time) model.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onTimerLocked(now, false)
	return m.state
}

func (m *Model) onTimerLocked(now model.Time, manuallyStopped bool) {
	switch m.state.Mode {
	case model.Run:
		m.updateProgressLocked(now)
		if now >= m.state.StartTime.Add(m.progressMaxLocked()) {
			m.appendHistoryLocked(model.CompletedSnapshot(m.state.StartTime, now))
			m.state.Mode = model.Break
			m.settings = m.provider.Current()
			m.state.StartTime = now
			m.state.PomodorosAmount++
			if m.state.PomodorosTillLongBreak <= 0 {
				m.state.PomodorosTillLongBreak = m.settings.LongBreakFrequency
			}
			m.state.PomodorosTillLongBreak--
			m.updateProgressLocked(now)
		}
	case model.Break:
		m.updateProgressLocked(now)
		if now >= m.state.StartTime.Add(m.progressMaxLocked()) {
			finished := m.progressMaxLocked()
			m.endBreakLocked()
			m.settings = m.provider.Current()
			if m.settings.StartNewPomodoroAfterBreak {
				m.state.Mode = model.Run
				m.state.StartTime = now
				m.updateProgressLocked(now)
			} else {
				m.state.Mode = model.Stop
				m.state.Progress = finished
			}
		}
	case model.Stop:
		if m.state.LastMode == model.Stop {
			return
		}
	default:
		panic(fmt.Sprintf("pomodoro: unexpected mode %v", m.state.Mode))
	}

	m.notifyLocked(manuallyStopped)
	m.state.LastMode = m.state.Mode
	m.state.LastUpdateTime = now
}

// endBreakLocked resets the long break countdown once a long break is over,
// whether it ran out or was stopped by hand. A stopped long break still
// counts as taken.
func (m *Model) endBreakLocked() {
	if m.state.PomodorosTillLongBreak == 0 {
		m.state.PomodorosTillLongBreak = m.settings.LongBreakFrequency
	}
}

func (m *Model) updateProgressLocked(now model.Time) {
	progress := now.Sub(m.state.StartTime).CapAt(m.progressMaxLocked())
	if progress < 0 {
		progress = model.ZeroDuration
	}
	m.state.Progress = progress
}

func (m *Model) progressMaxLocked() model.Duration {
	switch m.state.Mode {
	case model.Run:
		return m.settings.PomodoroDuration
	case model.Break:
		if m.state.PomodorosTillLongBreak == 0 {
			return m.settings.LongBreakDuration
		}
		return m.settings.BreakDuration
	default:
		return model.ZeroDuration
	}
}

func (m *Model) appendHistoryLocked(s model.Snapshot) {
	m.state.History = append(m.state.History, s)
}

func (m *Model) notifyLocked(manuallyStopped bool) {
	for _, listener := range m.listeners {
		listener(m.state, manuallyStopped)
	}
}

// ResetPomodoros zeroes the completed pomodoro counter and notifies
// listeners. Mode, progress and history are left alone.
func (m *Model) ResetPomodoros() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.PomodorosAmount = 0
	m.notifyLocked(false)
}

// AddListener registers l under key, replacing any listener already there.
// key must be comparable.
func (m *Model) AddListener(key any, l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[key] = l
}

// RemoveListener unregisters the listener stored under key.
func (m *Model) RemoveListener(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, key)
}

// State returns a copy of the current state.
func (m *Model) State() model.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ProgressMax is the length of the current period: the pomodoro duration
// while running, the short or long break duration during a break, zero when
// stopped.
func (m *Model) ProgressMax() model.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progressMaxLocked()
}

// TimeLeft is ProgressMax minus progress, never negative.
func (m *Model) TimeLeft() model.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	left := m.progressMaxLocked() - m.state.Progress
	if left < 0 {
		return model.ZeroDuration
	}
	return left
}
