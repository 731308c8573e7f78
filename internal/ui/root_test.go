package ui

import (
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/pomodoro/internal/app"
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/notify"
	"github.com/dori/pomodoro/internal/settings"
	"github.com/dori/pomodoro/internal/ui/theme"
)

func newTestApp(t *testing.T) (*app.App, *atomic.Int64) {
	t.Helper()
	var clock atomic.Int64
	cfg := &app.Config{
		CheckpointInterval: time.Minute,
		Now:                func() model.Time { return model.Time(clock.Load()) },
	}
	cfg.SetDataDir(t.TempDir())

	s := model.DefaultSettings()
	s.PomodoroDuration = model.Minutes(2)
	s.BreakDuration = model.Minutes(1)
	require.NoError(t, settings.Save(cfg.SettingsPath, s))

	a, err := app.New(cfg, notify.WithRunner(func(string, ...string) error { return nil }))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, &clock
}

func update(t *testing.T, m RootModel, msg tea.Msg) (RootModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	root, ok := next.(RootModel)
	require.True(t, ok)
	return root, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRootModelToggleAndTick(t *testing.T) {
	a, clock := newTestApp(t)
	m := NewRootModel(a)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, model.Stop, m.state.Mode)
	assert.Contains(t, m.View(), "02:00")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, model.Run, m.state.Mode)
	assert.Equal(t, model.Minutes(2), m.progressMax)

	clock.Store(int64(model.Minutes(1).Std() / time.Millisecond))
	m, _ = update(t, m, dispatchMsg{fn: func() { a.Tick(a.Now()) }})
	assert.Equal(t, model.Minutes(1), m.state.Progress)
	assert.InDelta(t, 0.5, m.percent(), 0.001)
	assert.Contains(t, m.View(), "01:00")
	assert.Contains(t, m.View(), "Pomodoro")

	clock.Store(int64(model.Minutes(2).Std() / time.Millisecond))
	m, _ = update(t, m, dispatchMsg{fn: func() { a.Tick(a.Now()) }})
	assert.Equal(t, model.Break, m.state.Mode)
	assert.Equal(t, 1, m.state.PomodorosAmount)
	assert.Equal(t, 1, m.stats.Past28Day.Completed)
}

func TestRootModelReset(t *testing.T) {
	a, clock := newTestApp(t)
	m := NewRootModel(a)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	clock.Store(int64(model.Minutes(2).Std() / time.Millisecond))
	m, _ = update(t, m, dispatchMsg{fn: func() { a.Tick(a.Now()) }})
	require.Equal(t, 1, m.state.PomodorosAmount)

	m, _ = update(t, m, keyRunes("r"))
	assert.Equal(t, 0, m.state.PomodorosAmount)
	assert.Equal(t, "Pomodoro count reset", m.statusMsg)
}

func TestRootModelViewsAndTheme(t *testing.T) {
	a, _ := newTestApp(t)
	m := NewRootModel(a)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = update(t, m, keyRunes("s"))
	assert.Equal(t, ViewStats, m.currentView)
	assert.Contains(t, m.View(), "Past 28 days")
	assert.Contains(t, m.View(), a.Settings.Path())
	m, _ = update(t, m, keyRunes("s"))
	assert.Equal(t, ViewTimer, m.currentView)

	defer theme.SetTheme(theme.Current.Theme)
	before := theme.Current.Theme.Name
	m, _ = update(t, m, keyRunes("T"))
	assert.NotEqual(t, before, theme.Current.Theme.Name)
	assert.Contains(t, m.statusMsg, theme.Current.Theme.Name)

	m, _ = update(t, m, keyRunes("?"))
	assert.True(t, m.helpVisible)
}

func TestRootModelQuit(t *testing.T) {
	a, _ := newTestApp(t)
	m := NewRootModel(a)

	_, cmd := update(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRootModelSettingsChanged(t *testing.T) {
	a, _ := newTestApp(t)
	m := NewRootModel(a)

	s := model.DefaultSettings()
	m, _ = update(t, m, SettingsChangedMsg{Settings: s})
	assert.Contains(t, m.statusMsg, "Settings reloaded")
}

type sendRecorder struct {
	msgs []tea.Msg
}

func (r *sendRecorder) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestDispatcherWrapsTasks(t *testing.T) {
	rec := &sendRecorder{}
	d := NewDispatcher(rec)

	ran := false
	d.Dispatch(func() { ran = true })
	require.Len(t, rec.msgs, 1)
	assert.False(t, ran, "the task runs only when the update loop handles it")

	msg, ok := rec.msgs[0].(dispatchMsg)
	require.True(t, ok)
	msg.fn()
	assert.True(t, ran)
}
