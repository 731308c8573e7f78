package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/pomodoro/internal/app"
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/ui/theme"
)

// RootModel is the bubbletea host for the timer. Every model call happens
// inside Update, which bubbletea runs on a single goroutine; time source
// ticks reach it as dispatchMsg.
type RootModel struct {
	app      *app.App
	keys     KeyMap
	help     help.Model
	progress progress.Model
	width    int
	height   int

	currentView View
	helpVisible bool

	// Snapshot of the timer and the user's current settings, taken after
	// every change
	state       model.State
	progressMax model.Duration
	timeLeft    model.Duration
	settings    model.Settings
	stats       model.Statistics

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(application *app.App) RootModel {
	h := help.New()
	h.ShowAll = false

	m := RootModel{
		app:         application,
		keys:        DefaultKeyMap(),
		help:        h,
		progress:    progress.New(progress.WithSolidFill(string(theme.Current.Theme.Stopped)), progress.WithoutPercentage()),
		currentView: ViewTimer,
	}
	m.refresh()
	return m
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-12, 10), 60)

	case dispatchMsg:
		msg.fn()
		m.refresh()

	case SettingsChangedMsg:
		m.statusMsg = fmt.Sprintf("Settings reloaded: %s / %s", msg.Settings.PomodoroDuration, msg.Settings.BreakDuration)
		m.refresh()

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Toggle):
			m.app.Toggle()
			m.refresh()

		case key.Matches(msg, m.keys.Reset):
			m.app.ResetPomodoros()
			m.statusMsg = "Pomodoro count reset"
			m.refresh()

		case key.Matches(msg, m.keys.Stats):
			if m.currentView == ViewStats {
				m.currentView = ViewTimer
			} else {
				m.currentView = ViewStats
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			next := theme.Next(theme.Current.Theme.Name)
			theme.SetTheme(next)
			m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)

		case key.Matches(msg, m.keys.Help):
			m.helpVisible = !m.helpVisible
			m.help.ShowAll = m.helpVisible
		}
	}

	return m, nil
}

func (m *RootModel) refresh() {
	timer := m.app.Model
	m.state = timer.State()
	m.progressMax = timer.ProgressMax()
	m.timeLeft = timer.TimeLeft()
	m.settings = m.app.Settings.Current()
	m.stats = m.app.Statistics(m.app.Now())
	if err := m.app.TakeError(); err != nil {
		m.errorMsg = err.Error()
	}
}

// percent is the share of the current period already elapsed.
func (m RootModel) percent() float64 {
	if m.progressMax <= 0 {
		return 0
	}
	return float64(m.state.Progress) / float64(m.progressMax)
}

// clock is the countdown shown in the timer panel. When stopped it shows
// the length of the next pomodoro.
func (m RootModel) clock() string {
	if m.state.Mode == model.Stop {
		return m.settings.PomodoroDuration.Clock()
	}
	return m.timeLeft.Clock()
}

func (m RootModel) modeLabel() string {
	if m.state.Mode == model.Break && m.state.IsLongBreakDue() {
		return "Long Break"
	}
	return m.state.Mode.Label()
}

// View renders the model
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string
	switch m.currentView {
	case ViewStats:
		content = m.renderStats()
	default:
		content = m.renderTimer()
	}

	sections := []string{m.renderHeader(), content, m.renderFooter()}
	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("pomodoro")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.currentView))
	themeIndicator := viewStyle.Render(fmt.Sprintf("theme: %s", t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	gap := max(m.width-lipgloss.Width(leftSide)-lipgloss.Width(themeIndicator), 0)

	return leftSide + strings.Repeat(" ", gap) + themeIndicator
}

func (m RootModel) renderTimer() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	color := t.ModeColor(m.state.Mode, m.state.IsLongBreakDue())

	bar := m.progress
	bar.FullColor = string(color)

	mode := lipgloss.NewStyle().Foreground(color).Bold(true).Render(m.modeLabel())
	clock := styles.Clock.Foreground(color).Render(m.clock())

	count := fmt.Sprintf("%s %s   %s %s",
		styles.Label.Render("Pomodoros:"),
		styles.Value.Render(fmt.Sprint(m.state.PomodorosAmount)),
		styles.Label.Render("Long break in:"),
		styles.Value.Render(fmt.Sprint(m.state.PomodorosTillLongBreak)),
	)

	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, mode, clock),
		"",
		bar.ViewAs(m.percent()),
		"",
		count,
	)
	return styles.Panel.Render(body)
}

func (m RootModel) renderStats() string {
	styles := theme.Current.Styles

	row := func(label string, c model.Counts) string {
		return fmt.Sprintf("%-14s %s %-4d %s %d",
			label,
			styles.Label.Render("completed"),
			c.Completed,
			styles.Label.Render("failed"),
			c.Failed,
		)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.PanelTitle.Render("History"),
		"",
		row("Today", m.stats.Today),
		row("Past 7 days", m.stats.PastWeek),
		row("Past 28 days", m.stats.Past28Day),
		"",
		styles.Label.Render("settings ")+m.app.Settings.Path(),
	)
	return styles.Panel.Render(body)
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	var lines []string
	switch {
	case m.errorMsg != "":
		lines = append(lines, styles.Error.Render(m.errorMsg))
	case m.statusMsg != "":
		lines = append(lines, styles.Status.Render(m.statusMsg))
	}
	lines = append(lines, styles.Footer.Render(m.help.View(m.keys)))
	return strings.Join(lines, "\n")
}
