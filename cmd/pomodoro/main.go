package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/pomodoro/internal/app"
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/ui"
	"github.com/dori/pomodoro/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	// Subcommand handling
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "status":
			exitOnError(handleStatus(os.Args[2:], os.Stdout))
			return
		case "reset":
			exitOnError(handleReset(os.Args[2:], os.Stdout))
			return
		case "version":
			fmt.Printf("pomodoro v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Parse flags for TUI mode
	cfg := app.DefaultConfig()
	fs := newFlagSet("pomodoro", cfg)
	themeFlag := fs.String("theme", "", "Theme name (nord, dracula, gruvbox, catppuccin)")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Disable desktop notifications (or $"+app.EnvQuiet+")")
	fs.Parse(os.Args[1:])

	exitOnError(runTUI(cfg, *themeFlag))
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newFlagSet registers the flags every mode shares.
func newFlagSet(name string, cfg *app.Config) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Func("data-dir", "Data directory (default "+cfg.DataDir+", or $"+app.EnvDataDir+")", func(dir string) error {
		cfg.SetDataDir(dir)
		return nil
	})
	return fs
}

func printHelp() {
	help := `pomodoro - A pomodoro timer for the terminal

Usage:
  pomodoro                  Start the TUI
  pomodoro status           Show the timer and history
  pomodoro reset            Reset the completed pomodoro count
  pomodoro version          Show version
  pomodoro help             Show this help

Options:
  --data-dir <dir>  Where the database and settings.yaml live
  --theme <name>    Theme (nord, dracula, gruvbox, catppuccin)
  --quiet           No desktop notifications
  --json            Machine readable output (status only)

Keybindings:
  space/enter   Start a pomodoro, or stop the current pomodoro or break
  r             Reset the pomodoro count
  s             Toggle history stats
  T             Cycle theme
  ?             Help
  q             Quit

Durations, the long break frequency and notification toggles are read
from settings.yaml in the data directory and reloaded when it changes.`

	fmt.Println(help)
}

type statusOutput struct {
	Mode                   string           `json:"mode"`
	TimeLeftSeconds        int64            `json:"time_left_seconds"`
	PomodorosAmount        int              `json:"pomodoros"`
	PomodorosTillLongBreak int              `json:"pomodoros_till_long_break"`
	Statistics             model.Statistics `json:"statistics"`
}

func handleStatus(args []string, out io.Writer) error {
	cfg := app.DefaultConfig()
	fs := newFlagSet("status", cfg)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Parse(args)

	status, err := app.ReadStatus(cfg)
	if err != nil {
		return err
	}
	state := status.State

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statusOutput{
			Mode:                   state.Mode.String(),
			TimeLeftSeconds:        int64(status.TimeLeft.Std().Seconds()),
			PomodorosAmount:        state.PomodorosAmount,
			PomodorosTillLongBreak: state.PomodorosTillLongBreak,
			Statistics:             status.Statistics,
		})
	}

	fmt.Fprintf(out, "Mode:          %s\n", state.Mode.Label())
	if state.Mode != model.Stop {
		fmt.Fprintf(out, "Time left:     %s\n", status.TimeLeft.Clock())
	}
	fmt.Fprintf(out, "Pomodoros:     %d (%d till long break)\n", state.PomodorosAmount, state.PomodorosTillLongBreak)
	printCounts(out, "Today:", status.Statistics.Today)
	printCounts(out, "Past 7 days:", status.Statistics.PastWeek)
	printCounts(out, "Past 28 days:", status.Statistics.Past28Day)
	return nil
}

func printCounts(out io.Writer, label string, c model.Counts) {
	fmt.Fprintf(out, "%-14s %d completed, %d failed\n", label, c.Completed, c.Failed)
}

func handleReset(args []string, out io.Writer) error {
	cfg := app.DefaultConfig()
	fs := newFlagSet("reset", cfg)
	fs.Parse(args)
	cfg.Logger = log.New(os.Stderr, "pomodoro: ", 0)

	application, err := app.New(cfg)
	if err != nil {
		if errors.Is(err, app.ErrAlreadyRunning) {
			return fmt.Errorf("%w; press r in the running TUI instead", err)
		}
		return err
	}
	application.ResetPomodoros()
	if err := application.Close(); err != nil {
		return err
	}

	fmt.Fprintln(out, "Pomodoro count reset")
	return nil
}

func runTUI(cfg *app.Config, themeName string) error {
	if themeName != "" {
		t, ok := theme.ByName(themeName)
		if !ok {
			return fmt.Errorf("unknown theme %q", themeName)
		}
		theme.SetTheme(t)
	}

	// Logs go to a file so they do not corrupt the TUI
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "pomodoro.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	cfg.Logger = log.New(logFile, "", log.LstdFlags)

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.WatchSettings(); err != nil {
		cfg.Logger.Printf("settings will not reload: %v", err)
	}

	p := tea.NewProgram(
		ui.NewRootModel(application),
		tea.WithAltScreen(),
	)

	ts := application.StartTimer(ui.NewDispatcher(p))
	defer ts.Stop()

	unsubscribe := application.Settings.Subscribe(func(s model.Settings) {
		// Subscribers can run inside Update; Send must not block it.
		go p.Send(ui.SettingsChangedMsg{Settings: s})
	})
	defer unsubscribe()

	_, err = p.Run()
	return err
}
