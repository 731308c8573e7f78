package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/dori/pomodoro/internal/db"
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/notify"
	"github.com/dori/pomodoro/internal/pomodoro"
	"github.com/dori/pomodoro/internal/settings"
	"github.com/dori/pomodoro/internal/timesource"
)

// ErrAlreadyRunning is returned when another process holds the data dir.
var ErrAlreadyRunning = errors.New("another instance of pomodoro is already running")

// LockFileName is the single-instance lock inside the data directory.
const LockFileName = "pomodoro.lock"

// App holds the application state and dependencies
type App struct {
	DB           *db.DB
	Settings     *settings.Store
	Model        *pomodoro.Model
	Notifier     *notify.Notifier
	Checkpointer *Checkpointer
	DataDir      string

	cfg         *Config
	logger      *log.Logger
	lockFile    *flock.Flock
	stopWatch   context.CancelFunc
	unsubscribe func()

	errMu   sync.Mutex
	lastErr error
}

// New creates a new application instance: it takes the data dir lock, opens
// storage, restores the timer and reconciles it with the clock.
func New(cfg *Config, opts ...notify.Option) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.logger()

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		DataDir:  cfg.DataDir,
		Notifier: notify.NewNotifier(append([]notify.Option{notify.WithLogger(logger)}, opts...)...),
		cfg:      cfg,
		logger:   logger,
	}
	app.Notifier.SetEnabled(!cfg.Quiet)

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	store, err := settings.Open(cfg.SettingsPath, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	app.Settings = store

	loaded, err := database.LoadState(store.Current().LongBreakFrequency)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Model = pomodoro.New(store, loaded)
	app.Checkpointer = NewCheckpointer(database, loaded, cfg.CheckpointInterval)

	now := cfg.now()
	app.Model.OnStartup(now)
	if restored := app.Model.State(); restored.Mode != loaded.Mode {
		logger.Printf("dropped stale %s period last updated %s", loaded.Mode, loaded.LastUpdateTime)
	}
	if _, err := app.Checkpointer.Checkpoint(app.Model.State(), now); err != nil {
		logger.Printf("%v", err)
	}

	app.Model.AddListener(app.Notifier, app.Notifier.Listener(store))
	app.Model.AddListener(app, app.logTransition)

	app.unsubscribe = store.Subscribe(func(s model.Settings) {
		logger.Printf("settings changed: pomodoro %s, break %s, long break %s every %d",
			s.PomodoroDuration, s.BreakDuration, s.LongBreakDuration, s.LongBreakFrequency)
	})

	return app, nil
}

// WatchSettings reloads settings.yaml when it changes on disk until Close.
func (a *App) WatchSettings() error {
	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Settings.Watch(ctx); err != nil {
		cancel()
		return err
	}
	a.stopWatch = cancel
	return nil
}

// StartTimer drives the model from a time source whose ticks run on d.
func (a *App) StartTimer(d timesource.Dispatcher, opts ...timesource.Option) *timesource.TimeSource {
	opts = append([]timesource.Option{
		timesource.WithDispatcher(d),
		timesource.WithClock(a.cfg.now),
	}, opts...)
	return timesource.New(func(now model.Time) { a.Tick(now) }, opts...).Start()
}

// Now reads the configured clock.
func (a *App) Now() model.Time {
	return a.cfg.now()
}

// Toggle starts a pomodoro or stops the current period.
func (a *App) Toggle() model.State {
	now := a.cfg.now()
	state := a.Model.OnUserSwitchToNextState(now)
	a.checkpoint(state, now)
	return state
}

// Tick advances the model to now.
func (a *App) Tick(now model.Time) model.State {
	state := a.Model.OnTimer(now)
	a.checkpoint(state, now)
	return state
}

// ResetPomodoros zeroes the completed pomodoro counter.
func (a *App) ResetPomodoros() model.State {
	a.Model.ResetPomodoros()
	state := a.Model.State()
	a.checkpoint(state, a.cfg.now())
	return state
}

// Statistics counts history relative to now in the local time zone.
func (a *App) Statistics(now model.Time) model.Statistics {
	return model.StatisticsAt(now, a.Model.State().History, time.Local)
}

func (a *App) checkpoint(state model.State, now model.Time) {
	if _, err := a.Checkpointer.Checkpoint(state, now); err != nil {
		a.logger.Printf("%v", err)
		a.errMu.Lock()
		a.lastErr = err
		a.errMu.Unlock()
	}
}

// TakeError returns the most recent checkpoint failure, if any, and clears
// it.
func (a *App) TakeError() error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	err := a.lastErr
	a.lastErr = nil
	return err
}

func (a *App) logTransition(state model.State, manuallyStopped bool) {
	if state.Mode == state.LastMode {
		return
	}
	how := ""
	if manuallyStopped {
		how = " (stopped)"
	}
	a.logger.Printf("%s -> %s%s, pomodoros %d, %d till long break",
		state.LastMode, state.Mode, how, state.PomodorosAmount, state.PomodorosTillLongBreak)
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, LockFileName)
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return ErrAlreadyRunning
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close saves the final state and cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.Notifier != nil {
		a.Notifier.Wait()
	}

	if a.Model != nil && a.Checkpointer != nil {
		if err := a.Checkpointer.Flush(a.Model.State(), a.cfg.now()); err != nil {
			errs = append(errs, err)
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	return errors.Join(errs...)
}
