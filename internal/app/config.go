package app

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dori/pomodoro/internal/db"
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/settings"
)

// Environment overrides
const (
	EnvDataDir            = "POMODORO_DATA_DIR"
	EnvCheckpointInterval = "POMODORO_CHECKPOINT_INTERVAL"
	EnvQuiet              = "POMODORO_QUIET"
)

// DefaultCheckpointInterval bounds how stale the saved last update time can
// get while a period is running.
const DefaultCheckpointInterval = 30 * time.Second

// Config holds application configuration
type Config struct {
	DataDir      string
	DBPath       string
	SettingsPath string

	// CheckpointInterval forces a save while nothing else changes.
	CheckpointInterval time.Duration

	// Quiet turns off desktop notifications whatever settings.yaml says.
	Quiet bool

	// Logger receives transitions and background failures. Nil discards.
	Logger *log.Logger

	// Now is the wall clock. Nil means model.Now.
	Now func() model.Time
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	cfg := &Config{
		CheckpointInterval: getEnvDuration(EnvCheckpointInterval, DefaultCheckpointInterval),
		Quiet:              getEnv(EnvQuiet, "") != "",
	}
	cfg.SetDataDir(getEnv(EnvDataDir, db.DefaultDataDir()))
	return cfg
}

// SetDataDir moves the database and settings file along with the data dir.
func (c *Config) SetDataDir(dir string) {
	c.DataDir = dir
	c.DBPath = filepath.Join(dir, db.FileName)
	c.SettingsPath = filepath.Join(dir, settings.FileName)
}

func (c *Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Logger
}

func (c *Config) now() model.Time {
	if c.Now == nil {
		return model.Now()
	}
	return c.Now()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
