package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dori/pomodoro/internal/model"
)

// CheckpointStore persists timer state. *db.DB implements it.
type CheckpointStore interface {
	SaveCheckpoint(state model.State, added []model.Snapshot) error
}

// Checkpointer decides when the timer state is worth writing. A save
// happens when the mode, start time or counters change, when history grows,
// or when the interval has passed since the previous save.
type Checkpointer struct {
	store    CheckpointStore
	interval model.Duration

	mu           sync.Mutex
	saved        model.State
	savedHistory int
	savedAt      model.Time
}

// NewCheckpointer starts from the state as it was loaded, so unchanged
// fields are not rewritten.
func NewCheckpointer(store CheckpointStore, loaded model.State, interval time.Duration) *Checkpointer {
	return &Checkpointer{
		store:        store,
		interval:     model.Duration(interval),
		saved:        loaded,
		savedHistory: len(loaded.History),
	}
}

// Checkpoint saves state if it differs from the last save or the interval
// has elapsed. It reports whether a write happened.
func (c *Checkpointer) Checkpoint(state model.State, now model.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dueLocked(state, now) {
		return false, nil
	}
	if err := c.saveLocked(state, now); err != nil {
		return false, err
	}
	return true, nil
}

// Flush saves state unconditionally.
func (c *Checkpointer) Flush(state model.State, now model.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(state, now)
}

func (c *Checkpointer) dueLocked(state model.State, now model.Time) bool {
	switch {
	case state.LastMode != c.saved.LastMode,
		state.StartTime != c.saved.StartTime,
		state.PomodorosAmount != c.saved.PomodorosAmount,
		state.PomodorosTillLongBreak != c.saved.PomodorosTillLongBreak,
		len(state.History) != c.savedHistory:
		return true
	default:
		return now.Sub(c.savedAt) >= c.interval && state.LastUpdateTime != c.saved.LastUpdateTime
	}
}

func (c *Checkpointer) saveLocked(state model.State, now model.Time) error {
	var added []model.Snapshot
	if len(state.History) > c.savedHistory {
		added = state.History[c.savedHistory:]
	}
	if err := c.store.SaveCheckpoint(state, added); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	c.saved = state
	c.savedHistory = len(state.History)
	c.savedAt = now
	return nil
}
