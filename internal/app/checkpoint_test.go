package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/pomodoro/internal/model"
)

type memoryStore struct {
	saves []model.State
	added [][]model.Snapshot
	err   error
}

func (m *memoryStore) SaveCheckpoint(state model.State, added []model.Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, state)
	m.added = append(m.added, added)
	return nil
}

func TestCheckpointerSavesOnChange(t *testing.T) {
	store := &memoryStore{}
	loaded := model.NewState(4)
	c := NewCheckpointer(store, loaded, time.Minute)

	saved, err := c.Checkpoint(loaded, 0)
	require.NoError(t, err)
	assert.False(t, saved, "nothing changed")

	running := loaded
	running.Mode, running.LastMode = model.Run, model.Run
	running.StartTime = 1000
	running.LastUpdateTime = 1000
	saved, err = c.Checkpoint(running, 1000)
	require.NoError(t, err)
	assert.True(t, saved)

	// Only the last update time moved, and the interval has not passed.
	running.LastUpdateTime = 30_000
	saved, err = c.Checkpoint(running, 30_000)
	require.NoError(t, err)
	assert.False(t, saved)

	running.LastUpdateTime = 61_000
	saved, err = c.Checkpoint(running, 61_000)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Len(t, store.saves, 2)
}

func TestCheckpointerAppendsNewHistoryOnly(t *testing.T) {
	store := &memoryStore{}
	first := model.CompletedSnapshot(0, 1000)
	loaded := model.NewState(4)
	loaded.History = []model.Snapshot{first}
	c := NewCheckpointer(store, loaded, time.Minute)

	next := loaded
	second := model.FailedSnapshot(2000, 3000)
	next.History = append([]model.Snapshot{first}, second)
	saved, err := c.Checkpoint(next, 3000)
	require.NoError(t, err)
	require.True(t, saved)
	assert.Equal(t, []model.Snapshot{second}, store.added[0])

	require.NoError(t, c.Flush(next, 4000))
	assert.Empty(t, store.added[1])
}

func TestCheckpointerRetriesAfterFailure(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	loaded := model.NewState(4)
	c := NewCheckpointer(store, loaded, time.Minute)

	changed := loaded
	changed.PomodorosAmount = 1
	_, err := c.Checkpoint(changed, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to checkpoint")

	store.err = nil
	saved, err := c.Checkpoint(changed, 0)
	require.NoError(t, err)
	assert.True(t, saved)
}
