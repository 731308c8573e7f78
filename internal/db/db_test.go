package db

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/pomodoro/internal/model"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), FileName)
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func ms(minutes int) model.Time {
	return model.Time(0).Add(model.Minutes(minutes))
}

func TestLoadStateEmptyDatabase(t *testing.T) {
	db, _ := openTestDB(t)

	state, err := db.LoadState(4)
	require.NoError(t, err)
	assert.Equal(t, model.NewState(4), state)
}

func TestSaveCheckpointRoundTrip(t *testing.T) {
	db, dbPath := openTestDB(t)

	state := model.State{
		Mode:                   model.Break,
		LastMode:               model.Break,
		StartTime:              ms(25),
		LastUpdateTime:         ms(27),
		PomodorosAmount:        3,
		Progress:               model.Minutes(2),
		PomodorosTillLongBreak: 1,
	}
	added := []model.Snapshot{
		model.FailedSnapshot(ms(-40), ms(-30)),
		model.CompletedSnapshot(ms(0), ms(25)),
	}
	require.NoError(t, db.SaveCheckpoint(state, added))

	// Reopening runs the migrations again; they must be a no-op.
	require.NoError(t, db.Close())
	reopened, err := Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadState(4)
	require.NoError(t, err)
	assert.Equal(t, model.Break, loaded.Mode)
	assert.Equal(t, model.Break, loaded.LastMode)
	assert.Equal(t, ms(25), loaded.StartTime)
	assert.Equal(t, ms(27), loaded.LastUpdateTime)
	assert.Equal(t, 3, loaded.PomodorosAmount)
	assert.Equal(t, 1, loaded.PomodorosTillLongBreak)
	assert.Equal(t, model.ZeroDuration, loaded.Progress, "progress is rebuilt, not stored")

	require.Len(t, loaded.History, 2)
	for i, s := range loaded.History {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, added[i].StartTime, s.StartTime)
		assert.Equal(t, added[i].EndTime, s.EndTime)
		assert.Equal(t, added[i].Status, s.Status)
	}
}

func TestSaveCheckpointOverwritesState(t *testing.T) {
	db, _ := openTestDB(t)

	first := model.RestoreState(model.Run, ms(0), ms(1), 0, 4, nil)
	require.NoError(t, db.SaveCheckpoint(first, nil))
	second := model.RestoreState(model.Stop, ms(0), ms(3), 0, 4, nil)
	require.NoError(t, db.SaveCheckpoint(second, nil))

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM pomodoro_state`).Scan(&rows))
	assert.Equal(t, 1, rows)

	loaded, err := db.LoadState(4)
	require.NoError(t, err)
	assert.Equal(t, model.Stop, loaded.Mode)
	assert.Equal(t, ms(3), loaded.LastUpdateTime)
}

func TestSaveCheckpointIsAtomic(t *testing.T) {
	db, _ := openTestDB(t)

	kept := model.RestoreState(model.Run, ms(0), ms(1), 1, 3, nil)
	snap := model.CompletedSnapshot(ms(-30), ms(-5))
	snap.ID = "fixed"
	require.NoError(t, db.SaveCheckpoint(kept, []model.Snapshot{snap}))

	// The duplicate ID fails the insert, so the state update is rolled back.
	changed := model.RestoreState(model.Break, ms(25), ms(25), 2, 2, nil)
	err := db.SaveCheckpoint(changed, []model.Snapshot{snap})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save history")

	loaded, err := db.LoadState(4)
	require.NoError(t, err)
	assert.Equal(t, model.Run, loaded.Mode)
	assert.Equal(t, 1, loaded.PomodorosAmount)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "fixed", loaded.History[0].ID)
}

func TestListHistoryOrdersByStart(t *testing.T) {
	db, _ := openTestDB(t)

	require.NoError(t, db.SaveCheckpoint(model.NewState(4), []model.Snapshot{
		model.CompletedSnapshot(ms(100), ms(125)),
		model.FailedSnapshot(ms(0), ms(10)),
		model.CompletedSnapshot(ms(50), ms(75)),
	}))

	all, err := db.ListHistory()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ms(0), all[0].StartTime)
	assert.Equal(t, ms(50), all[1].StartTime)
	assert.Equal(t, ms(100), all[2].StartTime)
	assert.Equal(t, model.Failed, all[0].Status)
}

// TestConcurrentCheckpointsNoDeadlock guards the single-connection pool:
// checkpoints from the TUI and reads from other goroutines must interleave
// without hanging.
func TestConcurrentCheckpointsNoDeadlock(t *testing.T) {
	db, _ := openTestDB(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					state := model.RestoreState(model.Run, ms(i), ms(j), j, 4, nil)
					if err := db.SaveCheckpoint(state, []model.Snapshot{model.CompletedSnapshot(ms(j), ms(j+1))}); err != nil {
						t.Errorf("SaveCheckpoint failed: %v", err)
						return
					}
					if _, err := db.LoadState(4); err != nil {
						t.Errorf("LoadState failed: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}

	history, err := db.ListHistory()
	require.NoError(t, err)
	assert.Len(t, history, 40)
}
