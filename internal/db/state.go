package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dori/pomodoro/internal/model"
)

// LoadState reads the persisted timer fields and the full history. An empty
// database yields a fresh state primed with longBreakFrequency.
func (db *DB) LoadState(longBreakFrequency int) (model.State, error) {
	history, err := db.ListHistory()
	if err != nil {
		return model.State{}, err
	}

	var (
		lastMode                  string
		startTime, lastUpdateTime int64
		pomodoros, tillLongBreak  int
	)
	err = db.QueryRow(`
		SELECT last_mode, start_time, last_update_time, pomodoros_amount, pomodoros_till_long_break
		FROM pomodoro_state
		WHERE id = 1
	`).Scan(&lastMode, &startTime, &lastUpdateTime, &pomodoros, &tillLongBreak)
	if errors.Is(err, sql.ErrNoRows) {
		state := model.NewState(longBreakFrequency)
		state.History = history
		return state, nil
	}
	if err != nil {
		return model.State{}, fmt.Errorf("failed to load state: %w", err)
	}

	mode, err := model.ParseMode(lastMode)
	if err != nil {
		return model.State{}, fmt.Errorf("failed to load state: %w", err)
	}

	return model.RestoreState(
		mode,
		model.Time(startTime),
		model.Time(lastUpdateTime),
		pomodoros,
		tillLongBreak,
		history,
	), nil
}

// SaveCheckpoint stores the persisted fields of state and appends added to
// the history in one transaction. Snapshots without an ID get a new one.
func (db *DB) SaveCheckpoint(state model.State, added []model.Snapshot) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if err := saveState(tx, state); err != nil {
			return err
		}
		for _, s := range added {
			if err := insertSnapshot(tx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveState(tx *sql.Tx, state model.State) error {
	_, err := tx.Exec(`
		INSERT INTO pomodoro_state
			(id, last_mode, start_time, last_update_time, pomodoros_amount, pomodoros_till_long_break, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_mode = excluded.last_mode,
			start_time = excluded.start_time,
			last_update_time = excluded.last_update_time,
			pomodoros_amount = excluded.pomodoros_amount,
			pomodoros_till_long_break = excluded.pomodoros_till_long_break,
			updated_at = excluded.updated_at
	`, state.LastMode.String(), state.StartTime.EpochMilli(), state.LastUpdateTime.EpochMilli(),
		state.PomodorosAmount, state.PomodorosTillLongBreak, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func insertSnapshot(tx *sql.Tx, s model.Snapshot) error {
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := tx.Exec(`
		INSERT INTO pomodoro_history (id, start_time, end_time, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, s.StartTime.EpochMilli(), s.EndTime.EpochMilli(), string(s.Status), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// ListHistory returns every recorded pomodoro, oldest first.
func (db *DB) ListHistory() ([]model.Snapshot, error) {
	return db.queryHistory(`
		SELECT id, start_time, end_time, status
		FROM pomodoro_history
		ORDER BY start_time, created_at
	`)
}

func (db *DB) queryHistory(query string, args ...any) ([]model.Snapshot, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var history []model.Snapshot
	for rows.Next() {
		var (
			s          model.Snapshot
			start, end int64
			status     string
		)
		if err := rows.Scan(&s.ID, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		s.StartTime = model.Time(start)
		s.EndTime = model.Time(end)
		s.Status = model.SnapshotStatus(status)
		history = append(history, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return history, nil
}
