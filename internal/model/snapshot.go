package model

import "time"

// SnapshotStatus is the outcome of a pomodoro.
type SnapshotStatus string

const (
	Completed SnapshotStatus = "completed"
	Failed    SnapshotStatus = "failed"
)

// Snapshot is one finished or abandoned pomodoro in the history.
type Snapshot struct {
	ID        string         `json:"id,omitempty"`
	StartTime Time           `json:"start_time"`
	EndTime   Time           `json:"end_time"`
	Status    SnapshotStatus `json:"status"`
}

// CompletedSnapshot records a pomodoro that ran to its end.
func CompletedSnapshot(start, end Time) Snapshot {
	return Snapshot{StartTime: start, EndTime: end, Status: Completed}
}

// FailedSnapshot records a pomodoro stopped by the user.
func FailedSnapshot(start, end Time) Snapshot {
	return Snapshot{StartTime: start, EndTime: end, Status: Failed}
}

// Period is a statistics window ending at a reference time.
type Period int

const (
	PeriodToday Period = iota
	PeriodPastWeek
	PeriodPast28Days
)

// Lookback returns how far before the reference day's start the window opens.
func (p Period) Lookback() Duration {
	switch p {
	case PeriodPastWeek:
		return Days(7)
	case PeriodPast28Days:
		return Days(28)
	default:
		return ZeroDuration
	}
}

// Counts holds per-status totals for one period.
type Counts struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Statistics groups counts for the standard periods.
type Statistics struct {
	Today     Counts `json:"today"`
	PastWeek  Counts `json:"past_week"`
	Past28Day Counts `json:"past_28_days"`
}

// InPeriod reports whether the snapshot started inside
// [start of reference day - lookback, reference].
func (s Snapshot) InPeriod(reference Time, period Period, loc *time.Location) bool {
	from := reference.AtStartOfDay(loc).Add(-period.Lookback())
	return s.StartTime >= from && s.StartTime <= reference
}

// StatisticsAt counts history entries in each period relative to reference.
func StatisticsAt(reference Time, history []Snapshot, loc *time.Location) Statistics {
	return Statistics{
		Today:     countsInPeriod(history, reference, PeriodToday, loc),
		PastWeek:  countsInPeriod(history, reference, PeriodPastWeek, loc),
		Past28Day: countsInPeriod(history, reference, PeriodPast28Days, loc),
	}
}

func countsInPeriod(history []Snapshot, reference Time, period Period, loc *time.Location) Counts {
	var counts Counts
	for _, s := range history {
		if !s.InPeriod(reference, period, loc) {
			continue
		}
		switch s.Status {
		case Completed:
			counts.Completed++
		case Failed:
			counts.Failed++
		}
	}
	return counts
}
