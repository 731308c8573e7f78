package model

import (
	"fmt"
	"time"
)

// Time is a point in time with millisecond resolution, counted from the Unix
// epoch. The zero value is the epoch itself.
type Time int64

// Duration is a span of time. It is ordered like time.Duration and may go
// negative in intermediate computations.
type Duration time.Duration

// ZeroDuration is the progress of a period that has not started.
const ZeroDuration Duration = 0

// Now returns the current wall-clock time.
func Now() Time {
	return TimeOf(time.Now())
}

// TimeOf converts a time.Time.
func TimeOf(t time.Time) Time {
	return Time(t.UnixMilli())
}

// Std returns the time as a time.Time in the local zone.
func (t Time) Std() time.Time {
	return time.UnixMilli(int64(t))
}

// EpochMilli returns milliseconds since the Unix epoch.
func (t Time) EpochMilli() int64 {
	return int64(t)
}

// Add returns t+d, truncated to milliseconds.
func (t Time) Add(d Duration) Time {
	return t + Time(time.Duration(d)/time.Millisecond)
}

// Sub returns the duration t-u.
func (t Time) Sub(u Time) Duration {
	return Duration(time.Duration(t-u) * time.Millisecond)
}

// AtStartOfDay truncates t to midnight in loc.
func (t Time) AtStartOfDay(loc *time.Location) Time {
	if loc == nil {
		loc = time.Local
	}
	st := t.Std().In(loc)
	return TimeOf(time.Date(st.Year(), st.Month(), st.Day(), 0, 0, 0, 0, loc))
}

func (t Time) String() string {
	return t.Std().UTC().Format(time.RFC3339Nano)
}

// Minutes returns a duration of n minutes.
func Minutes(n int) Duration {
	return Duration(time.Duration(n) * time.Minute)
}

// Days returns a duration of n 24-hour days.
func Days(n int) Duration {
	return Duration(time.Duration(n) * 24 * time.Hour)
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Minutes returns the number of whole minutes in d.
func (d Duration) Minutes() int64 {
	return int64(time.Duration(d) / time.Minute)
}

// CapAt returns max if d exceeds it.
func (d Duration) CapAt(max Duration) Duration {
	if d > max {
		return max
	}
	return d
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Clock formats d as MM:SS, rounding up to the next second so a countdown
// never shows 00:00 before it ends.
func (d Duration) Clock() string {
	if d < 0 {
		d = 0
	}
	seconds := (time.Duration(d) + time.Second - 1) / time.Second
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
