package notify

import (
	"github.com/dori/pomodoro/internal/model"
	"github.com/dori/pomodoro/internal/pomodoro"
)

// Listener announces break boundaries. It is meant to be registered on a
// pomodoro.Model.
//
// Every boundary rings when the ring volume is above zero. Popups are shown
// only when PopupEnabled is set; with popups off the ring goes out as a
// transient notification carrying just the sound. A break that runs out
// rings, and a new pomodoro started after it also gets a popup. Breaks
// stopped by the user stay silent.
func (n *Notifier) Listener(settings pomodoro.SettingsProvider) pomodoro.Listener {
	return func(state model.State, manuallyStopped bool) {
		s := settings.Current()
		ring := s.RingVolume > 0

		var popup Notification
		switch {
		case state.Mode == model.Break && state.LastMode != model.Break:
			popup = BreakStarted(state.IsLongBreakDue(), ring)
		case state.LastMode == model.Break && state.Mode == model.Run:
			popup = PomodoroStarted(ring)
		case state.LastMode == model.Break && state.Mode == model.Stop && !manuallyStopped:
			// Only the sound, even with popups on.
			if ring {
				n.SendAsync(Ring())
			}
			return
		default:
			return
		}

		switch {
		case s.PopupEnabled:
			n.SendAsync(popup)
		case ring:
			n.SendAsync(Ring())
		}
	}
}
