package notify

import (
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
	Sound   string // Optional freedesktop sound name

	// Transient notifications are not kept in the notification history.
	Transient bool
}

// Runner executes an external command. Tests replace it.
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

const ringSound = "alarm-clock-elapsed"

// Notifier handles sending desktop notifications
type Notifier struct {
	mu      sync.Mutex
	enabled bool
	run     Runner
	logger  *log.Logger
	pending sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(n *Notifier) {
		if run != nil {
			n.run = run
		}
	}
}

// WithLogger sets where delivery failures are reported.
func WithLogger(logger *log.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier creates a new notifier
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		enabled: true,
		run:     execRunner,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// Args builds the notify-send command line for notification.
func Args(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// Timeout is in milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	if notification.Sound != "" {
		args = append(args, "-h", "string:sound-name:"+notification.Sound)
	}

	if notification.Transient {
		args = append(args, "-e")
	}

	args = append(args, "-a", "pomodoro")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.IsEnabled() {
		return nil
	}
	return n.run("notify-send", Args(notification)...)
}

// SendAsync sends in the background and logs failures. Wait blocks until
// every pending send has finished.
func (n *Notifier) SendAsync(notification Notification) {
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		if err := n.Send(notification); err != nil {
			n.logger.Printf("notify: failed to send %q: %v", notification.Title, err)
		}
	}()
}

// Wait blocks until all SendAsync calls have completed.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

// BreakStarted is shown when a pomodoro completes.
func BreakStarted(long bool, ring bool) Notification {
	note := Notification{
		Title:   "Pomodoro Complete!",
		Body:    "Time for a break.",
		Urgency: UrgencyNormal,
		Timeout: 10 * time.Second,
		Icon:    "alarm-symbolic",
	}
	if long {
		note.Body = "Time for a long break."
	}
	if ring {
		note.Sound = ringSound
	}
	return note
}

// PomodoroStarted is shown when a break runs out and the next pomodoro
// starts on its own.
func PomodoroStarted(ring bool) Notification {
	note := Notification{
		Title:   "Break Over",
		Body:    "New pomodoro started.",
		Urgency: UrgencyNormal,
		Timeout: 10 * time.Second,
		Icon:    "appointment-soon-symbolic",
	}
	if ring {
		note.Sound = ringSound
	}
	return note
}

// Ring carries only the sound. It expires quickly and is not kept.
func Ring() Notification {
	return Notification{
		Title:     "Pomodoro",
		Urgency:   UrgencyLow,
		Timeout:   time.Second,
		Sound:     ringSound,
		Transient: true,
	}
}
