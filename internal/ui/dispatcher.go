package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Sender is the part of *tea.Program the dispatcher needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Dispatcher runs tasks inside the bubbletea update loop, so the model is
// only ever touched from that one goroutine. Send blocks until the program
// has started and becomes a no-op once it has exited.
type Dispatcher struct {
	program Sender
}

// NewDispatcher creates a dispatcher for p.
func NewDispatcher(p Sender) *Dispatcher {
	return &Dispatcher{program: p}
}

// Dispatch implements timesource.Dispatcher
func (d *Dispatcher) Dispatch(fn func()) {
	d.program.Send(dispatchMsg{fn: fn})
}
