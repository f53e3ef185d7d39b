// Package fake provides scripted test doubles for the chat reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"errors"
	"time"

	"github.com/eapache/queue"

	"github.com/Ra5c0/ChatServer/api"
)

// ErrScriptExhausted is returned by Poller.Wait once every step was consumed.
var ErrScriptExhausted = errors.New("fake poller: script exhausted")

// Step is one scripted outcome of a readiness wait.
type Step struct {
	// Before runs first, e.g. to queue input or cancel a context.
	Before func()
	// Ready maps slots to the events they report. Inactive slots stay silent.
	Ready map[api.Slot]api.EventType
	// Err fails the wait.
	Err error
}

// Poller implements api.Poller by replaying Steps in order.
type Poller struct {
	script   *queue.Queue
	Waits    int
	Timeouts []time.Duration
	Seen     [][]api.WatchEntry // entries as passed to each Wait
	Closed   bool
}

// NewPoller returns a Poller that will replay steps.
func NewPoller(steps ...Step) *Poller {
	p := &Poller{script: queue.New()}
	p.Push(steps...)
	return p
}

// Push appends steps to the script.
func (p *Poller) Push(steps ...Step) {
	for _, s := range steps {
		p.script.Add(s)
	}
}

// Pending returns the number of unplayed steps.
func (p *Poller) Pending() int {
	return p.script.Length()
}

func (p *Poller) Wait(entries []api.WatchEntry, timeout time.Duration) (int, error) {
	p.Waits++
	p.Timeouts = append(p.Timeouts, timeout)
	p.Seen = append(p.Seen, append([]api.WatchEntry(nil), entries...))
	for i := range entries {
		entries[i].Observed = api.EventNone
	}
	if p.script.Length() == 0 {
		return 0, ErrScriptExhausted
	}
	step := p.script.Remove().(Step)
	if step.Before != nil {
		step.Before()
	}
	if step.Err != nil {
		return 0, step.Err
	}
	ready := 0
	for slot, ev := range step.Ready {
		entry := &entries[slot]
		if !entry.Active() || ev == api.EventNone {
			continue
		}
		entry.Observed = ev
		ready++
	}
	return ready, nil
}

func (p *Poller) Close() error {
	p.Closed = true
	return nil
}

// Readable is a Step reporting read readiness on slots.
func Readable(slots ...api.Slot) Step {
	ready := make(map[api.Slot]api.EventType, len(slots))
	for _, s := range slots {
		ready[s] |= api.EventRead
	}
	return Step{Ready: ready}
}

// Hangup is a Step reporting hang-up on slot.
func Hangup(slot api.Slot) Step {
	return Step{Ready: map[api.Slot]api.EventType{slot: api.EventHangup}}
}

// Idle is a Step with nothing ready, as after a timeout or an interrupted wait.
func Idle() Step {
	return Step{}
}
