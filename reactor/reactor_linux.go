//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux poll(2)-based readiness wait.

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Ra5c0/ChatServer/api"
)

// pollPoller waits on a fixed slice of watch entries with poll(2).
// Entries with a negative descriptor are skipped by the kernel.
type pollPoller struct {
	fds []unix.PollFd
}

// NewPoller constructs the platform Poller.
func NewPoller() (api.Poller, error) {
	return &pollPoller{}, nil
}

func (p *pollPoller) Wait(entries []api.WatchEntry, timeout time.Duration) (int, error) {
	if cap(p.fds) < len(entries) {
		p.fds = make([]unix.PollFd, len(entries))
	}
	fds := p.fds[:len(entries)]
	for i := range entries {
		fds[i] = unix.PollFd{
			Fd:     int32(entries[i].FD),
			Events: toPollEvents(entries[i].Interest),
		}
		entries[i].Observed = api.EventNone
	}

	n, err := unix.Poll(fds, pollMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil // interrupted by signal, treated as nothing ready
		}
		return 0, fmt.Errorf("poll() has failed: %w", err)
	}
	for i := range fds {
		entries[i].Observed = fromPollEvents(fds[i].Revents)
	}
	return n, nil
}

func (p *pollPoller) Close() error {
	p.fds = nil
	return nil
}

// pollMillis converts timeout for poll(2), rounding up so that a positive
// timeout never turns into a non-blocking check. Negative means forever.
func pollMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	return int((timeout + time.Millisecond - 1) / time.Millisecond)
}

func toPollEvents(interest api.EventType) int16 {
	var ev int16
	if interest.Has(api.EventRead) {
		ev |= unix.POLLIN
	}
	if interest.Has(api.EventWrite) {
		ev |= unix.POLLOUT
	}
	return ev
}

func fromPollEvents(revents int16) api.EventType {
	var ev api.EventType
	if revents&unix.POLLIN != 0 {
		ev |= api.EventRead
	}
	if revents&unix.POLLOUT != 0 {
		ev |= api.EventWrite
	}
	if revents&unix.POLLHUP != 0 {
		ev |= api.EventHangup
	}
	if revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		ev |= api.EventError
	}
	return ev
}
