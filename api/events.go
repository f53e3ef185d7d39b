// File: api/events.go
// Package api defines readiness event flags for the chat reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "strings"

// EventType is a bit set of readiness conditions on one descriptor.
type EventType uint16

const (
	EventRead EventType = 1 << iota
	EventWrite
	EventHangup
	EventError

	// EventNone is an empty interest set.
	EventNone EventType = 0
)

// Has reports whether any of the flags in f are set.
func (e EventType) Has(f EventType) bool {
	return e&f != 0
}

// Failed reports hang-up or error.
func (e EventType) Failed() bool {
	return e.Has(EventHangup | EventError)
}

func (e EventType) String() string {
	if e == EventNone {
		return "none"
	}
	var parts []string
	if e.Has(EventRead) {
		parts = append(parts, "read")
	}
	if e.Has(EventWrite) {
		parts = append(parts, "write")
	}
	if e.Has(EventHangup) {
		parts = append(parts, "hangup")
	}
	if e.Has(EventError) {
		parts = append(parts, "error")
	}
	return strings.Join(parts, "|")
}
