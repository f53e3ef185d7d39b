// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Watch slots and the readiness-wait contract driven by the chat reactor.

package api

import "time"

// InvalidFD marks an unused descriptor.
const InvalidFD = -1

// Slot identifies one fixed position in the reactor watch set.
type Slot int

// Dispatch order follows the declaration order.
const (
	SlotStdin Slot = iota
	SlotStdout
	SlotStderr
	SlotServer
	SlotClient

	SlotCount = int(SlotClient) + 1
)

func (s Slot) String() string {
	switch s {
	case SlotStdin:
		return "stdin"
	case SlotStdout:
		return "stdout"
	case SlotStderr:
		return "stderr"
	case SlotServer:
		return "server"
	case SlotClient:
		return "client"
	default:
		return "unknown"
	}
}

// WatchEntry is one monitored source: descriptor, interest and the events
// observed by the last wait.
type WatchEntry struct {
	Slot     Slot
	FD       int
	Interest EventType
	Observed EventType
}

// Active reports whether the slot currently watches a descriptor.
func (w WatchEntry) Active() bool {
	return w.FD >= 0
}

// Activate points the slot at fd with the given interest and clears
// any stale observation.
func (w *WatchEntry) Activate(fd int, interest EventType) {
	w.FD = fd
	w.Interest = interest
	w.Observed = EventNone
}

// Deactivate stops watching. Interest is kept, as poll(2) ignores
// negative descriptors anyway.
func (w *WatchEntry) Deactivate() {
	w.FD = InvalidFD
}

// Poller is the single readiness-multiplexing primitive used by the reactor.
type Poller interface {
	// Wait blocks until at least one active entry is ready or timeout
	// elapses, stores the observed events into each entry and returns the
	// number of ready entries. A wait interrupted by a signal reports zero
	// ready entries and no error.
	Wait(entries []WatchEntry, timeout time.Duration) (int, error)

	// Close releases poller resources.
	Close() error
}
