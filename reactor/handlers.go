// File: reactor/handlers.go
// Author: momentics <momentics@gmail.com>
//
// Per-slot handlers. Each one is a no-op for an inactive slot.

package reactor

import (
	"errors"
	"io"

	"github.com/Ra5c0/ChatServer/api"
	"github.com/Ra5c0/ChatServer/control"
)

// onStdin forwards one read of local input to the peer, if any. Empty reads
// are forwarded as they are.
func (r *Reactor) onStdin(entry *api.WatchEntry) error {
	if !entry.Active() || !entry.Observed.Has(api.EventRead) {
		return nil
	}
	n, err := r.local.Input.Read(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return &api.LocalIOError{Op: "read", Err: err}
	}
	if r.client.FD() < 0 {
		return nil
	}
	if err := r.client.Send(r.buf[:n]); err != nil {
		return r.peerFailure(err)
	}
	r.stats.Add(control.MetricBytesOut, uint64(n))
	return nil
}

// onIdle serves the stdout and stderr slots. No interest is registered on
// them yet; they hold their place for output-readiness flow control.
func (r *Reactor) onIdle(*api.WatchEntry) error {
	return nil
}

// onServer accepts a pending peer. While a peer is active any newcomer is
// accepted and closed straight away.
func (r *Reactor) onServer(entry *api.WatchEntry) error {
	if !entry.Active() {
		return nil
	}
	if entry.Observed.Has(api.EventRead) {
		fd, err := r.server.Accept()
		if err != nil {
			return err
		}
		if r.client.FD() >= 0 {
			return r.reject(fd)
		}
		if err := r.client.Reset(fd); err != nil {
			return err
		}
		r.slots[api.SlotClient].Activate(r.client.FD(), api.EventRead)
		r.stats.Add(control.MetricAccepted, 1)
		r.log.Debugf("peer accepted (fd %d)", fd)
	}
	if r.server.FD() < 0 {
		entry.Deactivate()
		return r.shutdown(CauseServerClosed)
	}
	return nil
}

// onClient copies one receive to local output. A closed client ends the
// session.
func (r *Reactor) onClient(entry *api.WatchEntry) error {
	if !entry.Active() {
		return nil
	}
	if entry.Observed.Has(api.EventRead) && r.client.FD() >= 0 {
		data, err := r.client.Receive()
		if err != nil {
			if err := r.peerFailure(err); err != nil {
				return err
			}
		}
		if len(data) > 0 {
			if _, err := r.local.Output.Write(data); err != nil {
				return &api.LocalIOError{Op: "write", Err: err}
			}
			r.stats.Add(control.MetricBytesIn, uint64(len(data)))
		}
	}
	if r.client.FD() < 0 {
		entry.Deactivate()
		r.log.Debug("peer closed")
		return r.shutdown(CausePeerClosed)
	}
	return nil
}

// onError handles hang-up or error on any slot.
func (r *Reactor) onError(entry *api.WatchEntry) error {
	r.log.Debugf("%s: %s", entry.Slot, entry.Observed)
	entry.Deactivate()
	failure := entry.Observed & (api.EventHangup | api.EventError)
	return r.shutdown(entry.Slot.String() + "-" + failure.String())
}

// reject closes a surplus peer without adopting it.
func (r *Reactor) reject(fd int) error {
	surplus := r.newEndpoint()
	if err := surplus.Reset(fd); err != nil {
		return err
	}
	if err := surplus.Close(); err != nil {
		return err
	}
	r.stats.Add(control.MetricRejected, 1)
	r.log.Debugf("peer rejected (fd %d)", fd)
	return nil
}

// peerFailure turns a connection reset into a peer closure; the client slot
// handler then finishes the session. Anything else is fatal.
func (r *Reactor) peerFailure(err error) error {
	if !api.IsPeerReset(err) {
		return err
	}
	r.log.WithError(err).Debug("peer reset")
	r.client.Release()
	return nil
}
