// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Reactor state, the wait/dispatch loop and the single shutdown path.

package reactor

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/sirupsen/logrus"

	"github.com/Ra5c0/ChatServer/api"
	"github.com/Ra5c0/ChatServer/control"
	"github.com/Ra5c0/ChatServer/internal/log"
	"github.com/Ra5c0/ChatServer/internal/transport"
)

// Shutdown causes recorded under control.MetricShutdownCause.
const (
	CauseQuit         = "quit"
	CauseContext      = "context"
	CausePeerClosed   = "peer-closed"
	CauseServerClosed = "server-closed"
)

type handler func(entry *api.WatchEntry) error

// Reactor relays bytes between local stdio and at most one accepted peer.
// All methods except construction must be called from the goroutine
// running Run.
type Reactor struct {
	cfg         Config
	local       api.LocalIO
	slots       [api.SlotCount]api.WatchEntry
	handlers    [api.SlotCount]handler
	server      api.Endpoint
	client      api.Endpoint
	newEndpoint api.EndpointFactory
	poller      api.Poller
	quit        bool
	buf         []byte
	log         *logrus.Entry
	stats       *control.MetricsRegistry
	onListen    func(netip.AddrPort)
}

// New builds a reactor over the given local streams. The server and client
// endpoints are created unused; nothing touches the network before Run.
func New(local api.LocalIO, opts ...Option) (*Reactor, error) {
	if local.Input == nil || local.Output == nil || local.Error == nil {
		return nil, fmt.Errorf("reactor: local streams: %w", api.ErrInvalidArgument)
	}
	r := &Reactor{
		cfg:         DefaultConfig(),
		local:       local,
		newEndpoint: transport.NewEndpoint,
		buf:         make([]byte, api.ReceiveBufferSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = log.NewLogger("reactor")
	}
	if r.stats == nil {
		r.stats = control.NewMetricsRegistry()
	}
	if r.poller == nil {
		p, err := NewPoller()
		if err != nil {
			return nil, err
		}
		r.poller = p
	}

	r.slots[api.SlotStdin] = api.WatchEntry{Slot: api.SlotStdin, FD: int(local.Input.Fd()), Interest: api.EventRead}
	r.slots[api.SlotStdout] = api.WatchEntry{Slot: api.SlotStdout, FD: int(local.Output.Fd())}
	r.slots[api.SlotStderr] = api.WatchEntry{Slot: api.SlotStderr, FD: int(local.Error.Fd())}
	r.slots[api.SlotServer] = api.WatchEntry{Slot: api.SlotServer, FD: api.InvalidFD}
	r.slots[api.SlotClient] = api.WatchEntry{Slot: api.SlotClient, FD: api.InvalidFD}

	r.handlers = [api.SlotCount]handler{
		api.SlotStdin:  r.onStdin,
		api.SlotStdout: r.onIdle,
		api.SlotStderr: r.onIdle,
		api.SlotServer: r.onServer,
		api.SlotClient: r.onClient,
	}

	r.server = r.newEndpoint()
	r.client = r.newEndpoint()
	return r, nil
}

// Run listens and serves until a shutdown trigger fires or a failure occurs.
// Cancelling ctx is an explicit shutdown trigger, observed within one poll
// timeout. Endpoints are released on every return path.
func (r *Reactor) Run(ctx context.Context) error {
	if r.quit {
		return nil
	}
	defer r.release()

	if err := r.listen(); err != nil {
		return err
	}
	for !r.quit {
		if ctx.Err() != nil {
			if err := r.shutdown(CauseContext); err != nil {
				return err
			}
			break
		}
		ready, err := r.poller.Wait(r.slots[:], r.cfg.PollTimeout)
		if err != nil {
			return err
		}
		if ready == 0 {
			continue
		}
		if err := r.dispatch(); err != nil {
			return err
		}
	}
	return nil
}

// Quit closes both endpoints and ends the loop. Repeated calls only retry
// closing.
func (r *Reactor) Quit() error {
	return r.shutdown(CauseQuit)
}

// Slot returns a copy of one watch entry.
func (r *Reactor) Slot(s api.Slot) api.WatchEntry {
	return r.slots[s]
}

// Stats exposes the session counters.
func (r *Reactor) Stats() *control.MetricsRegistry {
	return r.stats
}

func (r *Reactor) listen() error {
	if err := r.server.Create(); err != nil {
		return err
	}
	if err := r.server.SetReuseAddress(true); err != nil {
		return err
	}
	if err := r.server.Bind(r.cfg.Addr, r.cfg.Port); err != nil {
		return err
	}
	if err := r.server.Listen(r.cfg.Backlog); err != nil {
		return err
	}
	r.slots[api.SlotServer].Activate(r.server.FD(), api.EventRead)

	addr, err := r.server.LocalAddr()
	if err != nil {
		return err
	}
	r.log.Debugf("listening on %s", addr)
	if r.onListen != nil {
		r.onListen(addr)
	}
	return nil
}

// dispatch runs every slot handler in fixed order, then routes hang-up and
// error observations to onError.
func (r *Reactor) dispatch() error {
	for i := range r.slots {
		entry := &r.slots[i]
		if err := r.handlers[i](entry); err != nil {
			return err
		}
		if entry.Observed.Failed() {
			if err := r.onError(entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// shutdown is the one path every closure and failure source converges on.
func (r *Reactor) shutdown(cause string) error {
	if !r.quit {
		r.log.Debugf("shutdown: %s", cause)
		r.stats.Set(control.MetricShutdownCause, cause)
	}
	r.quit = true
	r.slots[api.SlotServer].Deactivate()
	r.slots[api.SlotClient].Deactivate()
	return errors.Join(r.server.Close(), r.client.Close())
}

// release never fails; it backs up every exit path of Run.
func (r *Reactor) release() {
	r.server.Release()
	r.client.Release()
	if err := r.poller.Close(); err != nil {
		r.log.WithError(err).Warn("poller close failed")
	}
	r.log.WithFields(logrus.Fields(r.stats.GetSnapshot())).Debug("session finished")
}
