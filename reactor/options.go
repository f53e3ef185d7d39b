// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Configuration and functional options for the Reactor.

package reactor

import (
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ra5c0/ChatServer/api"
	"github.com/Ra5c0/ChatServer/control"
)

const (
	DefaultPort        = 10000
	DefaultBacklog     = 5
	DefaultPollTimeout = time.Second
)

// Config holds passive-open and loop parameters.
type Config struct {
	Addr        netip.Addr
	Port        uint16
	Backlog     int
	PollTimeout time.Duration
}

// DefaultConfig listens on every local IPv4 address, port 10000.
func DefaultConfig() Config {
	return Config{
		Addr:        netip.IPv4Unspecified(),
		Port:        DefaultPort,
		Backlog:     DefaultBacklog,
		PollTimeout: DefaultPollTimeout,
	}
}

// Option customizes Reactor construction.
type Option func(*Reactor)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(r *Reactor) {
		r.cfg = cfg
	}
}

// WithPoller overrides the platform poller.
func WithPoller(p api.Poller) Option {
	return func(r *Reactor) {
		r.poller = p
	}
}

// WithEndpointFactory overrides how server, client and rejected endpoints
// are created.
func WithEndpointFactory(f api.EndpointFactory) Option {
	return func(r *Reactor) {
		r.newEndpoint = f
	}
}

// WithLogger sets the logger entry.
func WithLogger(l *logrus.Entry) Option {
	return func(r *Reactor) {
		r.log = l
	}
}

// WithStats records session counters into reg.
func WithStats(reg *control.MetricsRegistry) Option {
	return func(r *Reactor) {
		r.stats = reg
	}
}

// WithListenHook registers fn to run on the loop goroutine once the server
// socket listens, with its bound address.
func WithListenHook(fn func(netip.AddrPort)) Option {
	return func(r *Reactor) {
		r.onListen = fn
	}
}
