// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent part of the Socket endpoint.

package transport

import (
	"github.com/sirupsen/logrus"

	"github.com/Ra5c0/ChatServer/api"
	"github.com/Ra5c0/ChatServer/internal/log"
)

var _ api.Endpoint = (*Socket)(nil)

// Socket implements api.Endpoint over one OS socket descriptor.
type Socket struct {
	fd  int
	log *logrus.Entry
}

// New returns an unused Socket.
func New() *Socket {
	return &Socket{
		fd:  api.InvalidFD,
		log: log.NewLogger("transport"),
	}
}

// NewEndpoint is an api.EndpointFactory producing Sockets.
func NewEndpoint() api.Endpoint {
	return New()
}

// FD returns the owned descriptor or api.InvalidFD.
func (s *Socket) FD() int {
	return s.fd
}

// Release closes the socket for teardown paths and only logs failures.
func (s *Socket) Release() {
	if err := s.Close(); err != nil {
		s.log.WithError(err).Warn("release failed")
	}
}
