// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Endpoint abstraction over one connection-oriented socket descriptor,
// plus the local stdio handles watched next to it.

package api

import (
	"io"
	"net/netip"
	"os"
)

// ReceiveBufferSize is the upper bound of a single Receive.
const ReceiveBufferSize = 1024

// SocketOptions are live get/set pass-throughs to socket options.
type SocketOptions interface {
	IsListening() (bool, error)
	KeepAlive() (bool, error)
	SetKeepAlive(enable bool) error
	ReuseAddress() (bool, error)
	SetReuseAddress(enable bool) error
	SendBufferSize() (int, error)
	SetSendBufferSize(size int) error
	ReceiveBufferSize() (int, error)
	SetReceiveBufferSize(size int) error
}

// Endpoint owns at most one socket descriptor at a time.
type Endpoint interface {
	SocketOptions

	// FD returns the owned descriptor or InvalidFD.
	FD() int

	// Create allocates a descriptor unless one is already owned.
	Create() error

	// Close releases the owned descriptor. Closing an unused endpoint is a no-op.
	Close() error

	// Release is Close for teardown paths: failures are logged, never returned.
	Release()

	// Reset closes the owned descriptor, then adopts fd unconditionally.
	Reset(fd int) error

	Bind(addr netip.Addr, port uint16) error
	Listen(backlog int) error

	// Accept returns the descriptor of a pending peer. The endpoint's own
	// descriptor is not modified.
	Accept() (int, error)

	// Send writes p in a single attempt.
	Send(p []byte) error

	// Receive reads at most ReceiveBufferSize bytes once. An orderly peer
	// close yields an empty result, no error and an unused endpoint.
	Receive() ([]byte, error)

	LocalAddr() (netip.AddrPort, error)
}

// EndpointFactory creates unused endpoints.
type EndpointFactory func() Endpoint

// LocalInput is a readable stdio handle with a pollable descriptor.
type LocalInput interface {
	io.Reader
	Fd() uintptr
}

// LocalOutput is a writable stdio handle with a pollable descriptor.
type LocalOutput interface {
	io.Writer
	Fd() uintptr
}

// LocalIO groups the three process-local streams.
type LocalIO struct {
	Input  LocalInput
	Output LocalOutput
	Error  LocalOutput
}

// StdIO returns the process standard streams.
func StdIO() LocalIO {
	return LocalIO{
		Input:  os.Stdin,
		Output: os.Stdout,
		Error:  os.Stderr,
	}
}
