//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package transport

import (
	"net/netip"

	"github.com/Ra5c0/ChatServer/api"
)

func unsupported(op string) error {
	return api.NewTransportError(op, api.ErrNotSupported)
}

func (s *Socket) Create() error { return unsupported("socket") }

// Close is a no-op: Create and Reset never let a Socket own a descriptor here.
func (s *Socket) Close() error {
	return nil
}

// Reset refuses to adopt fd, since it could not be released later.
func (s *Socket) Reset(fd int) error {
	if fd < 0 {
		return nil
	}
	return unsupported("reset")
}

func (s *Socket) Bind(netip.Addr, uint16) error { return unsupported("bind") }
func (s *Socket) Listen(int) error { return unsupported("listen") }
func (s *Socket) Accept() (int, error) { return api.InvalidFD, unsupported("accept") }
func (s *Socket) Send([]byte) error { return unsupported("send") }
func (s *Socket) Receive() ([]byte, error) { return nil, unsupported("recv") }
func (s *Socket) LocalAddr() (netip.AddrPort, error) { return netip.AddrPort{}, unsupported("getsockname") }
func (s *Socket) IsListening() (bool, error) { return false, unsupported("getsockopt") }
func (s *Socket) KeepAlive() (bool, error) { return false, unsupported("getsockopt") }
func (s *Socket) SetKeepAlive(bool) error { return unsupported("setsockopt") }
func (s *Socket) ReuseAddress() (bool, error) { return false, unsupported("getsockopt") }
func (s *Socket) SetReuseAddress(bool) error { return unsupported("setsockopt") }
func (s *Socket) SendBufferSize() (int, error) { return 0, unsupported("getsockopt") }
func (s *Socket) SetSendBufferSize(int) error { return unsupported("setsockopt") }
func (s *Socket) ReceiveBufferSize() (int, error) { return 0, unsupported("getsockopt") }
func (s *Socket) SetReceiveBufferSize(int) error { return unsupported("setsockopt") }
