// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket operations via golang.org/x/sys/unix.

package transport

import (
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/Ra5c0/ChatServer/api"
)

// Create allocates an IPv4 stream socket unless one is already owned.
func (s *Socket) Create() error {
	if s.fd >= 0 {
		return nil
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return api.NewTransportError("socket", err)
	}
	s.fd = fd
	return nil
}

// Close releases the owned descriptor. On linux the descriptor is gone even
// when close(2) reports an error, so the socket is unused afterwards either way.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = api.InvalidFD
	if err := unix.Close(fd); err != nil {
		return api.NewTransportError("close", err)
	}
	return nil
}

// Reset closes the owned descriptor, then adopts fd even if closing failed.
func (s *Socket) Reset(fd int) error {
	err := s.Close()
	s.fd = fd
	return err
}

func (s *Socket) Bind(addr netip.Addr, port uint16) error {
	addr = addr.Unmap()
	if !addr.Is4() {
		return api.NewTransportError("bind", fmt.Errorf("%w: %s is not an IPv4 address", api.ErrInvalidArgument, addr))
	}
	sa := &unix.SockaddrInet4{Port: int(port), Addr: addr.As4()}
	if err := unix.Bind(s.fd, sa); err != nil {
		return api.NewTransportError("bind", err)
	}
	return nil
}

func (s *Socket) Listen(backlog int) error {
	if err := unix.Listen(s.fd, backlog); err != nil {
		return api.NewTransportError("listen", err)
	}
	return nil
}

func (s *Socket) Accept() (int, error) {
	var fd int
	err := ignoringEINTR(func() (err error) {
		fd, _, err = unix.Accept4(s.fd, unix.SOCK_CLOEXEC)
		return err
	})
	if err != nil {
		return api.InvalidFD, api.NewTransportError("accept", err)
	}
	return fd, nil
}

// Send writes p once. A short write is logged, not retried.
func (s *Socket) Send(p []byte) error {
	var n int
	err := ignoringEINTR(func() (err error) {
		n, err = unix.SendmsgN(s.fd, p, nil, nil, unix.MSG_NOSIGNAL)
		return err
	})
	if err != nil {
		return api.NewTransportError("send", err)
	}
	if n < len(p) {
		s.log.Warnf("short send: %d/%d bytes", n, len(p))
	}
	return nil
}

func (s *Socket) Receive() ([]byte, error) {
	buf := make([]byte, api.ReceiveBufferSize)
	var n int
	err := ignoringEINTR(func() (err error) {
		n, _, err = unix.Recvfrom(s.fd, buf, 0)
		return err
	})
	if err != nil {
		return nil, api.NewTransportError("recv", err)
	}
	if n == 0 {
		return nil, s.Close()
	}
	return buf[:n], nil
}

func (s *Socket) LocalAddr() (netip.AddrPort, error) {
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return netip.AddrPort{}, api.NewTransportError("getsockname", err)
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port)), nil
	default:
		return netip.AddrPort{}, api.NewTransportError("getsockname", api.ErrNotSupported)
	}
}

func (s *Socket) IsListening() (bool, error) {
	return s.getBool(unix.SO_ACCEPTCONN)
}

func (s *Socket) KeepAlive() (bool, error) {
	return s.getBool(unix.SO_KEEPALIVE)
}

func (s *Socket) SetKeepAlive(enable bool) error {
	return s.setBool(unix.SO_KEEPALIVE, enable)
}

func (s *Socket) ReuseAddress() (bool, error) {
	return s.getBool(unix.SO_REUSEADDR)
}

func (s *Socket) SetReuseAddress(enable bool) error {
	return s.setBool(unix.SO_REUSEADDR, enable)
}

func (s *Socket) SendBufferSize() (int, error) {
	return s.getInt(unix.SO_SNDBUF)
}

func (s *Socket) SetSendBufferSize(size int) error {
	return s.setInt(unix.SO_SNDBUF, size)
}

func (s *Socket) ReceiveBufferSize() (int, error) {
	return s.getInt(unix.SO_RCVBUF)
}

func (s *Socket) SetReceiveBufferSize(size int) error {
	return s.setInt(unix.SO_RCVBUF, size)
}

func (s *Socket) getInt(opt int) (int, error) {
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, opt)
	if err != nil {
		return 0, api.NewTransportError("getsockopt", err)
	}
	return v, nil
}

func (s *Socket) setInt(opt, value int) error {
	if err := unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, opt, value); err != nil {
		return api.NewTransportError("setsockopt", err)
	}
	return nil
}

func (s *Socket) getBool(opt int) (bool, error) {
	v, err := s.getInt(opt)
	return v != 0, err
}

func (s *Socket) setBool(opt int, enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	return s.setInt(opt, v)
}

// ignoringEINTR retries fn while signals delivered to the Go runtime
// interrupt it.
func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}
