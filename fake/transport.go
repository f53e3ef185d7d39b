// Package fake provides scripted test doubles for the chat reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"errors"
	"net/netip"
	"syscall"

	"github.com/eapache/queue"

	"github.com/Ra5c0/ChatServer/api"
)

// ErrNoPending is returned by Accept and Receive when the test did not
// queue anything for them.
var ErrNoPending = errors.New("fake network: nothing pending")

// Network hands out descriptors and tracks what every Endpoint it created
// sent, received and closed.
type Network struct {
	nextFD    int
	Endpoints []*Endpoint
	Closed    []int
	backlog   []int
	inbox     map[int]*queue.Queue
	sent      map[int][]byte
}

// NewNetwork returns an empty Network. Descriptors start at 100 so they
// never collide with stdio numbers used by tests.
func NewNetwork() *Network {
	return &Network{
		nextFD: 100,
		inbox:  make(map[int]*queue.Queue),
		sent:   make(map[int][]byte),
	}
}

// NewEndpoint is an api.EndpointFactory.
func (n *Network) NewEndpoint() api.Endpoint {
	e := &Endpoint{net: n, fd: api.InvalidFD}
	n.Endpoints = append(n.Endpoints, e)
	return e
}

// Endpoint returns the i-th endpoint created.
func (n *Network) Endpoint(i int) *Endpoint {
	return n.Endpoints[i]
}

// Dial queues a new peer for the next Accept and returns its descriptor.
func (n *Network) Dial() int {
	fd := n.alloc()
	n.backlog = append(n.backlog, fd)
	return fd
}

// Deliver queues p for the next Receive on fd.
func (n *Network) Deliver(fd int, p []byte) {
	n.queueFor(fd).Add(append([]byte(nil), p...))
}

// Hangup queues an orderly close for fd.
func (n *Network) Hangup(fd int) {
	n.queueFor(fd).Add([]byte{})
}

// Sent returns everything sent on fd.
func (n *Network) Sent(fd int) []byte {
	return n.sent[fd]
}

// IsClosed reports whether fd was released by any endpoint.
func (n *Network) IsClosed(fd int) bool {
	for _, c := range n.Closed {
		if c == fd {
			return true
		}
	}
	return false
}

func (n *Network) alloc() int {
	fd := n.nextFD
	n.nextFD++
	return fd
}

func (n *Network) queueFor(fd int) *queue.Queue {
	q, ok := n.inbox[fd]
	if !ok {
		q = queue.New()
		n.inbox[fd] = q
	}
	return q
}

// Endpoint implements api.Endpoint in memory.
type Endpoint struct {
	net *Network
	fd  int

	Addr      netip.Addr
	Port      uint16
	Backlog   int
	Listening bool
	Reuse     bool
	Keep      bool
	SendBuf   int
	RecvBuf   int

	// Injected failures, wrapped into api.TransportError.
	BindErr   error
	ListenErr error
	AcceptErr error
	SendErr   error
	RecvErr   error
	CloseErr  error
}

var _ api.Endpoint = (*Endpoint)(nil)

func (e *Endpoint) FD() int {
	return e.fd
}

func (e *Endpoint) Create() error {
	if e.fd < 0 {
		e.fd = e.net.alloc()
	}
	return nil
}

func (e *Endpoint) Close() error {
	if e.fd < 0 {
		return nil
	}
	e.net.Closed = append(e.net.Closed, e.fd)
	e.fd = api.InvalidFD
	if e.CloseErr != nil {
		return api.NewTransportError("close", e.CloseErr)
	}
	return nil
}

func (e *Endpoint) Release() {
	_ = e.Close()
}

func (e *Endpoint) Reset(fd int) error {
	err := e.Close()
	e.fd = fd
	return err
}

func (e *Endpoint) Bind(addr netip.Addr, port uint16) error {
	if err := e.check("bind", e.BindErr); err != nil {
		return err
	}
	e.Addr, e.Port = addr, port
	return nil
}

func (e *Endpoint) Listen(backlog int) error {
	if err := e.check("listen", e.ListenErr); err != nil {
		return err
	}
	e.Backlog = backlog
	e.Listening = true
	return nil
}

func (e *Endpoint) Accept() (int, error) {
	if err := e.check("accept", e.AcceptErr); err != nil {
		return api.InvalidFD, err
	}
	if len(e.net.backlog) == 0 {
		return api.InvalidFD, api.NewTransportError("accept", ErrNoPending)
	}
	fd := e.net.backlog[0]
	e.net.backlog = e.net.backlog[1:]
	return fd, nil
}

func (e *Endpoint) Send(p []byte) error {
	if err := e.check("send", e.SendErr); err != nil {
		return err
	}
	e.net.sent[e.fd] = append(e.net.sent[e.fd], p...)
	return nil
}

func (e *Endpoint) Receive() ([]byte, error) {
	if err := e.check("recv", e.RecvErr); err != nil {
		return nil, err
	}
	q := e.net.queueFor(e.fd)
	if q.Length() == 0 {
		return nil, api.NewTransportError("recv", ErrNoPending)
	}
	data := q.Remove().([]byte)
	if len(data) == 0 {
		return nil, e.Close()
	}
	return data, nil
}

func (e *Endpoint) LocalAddr() (netip.AddrPort, error) {
	if e.fd < 0 {
		return netip.AddrPort{}, api.NewTransportError("getsockname", syscall.EBADF)
	}
	return netip.AddrPortFrom(e.Addr, e.Port), nil
}

func (e *Endpoint) IsListening() (bool, error) {
	return e.Listening, e.check("getsockopt", nil)
}

func (e *Endpoint) KeepAlive() (bool, error) {
	return e.Keep, e.check("getsockopt", nil)
}

func (e *Endpoint) SetKeepAlive(enable bool) error {
	e.Keep = enable
	return e.check("setsockopt", nil)
}

func (e *Endpoint) ReuseAddress() (bool, error) {
	return e.Reuse, e.check("getsockopt", nil)
}

func (e *Endpoint) SetReuseAddress(enable bool) error {
	e.Reuse = enable
	return e.check("setsockopt", nil)
}

func (e *Endpoint) SendBufferSize() (int, error) {
	return e.SendBuf, e.check("getsockopt", nil)
}

func (e *Endpoint) SetSendBufferSize(size int) error {
	e.SendBuf = size
	return e.check("setsockopt", nil)
}

func (e *Endpoint) ReceiveBufferSize() (int, error) {
	return e.RecvBuf, e.check("getsockopt", nil)
}

func (e *Endpoint) SetReceiveBufferSize(size int) error {
	e.RecvBuf = size
	return e.check("setsockopt", nil)
}

// check fails op on an unused endpoint or with the injected error.
func (e *Endpoint) check(op string, injected error) error {
	if e.fd < 0 {
		return api.NewTransportError(op, syscall.EBADF)
	}
	if injected != nil {
		return api.NewTransportError(op, injected)
	}
	return nil
}
