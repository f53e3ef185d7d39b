// Package fake provides scripted test doubles for the chat reactor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"bytes"
	"io"

	"github.com/eapache/queue"
)

// Input is an in-memory api.LocalInput. Every Push is returned by exactly
// one Read, split only if it exceeds the read buffer.
type Input struct {
	fd      uintptr
	chunks  *queue.Queue
	pending []byte
	Err     error
	Reads   int
}

// NewInput returns an empty Input reporting fd.
func NewInput(fd uintptr) *Input {
	return &Input{fd: fd, chunks: queue.New()}
}

// Push queues p for a later Read.
func (i *Input) Push(p []byte) {
	i.chunks.Add(append([]byte(nil), p...))
}

func (i *Input) Read(p []byte) (int, error) {
	i.Reads++
	if i.Err != nil {
		return 0, i.Err
	}
	if len(i.pending) == 0 {
		if i.chunks.Length() == 0 {
			return 0, io.EOF
		}
		i.pending = i.chunks.Remove().([]byte)
	}
	n := copy(p, i.pending)
	i.pending = i.pending[n:]
	return n, nil
}

func (i *Input) Fd() uintptr {
	return i.fd
}

// Output is an in-memory api.LocalOutput.
type Output struct {
	bytes.Buffer
	fd  uintptr
	Err error
}

// NewOutput returns an empty Output reporting fd.
func NewOutput(fd uintptr) *Output {
	return &Output{fd: fd}
}

func (o *Output) Write(p []byte) (int, error) {
	if o.Err != nil {
		return 0, o.Err
	}
	return o.Buffer.Write(p)
}

func (o *Output) Fd() uintptr {
	return o.fd
}
