//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/Ra5c0/ChatServer/api"
)

// NewPoller returns an error for unsupported platforms.
func NewPoller() (api.Poller, error) {
	return nil, fmt.Errorf("reactor: poller: %w", api.ErrNotSupported)
}
