// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor runs the single-threaded chat event loop: five fixed watch
// slots (stdin, stdout, stderr, listening socket, accepted peer) multiplexed
// through one readiness wait and dispatched in slot order. It also provides
// the poll(2) based Poller for linux.
package reactor
