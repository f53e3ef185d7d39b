//go:build linux

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// noticeSignals only interrupt the current wait.
var noticeSignals = []os.Signal{unix.SIGUSR1, unix.SIGUSR2}
