//go:build !linux

package main

import "os"

var noticeSignals []os.Signal
