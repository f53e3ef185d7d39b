// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for the chat relay.

package api

import (
	"errors"
	"fmt"
	"syscall"
)

// Common errors used across the module.
var (
	ErrNotSupported    = fmt.Errorf("operation not supported")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// TransportError reports a failed socket operation.
type TransportError struct {
	Op  string
	Err error
}

// NewTransportError wraps err as a failure of op.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s() has failed", e.Op)
	}
	return fmt.Sprintf("%s() has failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// LocalIOError reports a failure on the local stdio streams. It is never
// recovered from.
type LocalIOError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *LocalIOError) Error() string {
	return fmt.Sprintf("%s() has failed: %v", e.Op, e.Err)
}

func (e *LocalIOError) Unwrap() error {
	return e.Err
}

// Op returns the failing operation name carried by err, or "" when err
// carries none.
func Op(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Op
	}
	var le *LocalIOError
	if errors.As(err, &le) {
		return le.Op
	}
	return ""
}

// IsPeerReset reports whether err means the peer dropped the connection
// abruptly (reset or broken pipe).
func IsPeerReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE)
}
