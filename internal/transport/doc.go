// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw TCP socket endpoint driven by the chat reactor. A Socket owns at most
// one descriptor and always releases the previous one before adopting or
// allocating another. Blocking syscalls only: readiness is established by the
// reactor before Accept and Receive are called. The linux build talks to the
// kernel through golang.org/x/sys/unix; other platforms get a stub that fails
// every operation with api.ErrNotSupported.

package transport
