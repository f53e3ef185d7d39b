// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime session counters for the chat relay. The reactor goroutine writes,
// anyone may read a snapshot: the registry is the only piece of relay state
// shared across goroutines.
package control
