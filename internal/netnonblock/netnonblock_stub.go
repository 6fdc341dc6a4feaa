//go:build !linux

package netnonblock

import "net"

// Set is a no-op on platforms without a raw-fd syscall path; the runtime
// netpoller still provides non-blocking I/O semantics regardless.
func Set(conn net.Conn) error { return nil }
