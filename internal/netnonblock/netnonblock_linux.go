//go:build linux

// Package netnonblock best-effort toggles the underlying file descriptor
// of a net.Conn into non-blocking mode. It exists for parity with the
// literal "put the socket in non-blocking mode" step of the connection
// setup sequence; Go's runtime netpoller already multiplexes blocking-
// shaped reads over a non-blocking descriptor regardless, so a failure
// here is logged, never fatal.
package netnonblock

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Set attempts to put conn's underlying fd in non-blocking mode. A conn
// that does not implement syscall.Conn (such as one end of net.Pipe) is
// left alone and Set returns nil. It returns an error only if obtaining
// the raw connection or the syscall itself fails; callers should treat
// any error as non-fatal.
func Set(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	err = raw.Control(func(fd uintptr) {
		setErr = unix.SetNonblock(int(fd), true)
	})
	if err != nil {
		return err
	}
	return setErr
}
