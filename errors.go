package garil

import "errors"

var (
	// ErrInvalidArgument reports a nil/invalid constructor argument or a
	// precondition failure; nothing is mutated before it is returned.
	ErrInvalidArgument = errors.New("garil: invalid argument")

	// ErrClosed reports that an operation was attempted on a connection
	// that has already been torn down.
	ErrClosed = errors.New("garil: connection closed")

	// ErrCancelled reports that initialization observed an
	// already-cancelled context.
	ErrCancelled = errors.New("garil: cancelled")

	// ErrProtocol reports a framing or transport failure: a non-positive or
	// oversized length prefix, a stream that ended mid-frame, or a failed
	// read or write of a frame. Failures on the read side are terminal for
	// the connection; Conn.Write returns it without closing the connection.
	// The returned error wraps ErrProtocol with %w and carries the
	// underlying cause's message as text only.
	ErrProtocol = errors.New("garil: protocol error")
)
