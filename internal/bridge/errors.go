package bridge

import "errors"

var (
	// ErrConnectionFailed wraps dial or handshake failures. Recoverable
	// by reconnecting on a later attempt.
	ErrConnectionFailed = errors.New("bridge: connection failed")

	// ErrProtocol wraps an explicit Modbus exception response from the
	// device. A rejected block whose registers are all optional is
	// demoted from the read plan instead of being retried forever.
	ErrProtocol = errors.New("bridge: device rejected request")

	// ErrNotWritable flags a write to a read-only register. Fails the
	// call immediately, never retried.
	ErrNotWritable = errors.New("bridge: register is not writable")
)
