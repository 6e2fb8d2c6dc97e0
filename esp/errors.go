package esp

import "errors"

var (
	// ErrNoDialer is returned when a Device is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the module.
	ErrNoDialer = errors.New("esp: no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Device
	// that has no transport.
	ErrNotInitialized = errors.New("esp: device not initialized")

	// ErrAlreadyClosed is returned when an operation or Close is called on a
	// Device that has already been closed.
	ErrAlreadyClosed = errors.New("esp: device already closed")

	// ErrNotResponding is returned when the liveness probe (AT) gets no OK,
	// either at construction time or after a restart.
	ErrNotResponding = errors.New("esp: module not responding")

	// ErrTimeout is returned when the deadline of a read elapsed before the
	// expected token or frame appeared.
	ErrTimeout = errors.New("esp: timeout")

	// ErrMalformedFrame is returned when an +IPD announcement was found but its
	// length or connection id could not be parsed.
	//
	// The receive methods report zero bytes in this case, exactly as for
	// ErrTimeout. The two are kept apart only for diagnostics.
	ErrMalformedFrame = errors.New("esp: malformed +IPD frame")

	// ErrMarkerNotFound is returned by FindAndExtract when the reply completed
	// but the begin or end marker is missing.
	ErrMarkerNotFound = errors.New("esp: reply marker not found")

	// ErrUnexpectedReply is returned when the module answered with a failure
	// token such as ERROR or FAIL.
	ErrUnexpectedReply = errors.New("esp: unexpected reply")

	// ErrResponseTooLarge is returned when a reply grows beyond the configured
	// maximum response size. The read is abandoned.
	ErrResponseTooLarge = errors.New("esp: response too large")

	// ErrMuxIDMismatch is returned by RecvFrom when a frame for another
	// connection arrived. The frame is discarded.
	ErrMuxIDMismatch = errors.New("esp: frame for another connection")

	// Precondition violations. These are returned before the transport is
	// touched.
	ErrInvalidBuffer   = errors.New("esp: destination buffer is empty")
	ErrInvalidMuxID    = errors.New("esp: connection id out of range")
	ErrInvalidScope    = errors.New("esp: invalid configuration scope")
	ErrInvalidMode     = errors.New("esp: invalid mode")
	ErrInvalidArgument = errors.New("esp: invalid argument")
)
