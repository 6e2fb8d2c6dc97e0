package esp

import (
	"context"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=esp

// Transport represents an established byte channel to an ESP8266 module.
//
// It is the capability set the protocol engine is written against. There is
// no line discipline and no buffering guarantee beyond what Available
// reports: the engine polls Available, and only calls ReadByte when at least
// one byte is buffered.
//
// Typical implementations include serial ports, TCP connections to a serial
// bridge, or in-memory fakes used for testing.
type Transport interface {
	// Available reports how many inbound bytes can be read without blocking.
	// A failed transport reports at least one, so that the failure reaches
	// the caller through ReadByte instead of looking like silence.
	Available() int
	// ReadByte returns the next buffered byte. It is only valid when
	// Available reported at least one byte.
	ReadByte() (byte, error)
	// Write sends p as-is.
	Write(p []byte) (int, error)
	// SetBaudRate reconfigures the local end of the link. It is called after
	// the module acknowledged the new rate at the old one.
	SetBaudRate(rate int) error
	// Close releases the underlying connection.
	Close() error
}

// Dialer opens a Transport to an ESP8266 module.
//
// Dialer abstracts how the connection is created (for example, via a
// serial port, a TCP serial bridge, or a test double) and is used during
// Device construction only. Once a Transport is obtained, the Dialer is no
// longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}
