package esp

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the factory rate of the AT firmware.
const DefaultBaudRate = 115200

// SerialDialer opens an ESP8266 attached to a local serial port.
type SerialDialer struct {
	PortName string
	// BaudRate is used when Mode is nil. Zero selects DefaultBaudRate.
	BaudRate int
	Mode     *serial.Mode
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("esp: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("esp: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("esp: open serial port %s: %w", d.PortName, err)
	}

	// Reads return after at most one poll interval so that Available never
	// blocks the caller's deadline loop.
	if err := port.SetReadTimeout(PollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("esp: set read timeout: %w", err)
	}

	return &SerialTransport{port: port, mode: *mode}, nil
}

// SerialTransport adapts a go.bug.st/serial port to Transport.
type SerialTransport struct {
	port    serial.Port
	mode    serial.Mode
	pending []byte
	scratch [256]byte
	// err is the first read error. Once set and the pending bytes are
	// consumed, ReadByte and Write return it.
	err error
}

// Available reports the bytes already pulled from the port, reading once
// with the short poll timeout when none are pending. After a read error it
// reports one byte, so that the next ReadByte surfaces the error.
func (t *SerialTransport) Available() int {
	if len(t.pending) == 0 && t.err == nil {
		n, err := t.port.Read(t.scratch[:])
		if err != nil {
			t.err = err
		} else {
			t.pending = append(t.pending[:0], t.scratch[:n]...)
		}
	}
	if len(t.pending) == 0 && t.err != nil {
		return 1
	}
	return len(t.pending)
}

func (t *SerialTransport) ReadByte() (byte, error) {
	if len(t.pending) == 0 {
		if t.err != nil {
			return 0, t.err
		}
		return 0, errNoData
	}
	b := t.pending[0]
	t.pending = t.pending[1:]
	return b, nil
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	return t.port.Write(p)
}

// SetBaudRate reconfigures the port. Bytes received at the old rate are
// dropped.
func (t *SerialTransport) SetBaudRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: baud rate %d", ErrInvalidArgument, rate)
	}
	mode := t.mode
	mode.BaudRate = rate
	if err := t.port.SetMode(&mode); err != nil {
		return fmt.Errorf("esp: set baud rate %d: %w", rate, err)
	}
	t.mode = mode
	t.pending = t.pending[:0]
	return t.port.ResetInputBuffer()
}

func (t *SerialTransport) Close() error {
	return t.port.Close()
}

var errNoData = errors.New("esp: no data buffered")
