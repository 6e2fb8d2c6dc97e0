package esp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// TCPDialer reaches a module through a transparent serial-to-TCP bridge
// such as ser2net or esp-link.
type TCPDialer struct {
	// Address is host:port of the bridge.
	Address string
	// Timeout bounds the TCP handshake. Zero means 10 seconds.
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("esp: context is nil")
	}
	if d.Address == "" {
		return nil, errors.New("esp: bridge address is required")
	}
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, fmt.Errorf("esp: connect to bridge at %s: %w", d.Address, err)
	}
	return NewNetTransport(conn), nil
}

// NetTransport adapts a net.Conn to Transport.
type NetTransport struct {
	conn    net.Conn
	pending []byte
	scratch [256]byte
	err     error
}

func NewNetTransport(conn net.Conn) *NetTransport {
	return &NetTransport{conn: conn}
}

// Available reports the bytes already pulled from the connection, reading
// once with a one poll interval deadline when none are pending. Once the
// connection failed it reports one byte, which ReadByte turns into the
// error.
func (t *NetTransport) Available() int {
	if len(t.pending) == 0 && t.err == nil {
		t.fill()
	}
	if len(t.pending) == 0 && t.err != nil {
		return 1
	}
	return len(t.pending)
}

func (t *NetTransport) fill() {
	if err := t.conn.SetReadDeadline(time.Now().Add(PollInterval)); err != nil {
		t.err = err
		return
	}
	n, err := t.conn.Read(t.scratch[:])
	t.pending = append(t.pending[:0], t.scratch[:n]...)
	var nerr net.Error
	if err != nil && !(errors.As(err, &nerr) && nerr.Timeout()) {
		t.err = err
	}
}

func (t *NetTransport) ReadByte() (byte, error) {
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

func (t *NetTransport) Write(p []byte) (int, error) {
	if t.err != nil {
		return 0, t.err
	}
	return t.conn.Write(p)
}

// SetBaudRate always fails: the line rate is owned by the bridge.
func (t *NetTransport) SetBaudRate(rate int) error {
	return fmt.Errorf("esp: cannot set baud rate %d through a TCP bridge", rate)
}

func (t *NetTransport) Close() error {
	return t.conn.Close()
}
