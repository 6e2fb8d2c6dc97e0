package esp

import (
	"context"
	"fmt"
	"time"

	"i4.energy/across/espat/at"
)

// Send transmits data over the single link.
//
// The module first has to answer AT+CIPSEND with its ">" prompt; only then is
// the payload written, raw and without terminator. Send returns once the
// module reports SEND OK.
func (d *Device) Send(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidArgument)
	}
	return d.sendPayload(ctx, at.Send(len(data)), data)
}

// SendMux transmits data over link id in multiplexed mode.
func (d *Device) SendMux(ctx context.Context, id int, data []byte) error {
	if err := validMuxID(id); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidArgument)
	}
	return d.sendPayload(ctx, at.SendMux(id, len(data)), data)
}

func (d *Device) sendPayload(ctx context.Context, cmd string, data []byte) error {
	if err := d.send(cmd); err != nil {
		return err
	}
	if _, err := d.session.Find(ctx, timeoutSendPrompt, at.Prompt); err != nil {
		return fmt.Errorf("%s: waiting for prompt: %w", cmd, err)
	}

	// Whatever followed the prompt is not part of the reply to the payload.
	if err := d.session.Drain(); err != nil {
		return err
	}
	if err := d.session.WriteRaw(data); err != nil {
		return err
	}
	if _, err := d.session.Find(ctx, timeoutSendOK, at.SendOK); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// Recv waits up to timeout for an inbound frame and copies its payload into
// buf. It returns the number of bytes copied, which is less than the frame
// length when buf is too small.
func (d *Device) Recv(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	n, _, err := d.recv(ctx, buf, timeout)
	return n, err
}

// RecvAny is like Recv and also reports which link the frame belongs to.
// The id is -1 when the module is not in multiplexed mode.
func (d *Device) RecvAny(ctx context.Context, buf []byte, timeout time.Duration) (int, int, error) {
	n, hdr, err := d.recv(ctx, buf, timeout)
	if err != nil {
		return 0, -1, err
	}
	if !hdr.HasMuxID {
		return n, -1, nil
	}
	return n, hdr.MuxID, nil
}

// RecvFrom is like Recv for link id. A frame for any other link is consumed
// and dropped, and ErrMuxIDMismatch is returned.
func (d *Device) RecvFrom(ctx context.Context, id int, buf []byte, timeout time.Duration) (int, error) {
	if err := validMuxID(id); err != nil {
		return 0, err
	}
	n, hdr, err := d.recv(ctx, buf, timeout)
	if err != nil {
		return 0, err
	}
	if !hdr.HasMuxID || hdr.MuxID != id {
		d.logger.Debug("dropping frame for another link", "want", id, "header", hdr.String())
		return 0, ErrMuxIDMismatch
	}
	return n, nil
}

func (d *Device) recv(ctx context.Context, buf []byte, timeout time.Duration) (int, at.IPDHeader, error) {
	if d.closed {
		return 0, at.IPDHeader{}, ErrAlreadyClosed
	}
	if d.transport == nil {
		return 0, at.IPDHeader{}, ErrNotInitialized
	}
	return d.session.ReadFrame(ctx, buf, timeout)
}
