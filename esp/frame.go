package esp

import (
	"context"
	"fmt"
	"time"

	"i4.energy/across/espat/at"
)

// ReadFrame waits for an +IPD announcement and copies its payload into buf.
//
// The announcement must complete before timeout (zero selects the configured
// default). The payload is then collected under the separate payload timeout.
// When the announced length exceeds len(buf), only len(buf) bytes are copied
// and the remainder is read off the transport and dropped. Any further input
// still buffered afterwards is discarded as well.
//
// The returned header carries the declared length, which may exceed n, and
// the connection id when the module runs in multiplexed mode. On any error n
// is zero and the contents of buf are undefined.
func (s *Session) ReadFrame(ctx context.Context, buf []byte, timeout time.Duration) (int, at.IPDHeader, error) {
	if len(buf) == 0 {
		return 0, at.IPDHeader{}, ErrInvalidBuffer
	}

	delim := at.IPDDelimiter[0]
	data, ok, err := s.accumulate(ctx, s.deadline(timeout), func(b []byte) bool {
		return b[len(b)-1] == delim && at.IPDHeaderEnd(b) >= 0
	})
	if !ok {
		return 0, at.IPDHeader{}, err
	}

	hdr, _, err := at.ParseIPD(data)
	if err != nil {
		s.logger.Warn("dropping malformed frame", "text", string(data), "error", err)
		return 0, at.IPDHeader{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	want := min(hdr.Length, len(buf))
	payloadDeadline := time.Now().Add(s.payloadTimeout)
	if _, err := s.readFull(buf[:want], payloadDeadline); err != nil {
		s.logger.Warn("frame payload incomplete", "header", hdr.String(), "error", err)
		return 0, at.IPDHeader{}, fmt.Errorf("read payload of %s: %w", hdr, err)
	}

	if excess := hdr.Length - want; excess > 0 {
		dropped, err := s.discard(excess, payloadDeadline)
		s.logger.Debug("frame truncated", "header", hdr.String(), "capacity", len(buf), "dropped", dropped, "error", err)
	}
	if err := s.Drain(); err != nil {
		return 0, at.IPDHeader{}, err
	}
	return want, hdr, nil
}
