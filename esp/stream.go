package esp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/espat/at"
)

// Session owns a Transport and implements the blocking read primitives the
// command methods are built on: accumulating the inbound stream until a
// token shows up, and extracting +IPD frames.
//
// A Session is not safe for concurrent use. At most one exchange may be in
// flight; a new command drains whatever an earlier, possibly timed out,
// exchange left behind.
type Session struct {
	transport       Transport
	logger          *slog.Logger
	atTimeout       time.Duration
	payloadTimeout  time.Duration
	maxResponseSize int
}

// NewSession wraps t. Only the timing, size and logger fields of config are
// used.
func NewSession(t Transport, config Config) *Session {
	config.setDefaults()
	return &Session{
		transport:       t,
		logger:          config.Logger,
		atTimeout:       config.ATTimeout,
		payloadTimeout:  config.PayloadTimeout,
		maxResponseSize: config.MaxResponseSize,
	}
}

// Drain discards every byte currently buffered at the transport.
func (s *Session) Drain() error {
	n := 0
	for s.transport.Available() > 0 {
		if _, err := s.transport.ReadByte(); err != nil {
			return fmt.Errorf("drain: %w", err)
		}
		n++
	}
	if n > 0 {
		s.logger.Debug("discarded stale bytes", "count", n)
	}
	return nil
}

// WriteLine drains stale input, then writes cmd terminated by CRLF.
func (s *Session) WriteLine(cmd string) error {
	if err := s.Drain(); err != nil {
		return err
	}
	s.logger.Debug("write command", "cmd", cmd)
	if _, err := s.transport.Write([]byte(cmd + at.CRLF)); err != nil {
		return fmt.Errorf("write command %q: %w", cmd, err)
	}
	return nil
}

// WriteRaw writes p without draining and without a terminator.
func (s *Session) WriteRaw(p []byte) error {
	if _, err := s.transport.Write(p); err != nil {
		return fmt.Errorf("write %d bytes: %w", len(p), err)
	}
	return nil
}

func (s *Session) deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		timeout = s.atTimeout
	}
	return time.Now().Add(timeout)
}

// accumulate pulls bytes from the transport one at a time until done reports
// true for the text read so far, the deadline passes or ctx ends. NUL bytes
// are dropped. The text read so far is returned in every case.
//
// done is evaluated after every appended byte, so the stream is never read
// past the byte that satisfied it.
func (s *Session) accumulate(ctx context.Context, deadline time.Time, done func([]byte) bool) ([]byte, bool, error) {
	var buf []byte
	for {
		if s.transport.Available() > 0 {
			b, err := s.transport.ReadByte()
			if err != nil {
				return buf, false, fmt.Errorf("read: %w", err)
			}
			if b != 0 {
				if len(buf) >= s.maxResponseSize {
					s.logger.Warn("reply exceeds limit", "limit", s.maxResponseSize)
					return buf, false, ErrResponseTooLarge
				}
				buf = append(buf, b)
				if done(buf) {
					return buf, true, nil
				}
			}
		} else if wait := time.Until(deadline); wait > 0 {
			time.Sleep(min(wait, PollInterval))
		}

		if !time.Now().Before(deadline) {
			return buf, false, ErrTimeout
		}
		if err := ctx.Err(); err != nil {
			return buf, false, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
	}
}

// readFull copies exactly len(p) bytes from the transport into p, NUL bytes
// included, before deadline.
func (s *Session) readFull(p []byte, deadline time.Time) (int, error) {
	n := 0
	for n < len(p) {
		if s.transport.Available() > 0 {
			b, err := s.transport.ReadByte()
			if err != nil {
				return n, fmt.Errorf("read: %w", err)
			}
			p[n] = b
			n++
			continue
		}
		wait := time.Until(deadline)
		if wait <= 0 {
			return n, ErrTimeout
		}
		time.Sleep(min(wait, PollInterval))
	}
	return n, nil
}

// discard reads and drops n bytes, giving up at deadline.
func (s *Session) discard(n int, deadline time.Time) (int, error) {
	dropped := 0
	for dropped < n {
		if s.transport.Available() > 0 {
			if _, err := s.transport.ReadByte(); err != nil {
				return dropped, fmt.Errorf("read: %w", err)
			}
			dropped++
			continue
		}
		wait := time.Until(deadline)
		if wait <= 0 {
			return dropped, ErrTimeout
		}
		time.Sleep(min(wait, PollInterval))
	}
	return dropped, nil
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
