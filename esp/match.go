package esp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
)

const maxTargets = 3

// Find reads until any of targets appears in the reply, the timeout elapses
// or ctx ends. A zero timeout selects the configured default.
//
// The accumulated text is returned whether or not a target was seen; callers
// tell which target matched by looking for it in the text. ErrTimeout is
// returned when none appeared.
func (s *Session) Find(ctx context.Context, timeout time.Duration, targets ...string) (string, error) {
	if len(targets) == 0 || len(targets) > maxTargets {
		return "", fmt.Errorf("%w: %d targets", ErrInvalidArgument, len(targets))
	}
	tokens := make([][]byte, len(targets))
	for i, t := range targets {
		if t == "" {
			return "", fmt.Errorf("%w: empty target", ErrInvalidArgument)
		}
		tokens[i] = []byte(t)
	}

	// Every appended byte is checked, so a target shows up first as a suffix.
	buf, ok, err := s.accumulate(ctx, s.deadline(timeout), func(b []byte) bool {
		for _, t := range tokens {
			if bytes.HasSuffix(b, t) {
				return true
			}
		}
		return false
	})
	reply := string(buf)
	if ok {
		s.logger.Debug("reply", "text", reply)
		return reply, nil
	}
	s.logger.Debug("reply incomplete", "want", targets, "text", reply, "error", err)
	return reply, err
}

// FindBool reports whether target appeared before the timeout elapsed.
func (s *Session) FindBool(ctx context.Context, timeout time.Duration, target string) bool {
	_, err := s.Find(ctx, timeout, target)
	return err == nil
}

// FindAndExtract reads until target appears, then returns the text strictly
// between the first occurrence of begin and the first occurrence of end. Both
// markers are searched from the start of the reply.
//
// On failure the whole accumulated text is returned alongside the error, for
// diagnostics.
func (s *Session) FindAndExtract(ctx context.Context, timeout time.Duration, target, begin, end string) (string, error) {
	reply, err := s.Find(ctx, timeout, target)
	if err != nil {
		return reply, err
	}
	i := strings.Index(reply, begin)
	j := strings.Index(reply, end)
	if i < 0 || j < 0 {
		return reply, ErrMarkerNotFound
	}
	i += len(begin)
	if j < i {
		return reply, ErrMarkerNotFound
	}
	return reply[i:j], nil
}
