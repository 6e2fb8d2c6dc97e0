package esp

import (
	"io"
	"strings"
	"sync"
	"time"

	"i4.energy/across/espat/at"
)

// TestTransport is a scripted in-memory Transport for tests.
//
// Inbound bytes are queued with SendData, or registered with Reply to be
// queued when a matching command is written. Queued data may carry a delay
// before it becomes visible to Available, which lets tests model replies that
// arrive after a drain, or not at all before a deadline.
type TestTransport struct {
	mu      sync.Mutex
	inbound []chunk
	replies map[string][]reply
	writes  []string
	baud    int
	closed  bool
}

type chunk struct {
	ready time.Time
	data  []byte
}

type reply struct {
	delay time.Duration
	data  string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		replies: make(map[string][]reply),
	}
}

// SendData queues data to be read by the transport immediately.
// This simulates receiving data from the module.
func (t *TestTransport) SendData(data string) {
	t.SendDataAfter(0, data)
}

// SendDataAfter queues data that becomes readable once d has elapsed.
func (t *TestTransport) SendDataAfter(d time.Duration, data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.inbound = append(t.inbound, chunk{ready: time.Now().Add(d), data: []byte(data)})
	}
}

// Reply registers data to be queued when cmd is written. A command line is
// matched without its CRLF terminator; raw payload writes are matched as-is.
// Replies registered for the same command are used in order, one per write.
func (t *TestTransport) Reply(cmd, data string) {
	t.ReplyAfter(cmd, 0, data)
}

// ReplyAfter is like Reply, with the reply becoming readable d after the
// write.
func (t *TestTransport) ReplyAfter(cmd string, d time.Duration, data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replies[cmd] = append(t.replies[cmd], reply{delay: d, data: data})
}

// Writes returns everything written so far, one entry per Write call.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// BaudRate returns the last rate passed to SetBaudRate.
func (t *TestTransport) BaudRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baud
}

func (t *TestTransport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	n := 0
	for _, c := range t.inbound {
		if c.ready.After(now) {
			break
		}
		n += len(c.data)
	}
	if n == 0 && t.closed {
		// ReadByte reports io.EOF.
		return 1
	}
	return n
}

func (t *TestTransport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.inbound) > 0 {
		c := &t.inbound[0]
		if c.ready.After(time.Now()) {
			break
		}
		if len(c.data) == 0 {
			t.inbound = t.inbound[1:]
			continue
		}
		b := c.data[0]
		c.data = c.data[1:]
		return b, nil
	}
	if t.closed {
		return 0, io.EOF
	}
	return 0, errNoData
}

func (t *TestTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	t.writes = append(t.writes, string(p))

	key := strings.TrimSuffix(string(p), at.CRLF)
	if queue := t.replies[key]; len(queue) > 0 {
		r := queue[0]
		t.replies[key] = queue[1:]
		t.inbound = append(t.inbound, chunk{ready: time.Now().Add(r.delay), data: []byte(r.data)})
	}
	return len(p), nil
}

func (t *TestTransport) SetBaudRate(rate int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baud = rate
	return nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
