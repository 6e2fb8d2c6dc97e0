package esp_test

import (
	"errors"

	"i4.energy/across/espat/esp"
)

var errEmpty = errors.New("no data buffered")

// MockSequenceBuilder scripts a MockTransport: every expected command write
// appends the module's reply to an inbound buffer that Available and
// ReadByte serve from.
type MockSequenceBuilder struct {
	transport *esp.MockTransport
	inbound   []byte
	calls     []any
}

func NewMockSequence(transport *esp.MockTransport) *MockSequenceBuilder {
	b := &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
	transport.EXPECT().Available().DoAndReturn(func() int {
		return len(b.inbound)
	}).AnyTimes()
	transport.EXPECT().ReadByte().DoAndReturn(func() (byte, error) {
		if len(b.inbound) == 0 {
			return 0, errEmpty
		}
		c := b.inbound[0]
		b.inbound = b.inbound[1:]
		return c, nil
	}).AnyTimes()
	return b
}

// Command expects cmd to be written and answers with resp.
func (b *MockSequenceBuilder) Command(cmd, resp string) *MockSequenceBuilder {
	line := []byte(cmd + "\r\n")
	b.calls = append(b.calls,
		b.transport.EXPECT().Write(line).DoAndReturn(func(p []byte) (int, error) {
			b.inbound = append(b.inbound, resp...)
			return len(p), nil
		}),
	)
	return b
}

// Silent expects cmd to be written and never answers.
func (b *MockSequenceBuilder) Silent(cmd string) *MockSequenceBuilder {
	line := []byte(cmd + "\r\n")
	b.calls = append(b.calls, b.transport.EXPECT().Write(line).Return(len(line), nil))
	return b
}

// Noise queues bytes that are already buffered before the next command.
func (b *MockSequenceBuilder) Noise(data string) *MockSequenceBuilder {
	b.inbound = append(b.inbound, data...)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Command("AT", "AT\r\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.Command("ATE0", "ATE0\r\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
