package esp

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/mock/gomock"
)

func TestSerialDialer_Dial_EmptyPortName(t *testing.T) {
	dialer := SerialDialer{
		PortName: "",
	}

	transport, err := dialer.Dial(context.Background())

	if err == nil {
		t.Fatal("expected error for empty port name")
	}
	if transport != nil {
		t.Error("expected nil transport for empty port name")
	}
	if err.Error() != "esp: serial port name is required" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSerialDialer_Dial_NilContext(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/ttyUSB0",
	}

	transport, err := dialer.Dial(nil)

	if err == nil {
		t.Fatal("expected error for nil context")
	}
	if transport != nil {
		t.Error("expected nil transport for nil context")
	}
	if err.Error() != "esp: context is nil" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSerialDialer_Dial_ContextCanceled(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/nonexistent",
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport, err := dialer.Dial(ctx)

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport for canceled context")
	}
}

func TestSerialDialer_Dial_WithMode(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/nonexistent",
		Mode: &serial.Mode{
			BaudRate: 9600,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		},
	}

	transport, err := dialer.Dial(context.Background())

	if err == nil {
		t.Error("expected error for non-existent port")
	}
	if transport != nil {
		t.Error("expected nil transport for non-existent port")
	}
}

func TestTCPDialer_Dial(t *testing.T) {
	t.Run("Address is required", func(t *testing.T) {
		transport, err := TCPDialer{}.Dial(context.Background())
		if err == nil || err.Error() != "esp: bridge address is required" {
			t.Errorf("unexpected error: %v", err)
		}
		if transport != nil {
			t.Error("expected nil transport")
		}
	})

	t.Run("Connects to a listener", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		defer ln.Close()
		go func() {
			conn, err := ln.Accept()
			if err == nil {
				conn.Write([]byte("ready\r\n"))
				conn.Close()
			}
		}()

		transport, err := TCPDialer{Address: ln.Addr().String(), Timeout: time.Second}.Dial(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer transport.Close()

		if got := readAll(t, transport, 7); got != "ready\r\n" {
			t.Errorf("read %q", got)
		}
	})
}

func readAll(t *testing.T, tr Transport, n int) string {
	t.Helper()
	var out []byte
	deadline := time.Now().Add(time.Second)
	for len(out) < n && time.Now().Before(deadline) {
		if tr.Available() == 0 {
			continue
		}
		b, err := tr.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte: %v", err)
		}
		out = append(out, b)
	}
	return string(out)
}

func TestNetTransport(t *testing.T) {
	client, server := net.Pipe()
	tr := NewNetTransport(client)

	if n := tr.Available(); n != 0 {
		t.Errorf("Available() = %d on an idle connection", n)
	}
	if _, err := tr.ReadByte(); !errors.Is(err, errNoData) {
		t.Errorf("expected errNoData, got: %v", err)
	}

	go server.Write([]byte("OK\r\n"))
	if got := readAll(t, tr, 4); got != "OK\r\n" {
		t.Errorf("read %q", got)
	}

	written := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := server.Read(buf)
		written <- string(buf[:n])
	}()
	if _, err := tr.Write([]byte("AT\r\n")); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if got := <-written; got != "AT\r\n" {
		t.Errorf("peer received %q", got)
	}

	if err := tr.SetBaudRate(9600); err == nil {
		t.Error("SetBaudRate() should fail on a TCP bridge")
	}

	server.Close()
	if n := tr.Available(); n != 1 {
		t.Errorf("Available() = %d after peer closed, want 1", n)
	}
	if _, err := tr.ReadByte(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after peer closed, got: %v", err)
	}
	if _, err := tr.Write([]byte("AT\r\n")); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF from Write, got: %v", err)
	}
	tr.Close()
}

func TestSessionOverClosedBridge(t *testing.T) {
	ctx := context.Background()
	config := Config{ATTimeout: time.Second, PayloadTimeout: time.Second}

	closedPipe := func(t *testing.T, data string) *Session {
		t.Helper()
		server, client := net.Pipe()
		t.Cleanup(func() { client.Close() })
		go func() {
			if data != "" {
				server.Write([]byte(data))
			}
			server.Close()
		}()
		return NewSession(NewNetTransport(client), config)
	}

	checkEOF := func(t *testing.T, err error, start time.Time) {
		t.Helper()
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got: %v", err)
		}
		if errors.Is(err, ErrTimeout) {
			t.Errorf("closed link reported as a timeout: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Errorf("returned after %v", elapsed)
		}
	}

	t.Run("Find", func(t *testing.T) {
		s := closedPipe(t, "")
		start := time.Now()
		_, err := s.Find(ctx, time.Second, "OK")
		checkEOF(t, err, start)
	})

	t.Run("Find keeps the partial reply", func(t *testing.T) {
		s := closedPipe(t, "AT\r\r\n")
		start := time.Now()
		reply, err := s.Find(ctx, time.Second, "OK")
		checkEOF(t, err, start)
		if reply != "AT\r\r\n" {
			t.Errorf("reply = %q", reply)
		}
	})

	t.Run("ReadFrame announcement", func(t *testing.T) {
		s := closedPipe(t, "")
		start := time.Now()
		n, _, err := s.ReadFrame(ctx, make([]byte, 8), time.Second)
		checkEOF(t, err, start)
		if n != 0 {
			t.Errorf("n = %d, want 0", n)
		}
	})

	t.Run("ReadFrame payload", func(t *testing.T) {
		s := closedPipe(t, "+IPD,8:abc")
		start := time.Now()
		_, _, err := s.ReadFrame(ctx, make([]byte, 8), time.Second)
		checkEOF(t, err, start)
	})

	t.Run("WriteLine", func(t *testing.T) {
		s := closedPipe(t, "")
		// Let the peer hang up first.
		time.Sleep(10 * time.Millisecond)
		if err := s.WriteLine("AT"); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got: %v", err)
		}
	})
}

func TestTransportInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)

	var _ Transport = mockTransport
	var _ Transport = (*SerialTransport)(nil)
	var _ Transport = (*NetTransport)(nil)
	var _ Transport = (*TestTransport)(nil)

	data := []byte("AT\r\n")
	mockTransport.EXPECT().Write(data).Return(len(data), nil)
	mockTransport.EXPECT().Available().Return(1)
	mockTransport.EXPECT().ReadByte().Return(byte('O'), nil)
	mockTransport.EXPECT().SetBaudRate(9600).Return(nil)
	mockTransport.EXPECT().Close().Return(nil)

	n, err := mockTransport.Write(data)
	if err != nil {
		t.Errorf("unexpected write error: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected %d bytes written, got %d", len(data), n)
	}
	if mockTransport.Available() != 1 {
		t.Error("expected one byte available")
	}
	if b, err := mockTransport.ReadByte(); err != nil || b != 'O' {
		t.Errorf("ReadByte() = %q, %v", b, err)
	}
	if err := mockTransport.SetBaudRate(9600); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mockTransport.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestDialerInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDialer := NewMockDialer(ctrl)
	mockTransport := NewMockTransport(ctrl)

	var _ Dialer = mockDialer
	var _ Dialer = SerialDialer{}
	var _ Dialer = TCPDialer{}

	ctx := context.Background()
	mockDialer.EXPECT().Dial(ctx).Return(mockTransport, nil)

	transport, err := mockDialer.Dial(ctx)
	if err != nil {
		t.Errorf("unexpected dial error: %v", err)
	}
	if transport != mockTransport {
		t.Error("expected mock transport to be returned")
	}
}

func TestDialerInterface_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDialer := NewMockDialer(ctrl)
	dialError := errors.New("dial failed")

	ctx := context.Background()
	mockDialer.EXPECT().Dial(ctx).Return(nil, dialError)

	transport, err := mockDialer.Dial(ctx)
	if err != dialError {
		t.Errorf("expected dial error, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport on error")
	}
}
