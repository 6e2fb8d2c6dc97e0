package esp_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"i4.energy/across/espat/esp"
)

func newTestSession(tt *esp.TestTransport) *esp.Session {
	return esp.NewSession(tt, esp.Config{
		ATTimeout:      testATTimeout,
		PayloadTimeout: 100 * time.Millisecond,
	})
}

func TestSessionFind(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		input     string
		targets   []string
		wantReply string
		wantErr   error
		remaining int
	}{
		{
			name:      "Single target",
			input:     "AT\r\r\n\r\nOK\r\n",
			targets:   []string{"OK"},
			wantReply: "AT\r\r\n\r\nOK",
			remaining: 2,
		},
		{
			name:      "Second of several targets",
			input:     "+CWJAP:1\r\n\r\nFAIL\r\n",
			targets:   []string{"OK", "FAIL"},
			wantReply: "+CWJAP:1\r\n\r\nFAIL",
			remaining: 2,
		},
		{
			name:      "Stops at the first target to complete",
			input:     "no change\r\n\r\nOK\r\n",
			targets:   []string{"OK", "no change", "ERROR"},
			wantReply: "no change",
			remaining: 8,
		},
		{
			name:      "Target inside the command echo",
			input:     "AT+CWJAP_CUR=\"OKnet\",\"pw\"\r\r\n",
			targets:   []string{"OK", "FAIL"},
			wantReply: "AT+CWJAP_CUR=\"OK",
			remaining: 12,
		},
		{
			name:      "NUL bytes are dropped",
			input:     "\x00O\x00K",
			targets:   []string{"OK"},
			wantReply: "OK",
		},
		{
			name:      "Partial text on timeout",
			input:     "busy p...",
			targets:   []string{"OK"},
			wantReply: "busy p...",
			wantErr:   esp.ErrTimeout,
		},
		{
			name:    "No targets",
			targets: nil,
			wantErr: esp.ErrInvalidArgument,
		},
		{
			name:    "Too many targets",
			targets: []string{"OK", "ERROR", "FAIL", "busy"},
			wantErr: esp.ErrInvalidArgument,
		},
		{
			name:    "Empty target",
			targets: []string{"OK", ""},
			wantErr: esp.ErrInvalidArgument,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tt := esp.NewTestTransport()
			tt.SendData(test.input)
			s := newTestSession(tt)

			reply, err := s.Find(ctx, 50*time.Millisecond, test.targets...)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected error %v, got: %v", test.wantErr, err)
			}
			if reply != test.wantReply {
				t.Errorf("reply = %q, want %q", reply, test.wantReply)
			}
			if test.wantErr == nil && tt.Available() != test.remaining {
				t.Errorf("%d bytes left unread, want %d", tt.Available(), test.remaining)
			}
		})
	}
}

func TestSessionFindDeadline(t *testing.T) {
	t.Run("Returns promptly at the deadline", func(t *testing.T) {
		s := newTestSession(esp.NewTestTransport())

		start := time.Now()
		_, err := s.Find(context.Background(), 30*time.Millisecond, "OK")
		elapsed := time.Since(start)
		if !errors.Is(err, esp.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
		if elapsed < 30*time.Millisecond || elapsed > 500*time.Millisecond {
			t.Errorf("Find() returned after %v", elapsed)
		}
	})

	t.Run("Zero timeout uses the configured default", func(t *testing.T) {
		s := newTestSession(esp.NewTestTransport())

		start := time.Now()
		_, err := s.Find(context.Background(), 0, "OK")
		if !errors.Is(err, esp.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed < testATTimeout {
			t.Errorf("Find() returned after %v, want at least %v", elapsed, testATTimeout)
		}
	})

	t.Run("Context cancellation ends the read", func(t *testing.T) {
		s := newTestSession(esp.NewTestTransport())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		_, err := s.Find(ctx, 10*time.Second, "OK")
		if !errors.Is(err, esp.ErrTimeout) || !errors.Is(err, context.Canceled) {
			t.Errorf("expected ErrTimeout and context.Canceled, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Find() ignored cancellation for %v", elapsed)
		}
	})

	t.Run("Data arriving late within the deadline", func(t *testing.T) {
		tt := esp.NewTestTransport()
		tt.SendDataAfter(20*time.Millisecond, "OK\r\n")
		s := newTestSession(tt)

		if !s.FindBool(context.Background(), 200*time.Millisecond, "OK") {
			t.Error("FindBool() = false, want true")
		}
	})
}

func TestSessionResponseLimit(t *testing.T) {
	tt := esp.NewTestTransport()
	tt.SendData(strings.Repeat("x", 64) + "OK")
	s := esp.NewSession(tt, esp.Config{ATTimeout: testATTimeout, MaxResponseSize: 16})

	reply, err := s.Find(context.Background(), 0, "OK")
	if !errors.Is(err, esp.ErrResponseTooLarge) {
		t.Errorf("expected ErrResponseTooLarge, got: %v", err)
	}
	if len(reply) != 16 {
		t.Errorf("reply length = %d, want 16", len(reply))
	}
}

func TestSessionFindAndExtract(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		begin   string
		end     string
		want    string
		wantErr error
	}{
		{
			name:  "Text between echo and closing OK",
			input: "AT+CIFSR\r\r\n+CIFSR:STAIP,\"192.168.1.5\"\r\n\r\nOK\r\n",
			begin: "\r\r\n",
			end:   "\r\n\r\nOK",
			want:  `+CIFSR:STAIP,"192.168.1.5"`,
		},
		{
			name:  "First occurrence of both markers",
			input: "[a][b]OK",
			begin: "[",
			end:   "]",
			want:  "a",
		},
		{
			name:  "Empty extraction",
			input: "<>OK",
			begin: "<",
			end:   ">",
			want:  "",
		},
		{
			name:    "Begin marker missing",
			input:   "[a]OK",
			begin:   "<",
			end:     "]",
			want:    "[a]OK",
			wantErr: esp.ErrMarkerNotFound,
		},
		{
			name:    "End before begin",
			input:   "]x[OK",
			begin:   "[",
			end:     "]",
			want:    "]x[OK",
			wantErr: esp.ErrMarkerNotFound,
		},
		{
			name:    "Target never arrives",
			input:   "[a]",
			begin:   "[",
			end:     "]",
			want:    "[a]",
			wantErr: esp.ErrTimeout,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tt := esp.NewTestTransport()
			tt.SendData(test.input)
			s := newTestSession(tt)

			got, err := s.FindAndExtract(ctx, 50*time.Millisecond, "OK", test.begin, test.end)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected error %v, got: %v", test.wantErr, err)
			}
			if got != test.want {
				t.Errorf("FindAndExtract() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestSessionWriteLine(t *testing.T) {
	tt := esp.NewTestTransport()
	tt.SendData("stale\r\n")
	s := newTestSession(tt)

	if err := s.WriteLine("AT+CWQAP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tt.Available() != 0 {
		t.Errorf("%d stale bytes survived the write", tt.Available())
	}
	if got := tt.Writes(); len(got) != 1 || got[0] != "AT+CWQAP\r\n" {
		t.Errorf("writes = %q", got)
	}

	if err := s.WriteRaw([]byte("hi")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tt.Writes(); got[1] != "hi" {
		t.Errorf("raw write = %q", got[1])
	}
}
