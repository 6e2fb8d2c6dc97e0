package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/espat/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple AT command response",
			input:    "AT\r\r\n\r\nOK\r\n",
			expected: []string{"AT", "", "OK"},
		},
		{
			name:     "Query with echo",
			input:    "AT+CWMODE_CUR?\r\r\n+CWMODE_CUR:1\r\n\r\nOK\r\n",
			expected: []string{"AT+CWMODE_CUR?", "+CWMODE_CUR:1", "", "OK"},
		},
		{
			name:     "Join failure",
			input:    "AT+CWJAP_CUR=\"net\",\"pw\"\r\r\n+CWJAP:1\r\n\r\nFAIL\r\n",
			expected: []string{"AT+CWJAP_CUR=\"net\",\"pw\"", "+CWJAP:1", "", "FAIL"},
		},
		{
			name:     "Send sequence",
			input:    "AT+CIPSEND=5\r\r\n\r\nOK\r\n> ",
			expected: []string{"AT+CIPSEND=5", "", "OK", ">", " "},
		},
		{
			name:     "Send result",
			input:    "\r\nRecv 5 bytes\r\n\r\nSEND OK\r\n",
			expected: []string{"", "Recv 5 bytes", "", "SEND OK"},
		},
		{
			name:     "Version banner",
			input:    "AT+GMR\r\r\nAT version:1.2.0.0(Jul  1 2016 20:04:45)\r\nSDK version:1.5.4.1\r\n\r\nOK\r\n",
			expected: []string{"AT+GMR", "AT version:1.2.0.0(Jul  1 2016 20:04:45)", "SDK version:1.5.4.1", "", "OK"},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete reply at EOF",
			input:    "AT+CIFSR\r\r\n+CIFSR:STAIP,\"192.168.4.2\"",
			expected: []string{"AT+CIFSR", "+CIFSR:STAIP,\"192.168.4.2\""},
		},
		{
			name:     "Command without CRLF at EOF",
			input:    "AT+CWLAP",
			expected: []string{"AT+CWLAP"},
		},
		{
			name:     "Prompt only",
			input:    ">",
			expected: []string{">"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %q\nGot: %q",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestLines(t *testing.T) {
	got := at.Lines("AT+CIPMUX=1\r\r\n\r\nOK\r\n")
	want := []string{"AT+CIPMUX=1", "OK"}
	if len(got) != len(want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		// Final responses
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "FAIL response", input: "FAIL", expected: at.TypeFinal},
		{name: "SEND OK response", input: "SEND OK", expected: at.TypeFinal},

		// Alternates
		{name: "no change", input: "no change", expected: at.TypeAlternate},
		{name: "Already connected", input: "ALREADY CONNECT", expected: at.TypeAlternate},
		{name: "Link is not valid", input: "link is not valid", expected: at.TypeAlternate},
		{name: "No AP", input: "No AP", expected: at.TypeAlternate},

		// Frames
		{name: "Single frame", input: "+IPD,5:hello", expected: at.TypeFrame},
		{name: "Mux frame", input: "+IPD,0,5:hello", expected: at.TypeFrame},

		// Data responses
		{name: "AT command echo", input: "AT+CWLAP", expected: at.TypeData},
		{name: "Mode response", input: "+CWMODE_CUR:1", expected: at.TypeData},
		{name: "Connection status", input: "STATUS:2", expected: at.TypeData},

		// Prompt
		{name: "Send input prompt", input: ">", expected: at.TypePrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}
