package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing ESP8266 AT replies. It uses the signature
// of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings, tolerating the "\r\r\n" sequence
// the firmware emits after a command echo, and also recognizes the CIPSEND
// input prompt (">").
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. Match send prompt
	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), bytes.TrimRight(data[0:i], "\r"), nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Lines splits a raw reply into its non-empty lines.
func Lines(reply string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(reply))
	scanner.Split(Splitter)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Classify identifies the nature of a reply line
func Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, FAIL, SendOK:
		return TypeFinal
	case NoChange, AlreadyConnect, NoAP, LinkIsBuilded:
		return TypeAlternate
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, IPDPrefix):
		return TypeFrame
	case strings.HasPrefix(line, LinkIsNot):
		return TypeAlternate
	default:
		return TypeData
	}
}
