package at

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadHeader is returned when an +IPD announcement is present but its
// length or connection id cannot be parsed.
var ErrBadHeader = errors.New("at: malformed +IPD header")

// IPDHeader describes an inbound data announcement.
//
//	+IPD,<len>:<payload>        single connection
//	+IPD,<id>,<len>:<payload>   multiplexed
type IPDHeader struct {
	// MuxID is the connection the payload belongs to. Only meaningful when
	// HasMuxID is set.
	MuxID    int
	HasMuxID bool
	// Length is the declared payload size. Always positive for a parsed header.
	Length int
}

func (h IPDHeader) String() string {
	if h.HasMuxID {
		return fmt.Sprintf("+IPD,%d,%d", h.MuxID, h.Length)
	}
	return fmt.Sprintf("+IPD,%d", h.Length)
}

// IPDHeaderEnd reports the index just past the ':' terminating the first
// +IPD announcement in data, or -1 if the announcement is not complete yet.
func IPDHeaderEnd(data []byte) int {
	start := bytes.Index(data, []byte(IPDPrefix))
	if start < 0 {
		return -1
	}
	body := data[start+len(IPDPrefix):]
	colon := bytes.Index(body, []byte(IPDDelimiter))
	if colon < 0 {
		return -1
	}
	return start + len(IPDPrefix) + colon + len(IPDDelimiter)
}

// ParseIPD locates the first complete +IPD announcement in data and parses it.
// It returns the header and the index of the first payload byte.
func ParseIPD(data []byte) (IPDHeader, int, error) {
	end := IPDHeaderEnd(data)
	if end < 0 {
		return IPDHeader{}, -1, fmt.Errorf("%w: no announcement", ErrBadHeader)
	}
	start := bytes.Index(data, []byte(IPDPrefix)) + len(IPDPrefix)
	hdr, err := ParseIPDHeader(string(data[start : end-len(IPDDelimiter)]))
	if err != nil {
		return IPDHeader{}, -1, err
	}
	return hdr, end, nil
}

// ParseIPDHeader parses the text between "+IPD," and ':', that is either
// "<len>" or "<id>,<len>".
func ParseIPDHeader(field string) (IPDHeader, error) {
	var hdr IPDHeader

	lenField := field
	if i := strings.IndexByte(field, ','); i >= 0 {
		id, err := strconv.Atoi(field[:i])
		if err != nil || id < 0 || id > MaxMuxID {
			return IPDHeader{}, fmt.Errorf("%w: connection id %q", ErrBadHeader, field[:i])
		}
		hdr.MuxID = id
		hdr.HasMuxID = true
		lenField = field[i+1:]
	}

	n, err := strconv.Atoi(lenField)
	if err != nil || n <= 0 {
		return IPDHeader{}, fmt.Errorf("%w: length %q", ErrBadHeader, lenField)
	}
	hdr.Length = n
	return hdr, nil
}
