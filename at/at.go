package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = ">"

	// Response Codes
	OK     = "OK"
	ERROR  = "ERROR"
	FAIL   = "FAIL"
	SendOK = "SEND OK"

	// Alternate replies that some commands treat as success or as a known failure
	NoChange       = "no change"
	AlreadyConnect = "ALREADY CONNECT"
	LinkIsNot      = "link is not"
	NoAP           = "No AP"
	LinkIsBuilded  = "Link is builded"

	// Inbound data announcement: +IPD,[<id>,]<len>:<payload>
	IPDPrefix    = "+IPD,"
	IPDDelimiter = ":"

	// Reply framing used by the firmware around query results. The firmware
	// echoes the command followed by "\r\r\n", and closes with a blank line
	// before the final OK.
	EchoEnd  = "\r\r\n"
	ReplyEnd = "\r\n\r\nOK"
	LineOK   = "\r\nOK"
)

// MaxMuxID is the highest connection identifier in multiplexed mode.
// The firmware supports five concurrent links, 0 through 4.
const MaxMuxID = 4

type ResponseType int

const (
	TypeFinal     ResponseType = iota // OK, ERROR, FAIL, SEND OK
	TypeAlternate                     // no change, ALREADY CONNECT, ...
	TypeFrame                         // +IPD announcement
	TypeData                          // Intermediate command output (+CWMODE:1 ...)
	TypePrompt                        // CIPSEND input prompt
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeAlternate:
		return "alternate"
	case TypeFrame:
		return "frame"
	case TypeData:
		return "data"
	case TypePrompt:
		return "prompt"
	default:
		return "unknown"
	}
}
