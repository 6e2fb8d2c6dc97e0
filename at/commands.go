package at

import (
	"fmt"
	"strconv"
)

// Scope selects which variant of a configuration command is issued.
//
// The zero value is deliberately invalid: callers must choose whether a
// setting goes to flash (ScopeDefault), to the running configuration only
// (ScopeCurrent) or through the legacy unsuffixed command (ScopeRuntime).
type Scope int

const (
	_ Scope = iota
	// ScopeDefault issues the "_DEF" variant, persisted to flash.
	ScopeDefault
	// ScopeCurrent issues the "_CUR" variant, lost on reset.
	ScopeCurrent
	// ScopeRuntime issues the unsuffixed legacy command.
	ScopeRuntime
)

// Valid reports whether s is one of the defined scopes.
func (s Scope) Valid() bool {
	return s >= ScopeDefault && s <= ScopeRuntime
}

func (s Scope) suffix() string {
	switch s {
	case ScopeDefault:
		return "_DEF"
	case ScopeCurrent:
		return "_CUR"
	default:
		return ""
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeDefault:
		return "default"
	case ScopeCurrent:
		return "current"
	case ScopeRuntime:
		return "runtime"
	default:
		return "Scope(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseScope maps the names returned by Scope.String back to a Scope.
func ParseScope(name string) (Scope, error) {
	switch name {
	case "default", "def":
		return ScopeDefault, nil
	case "current", "cur":
		return ScopeCurrent, nil
	case "runtime":
		return ScopeRuntime, nil
	}
	return 0, fmt.Errorf("at: unknown scope %q", name)
}

// WiFiMode is the operating mode reported and accepted by AT+CWMODE.
type WiFiMode int

const (
	ModeStation       WiFiMode = 1
	ModeSoftAP        WiFiMode = 2
	ModeStationSoftAP WiFiMode = 3
)

func (m WiFiMode) Valid() bool {
	return m >= ModeStation && m <= ModeStationSoftAP
}

func (m WiFiMode) String() string {
	switch m {
	case ModeStation:
		return "station"
	case ModeSoftAP:
		return "softap"
	case ModeStationSoftAP:
		return "station+softap"
	default:
		return "WiFiMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Protocol is the transport used by AT+CIPSTART.
type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// Basic commands
const (
	CmdAt           = "AT"
	CmdReset        = "AT+RST"
	CmdVersion      = "AT+GMR"
	CmdRestore      = "AT+RESTORE"
	CmdListAP       = "AT+CWLAP"
	CmdQuitAP       = "AT+CWQAP"
	CmdListClients  = "AT+CWLIF"
	CmdStopSmart    = "AT+CWSTOPSMART"
	CmdStatus       = "AT+CIPSTATUS"
	CmdLocalIP      = "AT+CIFSR"
	CmdClose        = "AT+CIPCLOSE"
	CmdServerStop   = "AT+CIPSERVER=0"
	CmdWiFiModeList = "AT+CWMODE=?"
)

func scoped(name string, s Scope) string {
	return name + s.suffix()
}

func quote(s string) string {
	return `"` + s + `"`
}

// Echo builds ATE0 / ATE1.
func Echo(on bool) string {
	if on {
		return "ATE1"
	}
	return "ATE0"
}

// DeepSleep builds AT+GSLP=<ms>.
func DeepSleep(ms uint32) string {
	return fmt.Sprintf("AT+GSLP=%d", ms)
}

// SetUART builds AT+UART[_CUR|_DEF]=<baud>,8,1,0,0.
func SetUART(baud int, s Scope) string {
	return fmt.Sprintf("%s=%d,8,1,0,0", scoped("AT+UART", s), baud)
}

// QueryWiFiMode builds AT+CWMODE[_DEF|_CUR]?.
func QueryWiFiMode(s Scope) string {
	return scoped("AT+CWMODE", s) + "?"
}

// SetWiFiMode builds AT+CWMODE[_DEF|_CUR]=<mode>.
func SetWiFiMode(m WiFiMode, s Scope) string {
	return fmt.Sprintf("%s=%d", scoped("AT+CWMODE", s), m)
}

// QueryAP builds AT+CWJAP[_DEF|_CUR]?.
func QueryAP(s Scope) string {
	return scoped("AT+CWJAP", s) + "?"
}

// JoinAP builds AT+CWJAP[_DEF|_CUR]="<ssid>","<pwd>".
func JoinAP(ssid, pwd string, s Scope) string {
	return scoped("AT+CWJAP", s) + "=" + quote(ssid) + "," + quote(pwd)
}

// QuerySoftAP builds AT+CWSAP[_DEF|_CUR]?.
func QuerySoftAP(s Scope) string {
	return scoped("AT+CWSAP", s) + "?"
}

// SetSoftAP builds AT+CWSAP[_DEF|_CUR]="<ssid>","<pwd>",<chl>,<ecn>.
func SetSoftAP(ssid, pwd string, chl, ecn int, s Scope) string {
	return fmt.Sprintf("%s=%s,%s,%d,%d", scoped("AT+CWSAP", s), quote(ssid), quote(pwd), chl, ecn)
}

// QueryDHCP builds AT+CWDHCP[_DEF|_CUR]?.
func QueryDHCP(s Scope) string {
	return scoped("AT+CWDHCP", s) + "?"
}

// SetDHCP builds AT+CWDHCP[_DEF|_CUR]=<mode>,<en>.
func SetDHCP(mode, en int, s Scope) string {
	return fmt.Sprintf("%s=%d,%d", scoped("AT+CWDHCP", s), mode, en)
}

// AutoConnect builds AT+CWAUTOCONN=<0|1>.
func AutoConnect(on bool) string {
	return "AT+CWAUTOCONN=" + boolDigit(on)
}

// QueryStationMAC builds AT+CIPSTAMAC[_DEF|_CUR]?.
func QueryStationMAC(s Scope) string {
	return scoped("AT+CIPSTAMAC", s) + "?"
}

// SetStationMAC builds AT+CIPSTAMAC[_DEF|_CUR]="<mac>".
func SetStationMAC(mac string, s Scope) string {
	return scoped("AT+CIPSTAMAC", s) + "=" + quote(mac)
}

// QueryStationIP builds AT+CIPSTA[_DEF|_CUR]?.
func QueryStationIP(s Scope) string {
	return scoped("AT+CIPSTA", s) + "?"
}

// SetStationIP builds AT+CIPSTA[_DEF|_CUR]="<ip>","<gateway>","<netmask>".
func SetStationIP(ip, gateway, netmask string, s Scope) string {
	return scoped("AT+CIPSTA", s) + "=" + quote(ip) + "," + quote(gateway) + "," + quote(netmask)
}

// QueryAPIP builds AT+CIPAP[_DEF|_CUR]?.
func QueryAPIP(s Scope) string {
	return scoped("AT+CIPAP", s) + "?"
}

// SetAPIP builds AT+CIPAP[_DEF|_CUR]="<ip>".
func SetAPIP(ip string, s Scope) string {
	return scoped("AT+CIPAP", s) + "=" + quote(ip)
}

// StartSmartConfig builds AT+CWSTARTSMART=<type>.
func StartSmartConfig(kind int) string {
	return fmt.Sprintf("AT+CWSTARTSMART=%d", kind)
}

// Mux builds AT+CIPMUX=<0|1>.
func Mux(on bool) string {
	return "AT+CIPMUX=" + boolDigit(on)
}

// Start builds AT+CIPSTART="<proto>","<addr>",<port>.
func Start(proto Protocol, addr string, port int) string {
	return fmt.Sprintf("AT+CIPSTART=%s,%s,%d", quote(string(proto)), quote(addr), port)
}

// StartMux builds AT+CIPSTART=<id>,"<proto>","<addr>",<port>.
func StartMux(id int, proto Protocol, addr string, port int) string {
	return fmt.Sprintf("AT+CIPSTART=%d,%s,%s,%d", id, quote(string(proto)), quote(addr), port)
}

// Send builds AT+CIPSEND=<len>.
func Send(n int) string {
	return fmt.Sprintf("AT+CIPSEND=%d", n)
}

// SendMux builds AT+CIPSEND=<id>,<len>.
func SendMux(id, n int) string {
	return fmt.Sprintf("AT+CIPSEND=%d,%d", id, n)
}

// CloseMux builds AT+CIPCLOSE=<id>.
func CloseMux(id int) string {
	return fmt.Sprintf("AT+CIPCLOSE=%d", id)
}

// ServerStart builds AT+CIPSERVER=1,<port>.
func ServerStart(port int) string {
	return fmt.Sprintf("AT+CIPSERVER=1,%d", port)
}

// ServerTimeout builds AT+CIPSTO=<seconds>.
func ServerTimeout(seconds int) string {
	return fmt.Sprintf("AT+CIPSTO=%d", seconds)
}

// TransferMode builds AT+CIPMODE=<0|1>.
func TransferMode(mode int) string {
	return fmt.Sprintf("AT+CIPMODE=%d", mode)
}

// SaveTransLink builds AT+SAVETRANSLINK=<mode>,"<ip>",<port>.
func SaveTransLink(mode int, ip string, port int) string {
	return fmt.Sprintf("AT+SAVETRANSLINK=%d,%s,%d", mode, quote(ip), port)
}

// Ping builds AT+PING="<host>".
func Ping(host string) string {
	return "AT+PING=" + quote(host)
}

func boolDigit(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
