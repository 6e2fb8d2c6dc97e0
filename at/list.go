package at

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

const listAPPrefix = "+CWLAP:("

// AccessPoint is one entry of an AT+CWLAP scan.
type AccessPoint struct {
	Encryption int
	SSID       string
	RSSI       int
	MAC        string
	Channel    int
}

// ParseAPList parses the reply of AT+CWLAP. Lines that are not scan entries
// are skipped; an entry that cannot be parsed fails the whole list.
func ParseAPList(reply string) ([]AccessPoint, error) {
	var aps []AccessPoint
	for _, line := range Lines(reply) {
		if Classify(line) != TypeData || !strings.HasPrefix(line, listAPPrefix) {
			continue
		}
		ap, err := parseAPLine(line)
		if err != nil {
			return nil, err
		}
		aps = append(aps, ap)
	}
	return aps, nil
}

func parseAPLine(line string) (AccessPoint, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(line, listAPPrefix), ")")

	r := csv.NewReader(strings.NewReader(body))
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return AccessPoint{}, fmt.Errorf("at: parse %q: %w", line, err)
	}
	if len(fields) < 4 {
		return AccessPoint{}, fmt.Errorf("at: parse %q: want at least 4 fields, got %d", line, len(fields))
	}

	var ap AccessPoint
	if ap.Encryption, err = strconv.Atoi(fields[0]); err != nil {
		return AccessPoint{}, fmt.Errorf("at: parse %q: encryption: %w", line, err)
	}
	ap.SSID = fields[1]
	if ap.RSSI, err = strconv.Atoi(fields[2]); err != nil {
		return AccessPoint{}, fmt.Errorf("at: parse %q: rssi: %w", line, err)
	}
	ap.MAC = fields[3]
	if len(fields) > 4 {
		if ap.Channel, err = strconv.Atoi(fields[4]); err != nil {
			return AccessPoint{}, fmt.Errorf("at: parse %q: channel: %w", line, err)
		}
	}
	return ap, nil
}

// ParseWiFiMode parses the value extracted from an AT+CWMODE? reply,
// i.e. the text between ':' and the closing "\r\n\r\nOK".
func ParseWiFiMode(field string) (WiFiMode, error) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("at: wifi mode %q: %w", field, err)
	}
	m := WiFiMode(n)
	if !m.Valid() {
		return 0, fmt.Errorf("at: wifi mode %d out of range", n)
	}
	return m, nil
}
