package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"i4.energy/across/espat/at"
	"i4.energy/across/espat/esp"
)

// maxReplySize bounds the frame read back by POST /send.
const maxReplySize = 2048

// Server handles incoming HTTP requests for interacting with the
// configured module. Requests are served one at a time, since the module
// only handles one command at a time.
type Server struct {
	Logger *slog.Logger
	Device *esp.Device

	mu sync.Mutex
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /aps", s.handleAPs)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /join", s.handleJoin)
	mux.HandleFunc("POST /ping", s.handlePing)
	mux.HandleFunc("POST /send", s.handleSend)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// sendDeviceError maps a driver error to a status code.
func (s *Server) sendDeviceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, esp.ErrInvalidArgument),
		errors.Is(err, esp.ErrInvalidMuxID),
		errors.Is(err, esp.ErrInvalidScope):
		status = http.StatusBadRequest
	case errors.Is(err, esp.ErrTimeout), errors.Is(err, esp.ErrNotResponding):
		status = http.StatusGatewayTimeout
	case errors.Is(err, esp.ErrUnexpectedReply):
		status = http.StatusBadGateway
	}
	s.sendError(w, err.Error(), status)
}

// dataLines keeps the informational lines of a reply.
func dataLines(reply string) []string {
	lines := []string{}
	for _, line := range at.Lines(reply) {
		if at.Classify(line) == at.TypeData {
			lines = append(lines, line)
		}
	}
	return lines
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.Device.Version(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query version", "error", err)
		s.sendDeviceError(w, err)
		return
	}

	type VersionResponse struct {
		Version []string `json:"version"`
	}
	s.sendJSON(w, VersionResponse{Version: dataLines(reply)}, http.StatusOK)
}

func (s *Server) handleAPs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aps, err := s.Device.ScanAPs(r.Context())
	if err != nil {
		s.Logger.Error("Failed to scan access points", "error", err)
		s.sendDeviceError(w, err)
		return
	}

	type AccessPoint struct {
		SSID       string `json:"ssid"`
		MAC        string `json:"mac"`
		RSSI       int    `json:"rssi"`
		Channel    int    `json:"channel"`
		Encryption int    `json:"encryption"`
	}
	resp := make([]AccessPoint, 0, len(aps))
	for _, ap := range aps {
		resp = append(resp, AccessPoint{
			SSID:       ap.SSID,
			MAC:        ap.MAC,
			RSSI:       ap.RSSI,
			Channel:    ap.Channel,
			Encryption: ap.Encryption,
		})
	}
	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.Device.IPStatus(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query link status", "error", err)
		s.sendDeviceError(w, err)
		return
	}
	addrs, err := s.Device.LocalIP(r.Context())
	if err != nil {
		s.Logger.Error("Failed to query local addresses", "error", err)
		s.sendDeviceError(w, err)
		return
	}

	type StatusResponse struct {
		Status    []string `json:"status"`
		Addresses []string `json:"addresses"`
	}
	s.sendJSON(w, StatusResponse{
		Status:    dataLines(status),
		Addresses: dataLines(addrs),
	}, http.StatusOK)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	type JoinRequest struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
		// Persist stores the credentials in flash.
		Persist bool `json:"persist"`
	}

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SSID == "" {
		s.sendError(w, "'ssid' field is required", http.StatusBadRequest)
		return
	}

	scope := at.ScopeCurrent
	if req.Persist {
		scope = at.ScopeDefault
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Device.SetOprToStation(r.Context(), at.ScopeCurrent, scope); err != nil {
		s.Logger.Error("Failed to switch to station mode", "error", err)
		s.sendDeviceError(w, err)
		return
	}
	if err := s.Device.JoinAP(r.Context(), req.SSID, req.Password, scope); err != nil {
		s.Logger.Error("Failed to join access point", "error", err, "ssid", req.SSID)
		s.sendDeviceError(w, err)
		return
	}

	s.Logger.Info("Joined access point", "ssid", req.SSID, "scope", scope.String())
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	type PingRequest struct {
		Host string `json:"host"`
	}

	var req PingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Host == "" {
		s.sendError(w, "'host' field is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Device.Ping(r.Context(), req.Host); err != nil {
		s.Logger.Error("Ping failed", "error", err, "host", req.Host)
		s.sendDeviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSend opens a link, sends the payload and, when wait_ms is set, waits
// that long for one inbound frame before closing the link again.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	type SendRequest struct {
		Protocol string `json:"protocol"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Payload  string `json:"payload"`
		WaitMS   int    `json:"wait_ms"`
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Host == "" || req.Port <= 0 || req.Payload == "" {
		s.sendError(w, "'host', 'port' and 'payload' fields are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch strings.ToLower(req.Protocol) {
	case "", "tcp":
		err = s.Device.CreateTCP(ctx, req.Host, req.Port)
	case "udp":
		err = s.Device.RegisterUDP(ctx, req.Host, req.Port)
	default:
		s.sendError(w, "'protocol' must be tcp or udp", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.Logger.Error("Failed to open link", "error", err, "host", req.Host, "port", req.Port)
		s.sendDeviceError(w, err)
		return
	}
	defer func() {
		if err := s.Device.ReleaseTCP(ctx); err != nil {
			s.Logger.Warn("Failed to close link", "error", err)
		}
	}()

	if err := s.Device.Send(ctx, []byte(req.Payload)); err != nil {
		s.Logger.Error("Failed to send payload", "error", err, "host", req.Host)
		s.sendDeviceError(w, err)
		return
	}

	type SendResponse struct {
		Sent  int    `json:"sent"`
		Reply string `json:"reply,omitempty"`
	}
	resp := SendResponse{Sent: len(req.Payload)}
	if req.WaitMS > 0 {
		buf := make([]byte, maxReplySize)
		n, err := s.Device.Recv(ctx, buf, time.Duration(req.WaitMS)*time.Millisecond)
		if err != nil && !errors.Is(err, esp.ErrTimeout) {
			s.Logger.Error("Failed to receive reply", "error", err, "host", req.Host)
			s.sendDeviceError(w, err)
			return
		}
		resp.Reply = string(buf[:n])
	}

	s.Logger.Info("Payload sent", "host", req.Host, "port", req.Port, "length", len(req.Payload))
	s.sendJSON(w, resp, http.StatusOK)
}
