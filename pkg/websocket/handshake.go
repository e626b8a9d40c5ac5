package websocket

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Handshake errors.
var (
	ErrNotWebSocketRequest = errors.New("not a WebSocket request")
	ErrMissingUpgrade      = errors.New("missing Upgrade header")
	ErrMissingSecKey       = errors.New("missing Sec-WebSocket-Key header")
	ErrInvalidSecKey       = errors.New("invalid Sec-WebSocket-Key header")
	ErrInvalidSecVersion   = errors.New("invalid Sec-WebSocket-Version")
	ErrHijackUnsupported   = errors.New("response writer cannot be hijacked")
)

// WebSocket GUID as defined in RFC 6455.
const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// HandshakeError represents a handshake error and the HTTP status to answer with.
type HandshakeError struct {
	Err    error
	Status int
}

func (e *HandshakeError) Error() string {
	return e.Err.Error()
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsUpgradeRequest reports whether r asks for a WebSocket upgrade.
func IsUpgradeRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// validateRequest validates the WebSocket upgrade request.
func validateRequest(r *http.Request) error {
	if r.Method != http.MethodGet {
		return &HandshakeError{Err: ErrNotWebSocketRequest, Status: http.StatusMethodNotAllowed}
	}
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return &HandshakeError{Err: ErrMissingUpgrade, Status: http.StatusBadRequest}
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") {
		return &HandshakeError{Err: ErrNotWebSocketRequest, Status: http.StatusBadRequest}
	}
	if r.Header.Get("Sec-WebSocket-Version") != "13" {
		return &HandshakeError{Err: ErrInvalidSecVersion, Status: http.StatusBadRequest}
	}

	key := r.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		return &HandshakeError{Err: ErrMissingSecKey, Status: http.StatusBadRequest}
	}
	// The key is 16 random bytes, base64 encoded.
	if raw, err := base64.StdEncoding.DecodeString(key); err != nil || len(raw) != 16 {
		return &HandshakeError{Err: ErrInvalidSecKey, Status: http.StatusBadRequest}
	}
	return nil
}

// Upgrade validates r, takes over its connection and answers the handshake.
// On a validation error nothing has been written and the caller still owns w.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	if err := validateRequest(r); err != nil {
		return nil, err
	}

	netConn, rw, err := http.NewResponseController(w).Hijack()
	if err != nil {
		return nil, &HandshakeError{Err: fmt.Errorf("%w: %v", ErrHijackUnsupported, err), Status: http.StatusInternalServerError}
	}

	// Deadlines set by the HTTP server outlive the hijack.
	if err := netConn.SetDeadline(time.Time{}); err != nil {
		netConn.Close()
		return nil, err
	}

	resp := buildUpgradeResponse(generateAcceptKey(r.Header.Get("Sec-WebSocket-Key")))
	_, err = rw.WriteString(resp)
	if err == nil {
		err = rw.Flush()
	}
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("failed to write upgrade response: %w", err)
	}

	// Keep the hijacked reader: it may already hold the client's first frame.
	var br *bufio.Reader
	if rw.Reader.Buffered() > 0 {
		br = rw.Reader
	}
	return newConn(netConn, br), nil
}

// generateAcceptKey generates the Sec-WebSocket-Accept key per RFC 6455.
func generateAcceptKey(secKey string) string {
	hash := sha1.Sum([]byte(secKey + webSocketGUID))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// buildUpgradeResponse builds the WebSocket upgrade response.
func buildUpgradeResponse(acceptKey string) string {
	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	sb.WriteString("Upgrade: websocket\r\n")
	sb.WriteString("Connection: Upgrade\r\n")
	sb.WriteString("Sec-WebSocket-Accept: " + acceptKey + "\r\n")
	sb.WriteString("\r\n")
	return sb.String()
}
