package websocket

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestOpcode tests opcode classification.
func TestOpcode(t *testing.T) {
	tests := []struct {
		name     string
		opcode   Opcode
		wantVal  bool
		wantCtrl bool
		wantData bool
	}{
		{"Continuation", OpcodeContinuation, true, false, true},
		{"Text", OpcodeText, true, false, true},
		{"Binary", OpcodeBinary, true, false, true},
		{"Close", OpcodeClose, true, true, false},
		{"Ping", OpcodePing, true, true, false},
		{"Pong", OpcodePong, true, true, false},
		{"Invalid", Opcode(0xFF), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opcode.IsValid(); got != tt.wantVal {
				t.Errorf("Opcode.IsValid() = %v, want %v", got, tt.wantVal)
			}
			if got := tt.opcode.IsControl(); got != tt.wantCtrl {
				t.Errorf("Opcode.IsControl() = %v, want %v", got, tt.wantCtrl)
			}
			if got := tt.opcode.IsData(); got != tt.wantData {
				t.Errorf("Opcode.IsData() = %v, want %v", got, tt.wantData)
			}
		})
	}
}

// TestFrameValidation tests frame validation.
func TestFrameValidation(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		wantErr error
	}{
		{"Valid text frame", &Frame{Fin: true, Opcode: OpcodeText, Payload: []byte("hello")}, nil},
		{"Invalid opcode", &Frame{Fin: true, Opcode: Opcode(0x3)}, ErrInvalidOpcode},
		{"Control frame fragmented", &Frame{Fin: false, Opcode: OpcodePing}, ErrFragmentedControl},
		{"Control frame too long", &Frame{Fin: true, Opcode: OpcodeClose, Payload: make([]byte, 126)}, ErrControlFrameTooLong},
		{"Reserved bits", &Frame{Fin: true, RSV: 0x4, Opcode: OpcodeText}, ErrReservedBitsSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestFrameRoundTrip writes and reads frames of every length encoding.
func TestFrameRoundTrip(t *testing.T) {
	for _, size := range []int{0, 5, 125, 126, 65535, 65536} {
		for _, masked := range []bool{false, true} {
			payload := bytes.Repeat([]byte{'x'}, size)
			in := &Frame{Fin: true, Opcode: OpcodeBinary, Masked: masked, Mask: [4]byte{1, 2, 3, 4}, Payload: payload}

			var buf bytes.Buffer
			if err := WriteFrame(&buf, in); err != nil {
				t.Fatalf("WriteFrame(%d, masked=%v): %v", size, masked, err)
			}
			// The caller's payload stays unmasked.
			if !bytes.Equal(in.Payload, payload) {
				t.Fatalf("WriteFrame modified the payload")
			}

			out, err := ReadFrame(&buf)
			if err != nil {
				t.Fatalf("ReadFrame(%d, masked=%v): %v", size, masked, err)
			}
			if out.Opcode != OpcodeBinary || !out.Fin || out.Masked != masked {
				t.Errorf("header = %+v", out)
			}
			if len(out.Payload) != size || (size > 0 && !bytes.Equal(out.Payload, payload)) {
				t.Errorf("payload length = %d, want %d", len(out.Payload), size)
			}
		}
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	// 127 length marker followed by a 64-bit length above the limit.
	hdr := []byte{0x82, 127, 0, 0, 0, 0, 0x10, 0, 0, 0}
	_, err := ReadFrame(bytes.NewReader(hdr))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame() error = %v, want ErrFrameTooLarge", err)
	}
}

// TestAcceptKeyGeneration checks the example from RFC 6455 Section 1.3.
func TestAcceptKeyGeneration(t *testing.T) {
	got := generateAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	if want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="; got != want {
		t.Errorf("generateAcceptKey() = %q, want %q", got, want)
	}
}

func TestCloseCode(t *testing.T) {
	if got := CloseCode(nil); got != CloseNormal {
		t.Errorf("CloseCode(nil) = %d", got)
	}
	if got := CloseCode(closePayload(CloseGoingAway, "bye")); got != CloseGoingAway {
		t.Errorf("CloseCode() = %d, want %d", got, CloseGoingAway)
	}
	if p := closePayload(CloseNormal, strings.Repeat("r", 200)); len(p) != MaxControlPayloadSize {
		t.Errorf("close payload length = %d", len(p))
	}
}

// TestUpgraderValidation tests request validation.
func TestUpgraderValidation(t *testing.T) {
	valid := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Upgrade", "websocket")
		r.Header.Set("Connection", "keep-alive, Upgrade")
		r.Header.Set("Sec-WebSocket-Version", "13")
		r.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		return r
	}

	tests := []struct {
		name       string
		mutate     func(r *http.Request)
		wantErr    error
		wantStatus int
	}{
		{"Valid", func(r *http.Request) {}, nil, 0},
		{"Wrong method", func(r *http.Request) { r.Method = http.MethodPost }, ErrNotWebSocketRequest, http.StatusMethodNotAllowed},
		{"Missing upgrade", func(r *http.Request) { r.Header.Del("Upgrade") }, ErrMissingUpgrade, http.StatusBadRequest},
		{"Missing connection", func(r *http.Request) { r.Header.Set("Connection", "close") }, ErrNotWebSocketRequest, http.StatusBadRequest},
		{"Old version", func(r *http.Request) { r.Header.Set("Sec-WebSocket-Version", "8") }, ErrInvalidSecVersion, http.StatusBadRequest},
		{"Missing key", func(r *http.Request) { r.Header.Del("Sec-WebSocket-Key") }, ErrMissingSecKey, http.StatusBadRequest},
		{"Short key", func(r *http.Request) { r.Header.Set("Sec-WebSocket-Key", "c2hvcnQ=") }, ErrInvalidSecKey, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := validateRequest(r)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("validateRequest() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil {
				if !IsUpgradeRequest(r) {
					t.Error("IsUpgradeRequest() = false")
				}
				return
			}
			var he *HandshakeError
			if !errors.As(err, &he) || he.Status != tt.wantStatus {
				t.Errorf("status = %v, want %d", err, tt.wantStatus)
			}
		})
	}
}

// dial performs a client handshake against url and returns the raw
// connection with a reader positioned after the response headers.
func dial(t *testing.T, srv *httptest.Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	req := "GET /ws HTTP/1.1\r\n" +
		"Host: " + srv.Listener.Addr().String() + "\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		t.Fatalf("read handshake: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
	if got := resp.Header.Get("Sec-WebSocket-Accept"); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("accept = %q", got)
	}
	return conn, br
}

func writeClient(t *testing.T, conn net.Conn, op Opcode, fin bool, payload string) {
	t.Helper()
	f := &Frame{Fin: fin, Opcode: op, Masked: true, Mask: [4]byte{0x37, 0xfa, 0x21, 0x3d}, Payload: []byte(payload)}
	if err := WriteFrame(conn, f); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// TestConnEcho runs an echo server over a real connection.
func TestConnEcho(t *testing.T) {
	done := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			done <- err
			return
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			if err := conn.WriteJSON(map[string]string{"echo": string(msg)}); err != nil {
				done <- err
				return
			}
		}
	}))
	defer srv.Close()

	conn, br := dial(t, srv)

	writeClient(t, conn, OpcodePing, true, "p")
	f, err := ReadFrame(br)
	if err != nil || f.Opcode != OpcodePong || string(f.Payload) != "p" {
		t.Fatalf("pong = %+v, %v", f, err)
	}

	// A fragmented message with a ping in between.
	writeClient(t, conn, OpcodeText, false, "hel")
	writeClient(t, conn, OpcodePong, true, "")
	writeClient(t, conn, OpcodeContinuation, true, "lo")
	f, err = ReadFrame(br)
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if f.Masked {
		t.Error("server frames must not be masked")
	}
	if got := string(f.Payload); got != `{"echo":"hello"}` {
		t.Errorf("echo = %s", got)
	}

	writeClient(t, conn, OpcodeClose, true, string(closePayload(CloseGoingAway, "")))
	f, err = ReadFrame(br)
	if err != nil || f.Opcode != OpcodeClose || CloseCode(f.Payload) != CloseGoingAway {
		t.Fatalf("close reply = %+v, %v", f, err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("server error = %v, want ErrConnectionClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not finish")
	}
}

func TestConnRejectsUnmaskedFrames(t *testing.T) {
	done := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			done <- err
			return
		}
		_, _, err = conn.ReadMessage()
		done <- err
	}))
	defer srv.Close()

	conn, br := dial(t, srv)
	if err := WriteFrame(conn, &Frame{Fin: true, Opcode: OpcodeText, Payload: []byte("x")}); err != nil {
		t.Fatal(err)
	}

	f, err := ReadFrame(br)
	if err != nil || f.Opcode != OpcodeClose || CloseCode(f.Payload) != CloseProtocolError {
		t.Fatalf("close = %+v, %v", f, err)
	}
	if err := <-done; !errors.Is(err, ErrUnmaskedClientFrame) {
		t.Errorf("ReadMessage() error = %v", err)
	}
}

func TestUpgradeRejectsPlainRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	_, err := Upgrade(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	var he *HandshakeError
	if !errors.As(err, &he) || he.Status != http.StatusBadRequest {
		t.Fatalf("Upgrade() error = %v", err)
	}
}

func TestWriteAfterClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	go func() {
		// Drain the close frame.
		buf := make([]byte, 64)
		client.Read(buf)
	}()

	c := newConn(server, nil)
	c.Close(CloseNormal, "")
	select {
	case <-c.Done():
	default:
		t.Fatal("Done() not closed")
	}
	if err := c.WriteText([]byte("late")); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("WriteText() error = %v, want ErrConnectionClosed", err)
	}
	// Closing twice is harmless.
	c.Close(CloseNormal, "")
}
