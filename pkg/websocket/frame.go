package websocket

import (
	"encoding/binary"
	"errors"
	"io"
)

// Opcode represents WebSocket frame opcodes per RFC 6455.
type Opcode uint8

// Frame opcodes as defined in RFC 6455 Section 5.2.
const (
	OpcodeContinuation Opcode = 0x0
	OpcodeText         Opcode = 0x1
	OpcodeBinary       Opcode = 0x2
	OpcodeClose        Opcode = 0x8
	OpcodePing         Opcode = 0x9
	OpcodePong         Opcode = 0xA
)

// IsValid checks if the opcode is a valid WebSocket opcode.
func (o Opcode) IsValid() bool {
	switch o {
	case OpcodeContinuation, OpcodeText, OpcodeBinary,
		OpcodeClose, OpcodePing, OpcodePong:
		return true
	default:
		return false
	}
}

// IsControl checks if the opcode is a control frame opcode.
func (o Opcode) IsControl() bool {
	switch o {
	case OpcodeClose, OpcodePing, OpcodePong:
		return true
	default:
		return false
	}
}

// IsData checks if the opcode is a data frame opcode.
func (o Opcode) IsData() bool {
	switch o {
	case OpcodeContinuation, OpcodeText, OpcodeBinary:
		return true
	default:
		return false
	}
}

// String returns the string representation of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpcodeContinuation:
		return "CONTINUATION"
	case OpcodeText:
		return "TEXT"
	case OpcodeBinary:
		return "BINARY"
	case OpcodeClose:
		return "CLOSE"
	case OpcodePing:
		return "PING"
	case OpcodePong:
		return "PONG"
	default:
		return "UNKNOWN"
	}
}

// Close status codes from RFC 6455 Section 7.4.1.
const (
	CloseNormal          uint16 = 1000
	CloseGoingAway       uint16 = 1001
	CloseProtocolError   uint16 = 1002
	CloseUnsupportedData uint16 = 1003
	CloseMessageTooBig   uint16 = 1009
)

// Frame is one WebSocket frame. Payload is always unmasked.
type Frame struct {
	Fin     bool
	RSV     uint8
	Opcode  Opcode
	Masked  bool
	Mask    [4]byte
	Payload []byte
}

// Frame errors.
var (
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrFrameTooLarge       = errors.New("frame too large")
	ErrControlFrameTooLong = errors.New("control frame payload too long")
	ErrFragmentedControl   = errors.New("control frames cannot be fragmented")
	ErrReservedBitsSet     = errors.New("reserved bits set without extension")
	ErrUnmaskedClientFrame = errors.New("client frames must be masked")
	ErrConnectionClosed    = errors.New("connection closed")
)

// Frame size limits.
const (
	// MaxControlPayloadSize is the maximum payload size for control frames.
	MaxControlPayloadSize = 125
	// MaxFramePayloadSize bounds inbound data frames. Clients only send
	// small commands.
	MaxFramePayloadSize = 1 << 20
)

// FrameError represents a frame validation error.
type FrameError struct {
	Err    error
	Opcode Opcode
}

func (e *FrameError) Error() string {
	return e.Opcode.String() + ": " + e.Err.Error()
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Validate validates the frame according to RFC 6455 rules.
func (f *Frame) Validate() error {
	switch {
	case !f.Opcode.IsValid():
		return &FrameError{Err: ErrInvalidOpcode, Opcode: f.Opcode}
	case f.Opcode.IsControl() && !f.Fin:
		return &FrameError{Err: ErrFragmentedControl, Opcode: f.Opcode}
	case f.Opcode.IsControl() && len(f.Payload) > MaxControlPayloadSize:
		return &FrameError{Err: ErrControlFrameTooLong, Opcode: f.Opcode}
	case f.RSV != 0:
		return &FrameError{Err: ErrReservedBitsSet, Opcode: f.Opcode}
	}
	return nil
}

// ReadFrame reads one frame from r, unmasking the payload.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	f := &Frame{
		Fin:    header[0]&0x80 != 0,
		RSV:    (header[0] >> 4) & 0x07,
		Opcode: Opcode(header[0] & 0x0F),
		Masked: header[1]&0x80 != 0,
	}

	n := uint64(header[1] & 0x7F)
	switch n {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		n = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return nil, err
		}
		n = binary.BigEndian.Uint64(ext[:])
	}
	if n > MaxFramePayloadSize {
		return nil, &FrameError{Err: ErrFrameTooLarge, Opcode: f.Opcode}
	}

	if f.Masked {
		if _, err := io.ReadFull(r, f.Mask[:]); err != nil {
			return nil, err
		}
	}
	if n > 0 {
		f.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return nil, err
		}
		if f.Masked {
			maskBytes(f.Mask, f.Payload)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFrame writes f to w. A masked frame is masked with f.Mask.
func WriteFrame(w io.Writer, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	n := len(f.Payload)
	buf := make([]byte, 0, 14+n)

	b0 := byte(f.Opcode & 0x0F)
	if f.Fin {
		b0 |= 0x80
	}
	buf = append(buf, b0)

	var b1 byte
	if f.Masked {
		b1 = 0x80
	}
	switch {
	case n <= 125:
		buf = append(buf, b1|byte(n))
	case n <= 0xFFFF:
		buf = append(buf, b1|126)
		buf = binary.BigEndian.AppendUint16(buf, uint16(n))
	default:
		buf = append(buf, b1|127)
		buf = binary.BigEndian.AppendUint64(buf, uint64(n))
	}

	if f.Masked {
		buf = append(buf, f.Mask[:]...)
	}
	start := len(buf)
	buf = append(buf, f.Payload...)
	if f.Masked {
		maskBytes(f.Mask, buf[start:])
	}

	_, err := w.Write(buf)
	return err
}

func maskBytes(mask [4]byte, b []byte) {
	for i := range b {
		b[i] ^= mask[i%4]
	}
}

// closePayload encodes a close status code and reason.
func closePayload(code uint16, reason string) []byte {
	if len(reason) > MaxControlPayloadSize-2 {
		reason = reason[:MaxControlPayloadSize-2]
	}
	p := binary.BigEndian.AppendUint16(nil, code)
	return append(p, reason...)
}

// CloseCode returns the status code of a close payload, or CloseNormal when
// the peer sent none.
func CloseCode(payload []byte) uint16 {
	if len(payload) < 2 {
		return CloseNormal
	}
	return binary.BigEndian.Uint16(payload[:2])
}
