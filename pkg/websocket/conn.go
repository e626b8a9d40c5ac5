package websocket

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// DefaultWriteTimeout bounds a single frame write.
const DefaultWriteTimeout = 10 * time.Second

// Conn is an upgraded server-side connection. Writes are safe for concurrent
// use; reads must come from one goroutine.
type Conn struct {
	conn   net.Conn
	reader io.Reader

	writeMu      sync.Mutex
	writeTimeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(c net.Conn, buffered *bufio.Reader) *Conn {
	var r io.Reader = c
	if buffered != nil {
		r = buffered
	}
	return &Conn{
		conn:         c,
		reader:       r,
		writeTimeout: DefaultWriteTimeout,
		closed:       make(chan struct{}),
	}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done is closed once the connection is closed by either side.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

func (c *Conn) writeFrame(f *Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return WriteFrame(c.conn, f)
}

// WriteText sends one text message.
func (c *Conn) WriteText(data []byte) error {
	return c.writeFrame(&Frame{Fin: true, Opcode: OpcodeText, Payload: data})
}

// WriteJSON encodes v and sends it as one text message.
func (c *Conn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteText(data)
}

// Ping sends a ping with an optional payload.
func (c *Conn) Ping(payload []byte) error {
	return c.writeFrame(&Frame{Fin: true, Opcode: OpcodePing, Payload: payload})
}

// ReadMessage returns the next data message, joining fragments. Pings are
// answered and pongs dropped along the way. A close frame from the peer is
// echoed and reported as ErrConnectionClosed.
func (c *Conn) ReadMessage() (Opcode, []byte, error) {
	var (
		op  Opcode
		buf []byte
	)
	for {
		f, err := ReadFrame(c.reader)
		if err != nil {
			c.terminate()
			return 0, nil, err
		}
		if !f.Masked {
			c.Close(CloseProtocolError, "unmasked frame")
			return 0, nil, &FrameError{Err: ErrUnmaskedClientFrame, Opcode: f.Opcode}
		}

		switch f.Opcode {
		case OpcodePing:
			if err := c.writeFrame(&Frame{Fin: true, Opcode: OpcodePong, Payload: f.Payload}); err != nil {
				return 0, nil, err
			}
			continue
		case OpcodePong:
			continue
		case OpcodeClose:
			c.Close(CloseCode(f.Payload), "")
			return 0, nil, ErrConnectionClosed
		case OpcodeContinuation:
			if op == 0 {
				c.Close(CloseProtocolError, "unexpected continuation")
				return 0, nil, &FrameError{Err: ErrInvalidOpcode, Opcode: f.Opcode}
			}
		default:
			if op != 0 {
				c.Close(CloseProtocolError, "interleaved message")
				return 0, nil, &FrameError{Err: ErrInvalidOpcode, Opcode: f.Opcode}
			}
			op = f.Opcode
		}

		buf = append(buf, f.Payload...)
		if len(buf) > MaxFramePayloadSize {
			c.Close(CloseMessageTooBig, "")
			return 0, nil, &FrameError{Err: ErrFrameTooLarge, Opcode: op}
		}
		if f.Fin {
			return op, buf, nil
		}
	}
}

// Close sends a close frame and closes the connection. Closing twice is
// harmless.
func (c *Conn) Close(code uint16, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		werr := WriteFrame(c.conn, &Frame{Fin: true, Opcode: OpcodeClose, Payload: closePayload(code, reason)})
		close(c.closed)
		c.writeMu.Unlock()

		err = c.conn.Close()
		if werr != nil && !errors.Is(werr, net.ErrClosed) {
			err = werr
		}
	})
	return err
}

// terminate drops the connection without a close handshake.
func (c *Conn) terminate() {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		close(c.closed)
		c.writeMu.Unlock()
		c.conn.Close()
	})
}
