// Package websocket is the server side of RFC 6455, enough to push shell
// events to a browser and read small JSON commands back.
//
// Upgrade takes over an HTTP request and returns a Conn. Server frames are
// sent unmasked; client frames must be masked.
//
//	conn, err := websocket.Upgrade(w, r)
//	if err != nil {
//		return
//	}
//	defer conn.Close(websocket.CloseNormal, "")
//	conn.WriteJSON(event)
package websocket

/*
   WebSocket Frame Format (RFC 6455):

   0                   1                   2                   3
   0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
  +-+-+-+-+-------+-+-------------+-------------------------------+
  |F|R|R|R| opcode|M| Payload len |    Extended payload length    |
  |I|S|S|S|  (4)  |A|     (7)     |             (16/64)           |
  |N|V|V|V|       |S|             |   (if payload len==126/127)   |
  | |1|2|3|       |K|             |                               |
  +-+-+-+-+-------+-+-------------+-------------------------------+
  |     Extended payload length continued, if payload len == 127  |
  +---------------------------------------------------------------+
  |                               | Masking-key, if MASK set to 1 |
  +-------------------------------+-------------------------------+
  | Masking-key (continued)       |          Payload Data         |
  +---------------------------------------------------------------+
*/
