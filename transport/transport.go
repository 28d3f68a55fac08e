// Package transport is the out-of-scope-contract WebSocket collaborator of
// §1: it delivers opaque payload byte slices and a distinguished close
// event, and accepts opaque outbound payloads. Grounded on the
// nhooyr.io/websocket dial/read/write shape in exchanges/hyperliquid.go
// and exchanges/edgex.go.
package transport

import (
	"context"
	"fmt"

	"nhooyr.io/websocket"
)

// FrameKind discriminates the three inbound frame kinds §4.4 dispatches on.
type FrameKind int

const (
	FrameText FrameKind = iota
	FrameBinary
	FrameClose
)

// Frame is one inbound WebSocket message.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// Conn is a single WebSocket connection to the exchange's stream endpoint.
type Conn struct {
	ws *websocket.Conn
}

// Dial opens a new connection to url.
func Dial(ctx context.Context, url string) (*Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return &Conn{ws: c}, nil
}

// Read blocks until the next frame arrives. A close frame (initiated by
// either side) is reported as Frame{Kind: FrameClose} with a nil error,
// never as an error the caller needs to unwrap.
func (c *Conn) Read(ctx context.Context) (Frame, error) {
	typ, data, err := c.ws.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) != -1 {
			return Frame{Kind: FrameClose}, nil
		}
		return Frame{}, err
	}
	if typ == websocket.MessageText {
		return Frame{Kind: FrameText, Data: data}, nil
	}
	return Frame{Kind: FrameBinary, Data: data}, nil
}

// WriteText sends payload as a single text frame (subscription requests
// and pong echoes are both sent as text, per §6).
func (c *Conn) WriteText(ctx context.Context, payload []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, payload)
}

// Close performs a graceful close handshake.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// CloseNow tears the connection down without a close handshake.
func (c *Conn) CloseNow() error {
	return c.ws.CloseNow()
}
