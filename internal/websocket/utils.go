package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// DefaultPongWait is how long a silent peer may go without answering a
	// ping before reads fail.
	DefaultPongWait = 60 * time.Second
)

// Conn serializes writes to a gorilla connection, which allows one
// concurrent writer only. Reads stay on the caller's goroutine.
type Conn struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	pongWait time.Duration
}

type ConnOption func(*Conn)

// WithPongWait overrides DefaultPongWait. Pings go out every 9/10 of it.
func WithPongWait(d time.Duration) ConnOption {
	return func(c *Conn) {
		if d > 0 {
			c.pongWait = d
		}
	}
}

// NewConn wraps conn. Every pong extends the read deadline, so a peer that
// answers pings stays connected however long it goes without sending.
func NewConn(conn *websocket.Conn, opts ...ConnOption) *Conn {
	c := &Conn{conn: conn, pongWait: DefaultPongWait}
	for _, opt := range opts {
		opt(c)
	}
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})
	return c
}

// KeepAlive pings the peer until ctx ends or a ping cannot be written.
func (c *Conn) KeepAlive(ctx context.Context) {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(code, errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes a message into the provided structure. A
// message counts as a sign of life, like a pong.
func (c *Conn) ReadJSON(v interface{}) error {
	if err := c.conn.ReadJSON(v); err != nil {
		return err
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
}

// CloseNormal sends a close frame with reason and closes the socket.
func (c *Conn) CloseNormal(reason string) error {
	c.mu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeWait),
	)
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Conn) Close() error {
	return c.conn.Close()
}
