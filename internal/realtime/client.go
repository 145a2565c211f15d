// internal/realtime/client.go
package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client wraps a websocket connection with serialized, deadline-bounded
// writes. gorilla/websocket permits only one concurrent writer, and a pushed
// notification may race the keepalive ping.
type Client struct {
	UserID uuid.UUID

	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

func NewClient(userID uuid.UUID, conn *websocket.Conn, writeTimeout time.Duration) *Client {
	return &Client{
		UserID:       userID,
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *Client) SendJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *Client) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.writeTimeout),
		)
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Underlying exposes the raw connection for the read pump.
func (c *Client) Underlying() *websocket.Conn {
	return c.conn
}
