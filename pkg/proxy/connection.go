package proxy

import (
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/gorilla/websocket"
)

func newConnection(conn *websocket.Conn, name string, secure bool) *connection {
	return &connection{
		Secure: secure,
		Conn:   conn,
		Name:   name,
	}
}

type connection struct {
	Secure bool
	Conn   *websocket.Conn
	Name   string

	writeMu sync.Mutex
}

// WriteJSON serializes writes of the forwarding workers.
func (c *connection) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return errors.WithStack(c.Conn.WriteJSON(v))
}

func (c *connection) Close() error {
	if c.Conn != nil {
		return errors.WithStack(c.Conn.Close())
	}
	return nil
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}
