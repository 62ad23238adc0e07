// Package ws is the websocket transport: one Conn per client, a topic Hub
// that implements the relay's Publisher, and the read/write pumps.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one websocket connection with a buffered outbound queue.
// Writers never block: a full queue rejects the frame.
type Conn struct {
	id   string
	sock *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(id string, sock *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		id:   id,
		sock: sock,
		send: make(chan []byte, sendBuffer),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.sock.Close()
	c.mu.Unlock()
}
