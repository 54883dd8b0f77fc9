package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrClosed is returned by Send after the connection has shut down.
	ErrClosed = errors.New("transport: connection closed")
	// ErrBufferFull is returned when the outbound queue is saturated and the
	// message was dropped rather than blocking the caller.
	ErrBufferFull = errors.New("transport: send buffer full")
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
)

// Handler receives inbound traffic and closure notifications for a Conn.
type Handler interface {
	HandleMessage(c *Conn, data []byte)
	HandleDisconnect(c *Conn)
}

// Conn wraps a websocket connection with a buffered write pump so that
// delivery is fire-and-forget: Send queues or drops, it never blocks the
// dispatcher. The read loop owns the connection lifecycle; when it exits the
// handler's disconnect path runs exactly once.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closer sync.Once
	logger *slog.Logger

	mu sync.Mutex
	id string
}

func NewConn(ws *websocket.Conn, logger *slog.Logger, sendBuffer int) *Conn {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Conn{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// SetID binds the connection to a participant id at registration time.
// Connections that never register keep an empty id and never enter the
// presence registry.
func (c *Conn) SetID(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}

func (c *Conn) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Send marshals v and queues it for delivery. It never blocks: a closed
// connection yields ErrClosed and a saturated queue drops the message with
// ErrBufferFull.
func (c *Conn) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrBufferFull
	}
}

// Run drives the connection: it starts the write pump, then blocks in the
// read loop feeding h until the peer goes away. It always hands the close to
// h.HandleDisconnect before returning.
func (c *Conn) Run(h Handler) {
	go c.writePump()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("ws read error", "id", c.ID(), "error", err)
			}
			break
		}
		h.HandleMessage(c, data)
	}

	c.Close()
	h.HandleDisconnect(c)
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.closer.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.logger.Debug("ws write error", "id", c.ID(), "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
