package ws

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound buffer per connection
	sendBufferSize = 256
)

// Close codes passed to the transport on teardown. 4001/4003 are in the
// application range and are sent before a connection ever reaches the
// registry; the rest are standard.
const (
	CloseNormal        = websocket.CloseNormalClosure
	CloseGoingAway     = websocket.CloseGoingAway
	CloseInternalError = websocket.CloseInternalServerErr
	ClosePolicyAuth    = 4001
	ClosePolicyAdmin   = 4003
)

var (
	// ErrConnClosed is returned when enqueueing on a connection that has
	// already been torn down.
	ErrConnClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned when a peer is not draining its
	// outbound queue. The caller treats the connection as dead.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Transport is the subset of *websocket.Conn the core uses. Tests substitute
// an in-memory fake.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Identity is the validated (user id, admin) pair established by the HTTP
// layer before the core ever sees the connection. The core trusts it fully.
type Identity struct {
	UserID uint
	Admin  bool
}

// Conn is one live bidirectional channel. It is owned by the Session spawned
// for it; the Registry holds a non-owning reference for lookup and broadcast.
// Everything but the last-activity timestamp is immutable after creation.
type Conn struct {
	id        string
	identity  Identity
	sock      Transport
	send      chan []byte
	createdAt time.Time

	lastActive int64 // unix nanos, atomic
	closed     int32 // atomic flag, guards idempotent teardown
	done       chan struct{}
}

func newConn(sock Transport, identity Identity) *Conn {
	now := time.Now()
	return &Conn{
		id:         uuid.New().String(),
		identity:   identity,
		sock:       sock,
		send:       make(chan []byte, sendBufferSize),
		createdAt:  now,
		lastActive: now.UnixNano(),
		done:       make(chan struct{}),
	}
}

// ID returns the connection's opaque identifier.
func (c *Conn) ID() string { return c.id }

// Identity returns the identity the connection is registered under.
func (c *Conn) Identity() Identity { return c.identity }

// touch refreshes the last-activity timestamp.
func (c *Conn) touch() {
	atomic.StoreInt64(&c.lastActive, time.Now().UnixNano())
}

// idleFor reports how long the connection has gone without inbound traffic.
func (c *Conn) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, atomic.LoadInt64(&c.lastActive)))
}

func (c *Conn) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// enqueue queues a payload for delivery on this connection's outbound
// stream. It never blocks: a full buffer means the peer is dead or stalled
// and the caller prunes the connection.
func (c *Conn) enqueue(payload []byte) error {
	if c.isClosed() {
		return ErrConnClosed
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// close tears the connection down exactly once, regardless of how many
// termination triggers race (read error, forced close, heartbeat timeout).
func (c *Conn) close(code int, reason string) {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return
	}
	close(c.done)

	// Best effort close frame so well-behaved peers see the reason.
	deadline := time.Now().Add(writeWait)
	c.sock.SetWriteDeadline(deadline)
	if err := c.sock.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason)); err != nil {
		slog.Debug("close frame not delivered", "connID", c.id, "error", err)
	}
	if err := c.sock.Close(); err != nil {
		slog.Debug("transport close", "connID", c.id, "error", err)
	}
}

// writePump drains the send channel onto the socket. It is the only writer
// of data frames, which keeps per-connection ordering intact. A write error
// marks the connection closed; the reader loop notices and runs teardown.
func (c *Conn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("write failed", "connID", c.id, "userID", c.identity.UserID, "error", err)
				c.close(CloseInternalError, "write failure")
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", "connID", c.id, "userID", c.identity.UserID, "error", err)
				c.close(CloseInternalError, "ping failure")
				return
			}
		case <-c.done:
			return
		}
	}
}
