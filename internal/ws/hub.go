package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config carries the tunables of the session layer. Zero values fall back to
// the defaults, which are chosen to keep false-positive disconnects rare
// under normal network jitter.
type Config struct {
	// HeartbeatInterval is the expected cadence of client liveness frames
	// and the period of the supervisor sweep.
	HeartbeatInterval time.Duration

	// MaxMissedBeats is how many silent intervals a connection survives
	// before the sweep terminates it.
	MaxMissedBeats int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		MaxMissedBeats:    3,
	}
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.MaxMissedBeats <= 0 {
		c.MaxMissedBeats = 3
	}
	return c
}

// staleAfter is the silence threshold at which a connection is terminated.
func (c Config) staleAfter() time.Duration {
	return c.HeartbeatInterval * time.Duration(c.MaxMissedBeats+1)
}

// ChatHandler receives application-level events decoded from a user's
// inbound stream. It runs on the session goroutine and must not block.
type ChatHandler func(ctx context.Context, identity Identity, event ChatEvent)

// ConnectionEvent describes a lifecycle transition for observers outside the
// core (presence, analytics). "refresh" fires from the supervisor sweep for
// every user identity that survived it, so sinks holding expiring state can
// re-arm it while the user stays connected.
type ConnectionEvent struct {
	Kind   string // "connect", "disconnect" or "refresh"
	UserID uint
	Admin  bool
	Last   bool // disconnect only: this was the identity's last connection
	At     time.Time
}

// EventSink consumes connection lifecycle events. Implementations must be
// non-blocking; the hub calls them inline on session goroutines.
type EventSink interface {
	ConnectionEvent(ev ConnectionEvent)
}

// Hub ties the registry, router and heartbeat supervisor together and owns
// the lifecycle of every session attached to it. One hub per process,
// injected into whatever needs to broadcast.
type Hub struct {
	cfg      Config
	registry *Registry
	router   *Router
	chat     ChatHandler
	sink     EventSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub builds a hub. chat may be nil if no application callback is wired;
// sink may be nil if nobody observes lifecycle events.
func NewHub(cfg Config, chat ChatHandler, sink EventSink) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cfg:      cfg.withDefaults(),
		registry: NewRegistry(),
		chat:     chat,
		sink:     sink,
		ctx:      ctx,
		cancel:   cancel,
	}
	h.router = NewRouter(h.registry, h.drop)
	return h
}

// Router exposes the broadcast API to the rest of the application.
func (h *Hub) Router() *Router { return h.router }

// Registry exposes read access for the status surface.
func (h *Hub) Registry() *Registry { return h.registry }

// Stats returns a copy-out snapshot of current connection counts.
func (h *Hub) Stats() Stats { return h.registry.Stats() }

// Run starts the heartbeat supervisor. It returns immediately.
func (h *Hub) Run() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.supervise()
	}()
	slog.Info("hub started",
		"heartbeatInterval", h.cfg.HeartbeatInterval, "maxMissedBeats", h.cfg.MaxMissedBeats)
}

// Stop signals every session to terminate, runs their normal teardown and
// waits for the supervisor and sessions to exit.
func (h *Hub) Stop() {
	h.cancel()
	for _, c := range h.registry.AllConns() {
		h.drop(c, CloseNormal, "server shutting down")
	}
	h.wg.Wait()
	slog.Info("hub stopped")
}

// Attach registers an already-authenticated connection and starts its pumps.
// The caller has established identity; the hub performs no validation.
func (h *Hub) Attach(sock Transport, identity Identity) *Session {
	conn := newConn(sock, identity)
	h.registry.Add(conn)

	s := &Session{hub: h, conn: conn}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		conn.writePump(h.cfg.HeartbeatInterval)
	}()
	go func() {
		defer h.wg.Done()
		s.readLoop()
	}()

	slog.Info("connection attached",
		"connID", conn.id, "userID", identity.UserID, "admin", identity.Admin)
	h.notify(ConnectionEvent{Kind: "connect", UserID: identity.UserID, Admin: identity.Admin, At: time.Now()})
	return s
}

// drop is the single teardown path. It is safe to call any number of times
// from any goroutine for the same connection; the registry removal, the
// admin notice and the lifecycle event each happen at most once.
func (h *Hub) drop(c *Conn, code int, reason string) {
	removed, last := h.registry.Remove(c)
	c.close(code, reason)
	if !removed {
		return
	}

	slog.Info("connection dropped",
		"connID", c.id, "userID", c.identity.UserID, "admin", c.identity.Admin,
		"reason", reason, "lastForUser", last)

	if last && !c.identity.Admin {
		h.router.NotifyUserDisconnected(c.identity.UserID)
	}
	h.notify(ConnectionEvent{
		Kind:   "disconnect",
		UserID: c.identity.UserID,
		Admin:  c.identity.Admin,
		Last:   last,
		At:     time.Now(),
	})
}

func (h *Hub) notify(ev ConnectionEvent) {
	if h.sink != nil {
		h.sink.ConnectionEvent(ev)
	}
}

// MultiSink fans lifecycle events out to several sinks.
type MultiSink []EventSink

func (m MultiSink) ConnectionEvent(ev ConnectionEvent) {
	for _, s := range m {
		s.ConnectionEvent(ev)
	}
}
