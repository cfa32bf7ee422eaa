package ws

import "log/slog"

// Router fans payloads out to every live connection of a target identity.
// Delivery is best effort, at most once: a connection that cannot accept the
// payload is pruned immediately and never retried. Write failures are logged
// and degrade to "one less recipient" — they are never surfaced as errors.
type Router struct {
	registry *Registry
	drop     func(c *Conn, code int, reason string)
}

// NewRouter builds a router over the registry. drop is the shared teardown
// path; pruning a dead connection from a broadcast goes through the same
// code as a read failure or heartbeat timeout.
func NewRouter(registry *Registry, drop func(c *Conn, code int, reason string)) *Router {
	return &Router{registry: registry, drop: drop}
}

// SendToUser delivers payload to every connection the user has open and
// returns how many accepted it. Zero means the user is offline, which is a
// normal result — callers needing guaranteed delivery must persist the
// payload themselves.
func (rt *Router) SendToUser(userID uint, payload []byte) int {
	return rt.deliver(rt.registry.ConnectionsFor(userID), payload)
}

// SendToAdmin delivers payload to one admin identity's connections.
func (rt *Router) SendToAdmin(userID uint, payload []byte) int {
	return rt.deliver(rt.registry.AdminConnectionsFor(userID), payload)
}

// SendToAllUsers delivers payload to every identity in the user namespace.
// Failure on one identity never aborts delivery to the rest.
func (rt *Router) SendToAllUsers(payload []byte) int {
	delivered := 0
	for _, id := range rt.registry.UserIDs() {
		delivered += rt.SendToUser(id, payload)
	}
	return delivered
}

// SendToAllAdmins delivers payload to every identity in the admin namespace.
func (rt *Router) SendToAllAdmins(payload []byte) int {
	delivered := 0
	for _, id := range rt.registry.AdminIDs() {
		delivered += rt.SendToAdmin(id, payload)
	}
	return delivered
}

// NotifyUserDisconnected emits the core's user_disconnected notice to every
// admin connection.
func (rt *Router) NotifyUserDisconnected(userID uint) {
	rt.SendToAllAdmins(userDisconnectedFrame(userID))
}

// BroadcastSystem pushes a system notice to every user and admin connection.
func (rt *Router) BroadcastSystem(content string) int {
	payload := SystemFrame(content)
	return rt.SendToAllUsers(payload) + rt.SendToAllAdmins(payload)
}

func (rt *Router) deliver(conns []*Conn, payload []byte) int {
	delivered := 0
	for _, c := range conns {
		if err := c.enqueue(payload); err != nil {
			slog.Warn("pruning undeliverable connection",
				"connID", c.id, "userID", c.identity.UserID, "admin", c.identity.Admin, "error", err)
			rt.drop(c, CloseInternalError, "delivery failure")
			continue
		}
		delivered++
	}
	return delivered
}
