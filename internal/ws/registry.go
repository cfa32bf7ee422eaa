package ws

import "sync"

// Registry owns the identity -> live connection mapping for both the user
// and admin namespaces. All mutation goes through its synchronized methods;
// callers never iterate internal sets directly, they take snapshots. This is
// the single source of truth for "who is online".
type Registry struct {
	mu     sync.RWMutex
	users  map[uint]map[*Conn]struct{}
	admins map[uint]map[*Conn]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[uint]map[*Conn]struct{}),
		admins: make(map[uint]map[*Conn]struct{}),
	}
}

func (r *Registry) namespace(admin bool) map[uint]map[*Conn]struct{} {
	if admin {
		return r.admins
	}
	return r.users
}

// Add registers conn under its identity. Adding the same connection twice is
// a no-op, not a duplicate.
func (r *Registry) Add(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ns := r.namespace(conn.identity.Admin)
	set := ns[conn.identity.UserID]
	if set == nil {
		set = make(map[*Conn]struct{})
		ns[conn.identity.UserID] = set
	}
	set[conn] = struct{}{}
}

// Remove unregisters conn. Removing an absent connection is a silent no-op;
// disconnect races are expected. It reports whether this call actually
// removed the connection and whether it was the last one for its identity,
// so callers can emit disconnect notices exactly once. An identity's key is
// deleted with its last connection — no empty sets are retained.
func (r *Registry) Remove(conn *Conn) (removed, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ns := r.namespace(conn.identity.Admin)
	set, ok := ns[conn.identity.UserID]
	if !ok {
		return false, false
	}
	if _, ok := set[conn]; !ok {
		return false, false
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(ns, conn.identity.UserID)
		return true, true
	}
	return true, false
}

// ConnectionsFor returns a snapshot of the user's live connections, safe to
// iterate without holding any registry lock. A returned connection may have
// disconnected by the time the caller uses it.
func (r *Registry) ConnectionsFor(userID uint) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users[userID])
}

// AdminConnectionsFor is ConnectionsFor in the admin namespace.
func (r *Registry) AdminConnectionsFor(userID uint) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.admins[userID])
}

// UserIDs returns a snapshot of every identity with at least one connection
// in the user namespace.
func (r *Registry) UserIDs() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.users)
}

// AdminIDs returns a snapshot of every identity in the admin namespace.
func (r *Registry) AdminIDs() []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.admins)
}

// AllConns returns a snapshot of every connection in both namespaces, used
// by the heartbeat sweep and shutdown.
func (r *Registry) AllConns() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Conn, 0)
	for _, set := range r.users {
		for c := range set {
			conns = append(conns, c)
		}
	}
	for _, set := range r.admins {
		for c := range set {
			conns = append(conns, c)
		}
	}
	return conns
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// NamespaceStats is a point-in-time projection of one namespace.
type NamespaceStats struct {
	Total       int          `json:"total"`
	Connections map[uint]int `json:"connections"`
}

// Stats is a copy-out snapshot of both namespaces. Callers may hold it for
// as long as they like; it shares no state with the registry.
type Stats struct {
	Users  NamespaceStats `json:"users"`
	Admins NamespaceStats `json:"admins"`
}

// Stats returns connection counts per identity for both namespaces.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		Users:  namespaceStats(r.users),
		Admins: namespaceStats(r.admins),
	}
}

func namespaceStats(ns map[uint]map[*Conn]struct{}) NamespaceStats {
	s := NamespaceStats{
		Total:       len(ns),
		Connections: make(map[uint]int, len(ns)),
	}
	for id, set := range ns {
		s.Connections[id] = len(set)
	}
	return s
}

func snapshot(set map[*Conn]struct{}) []*Conn {
	if len(set) == 0 {
		return nil
	}
	conns := make([]*Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

func keys(ns map[uint]map[*Conn]struct{}) []uint {
	ids := make([]uint, 0, len(ns))
	for id := range ns {
		ids = append(ids, id)
	}
	return ids
}
