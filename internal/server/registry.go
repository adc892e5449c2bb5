package server

import (
	"time"
)

// Peer is the narrow per-connection capability handed to the core: an
// opaque id, a non-blocking send queue, and a close signal. The full
// transport object never crosses into the core.
type Peer interface {
	ID() string
	Queue(msg *ServerMessage) bool
	Close()
}

type connection struct {
	peer        Peer
	connectedAt time.Time
}

// ConnectionRegistry tracks the currently live connections. It is owned
// by the coordinator's dispatch goroutine and is not safe for
// concurrent use on its own.
type ConnectionRegistry struct {
	conns map[string]connection
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]connection),
	}
}

// Register adds a live connection. A second registration for the same
// id is a transport invariant violation and is rejected.
func (cr *ConnectionRegistry) Register(p Peer) error {
	if _, ok := cr.conns[p.ID()]; ok {
		return ErrDuplicateConnection
	}

	cr.conns[p.ID()] = connection{
		peer:        p,
		connectedAt: time.Now(),
	}
	return nil
}

// Unregister removes a connection. Removing an absent id is a no-op so
// the disconnect cascade stays idempotent.
func (cr *ConnectionRegistry) Unregister(id string) {
	delete(cr.conns, id)
}

func (cr *ConnectionRegistry) IsLive(id string) bool {
	_, ok := cr.conns[id]
	return ok
}

func (cr *ConnectionRegistry) Peer(id string) (Peer, bool) {
	conn, ok := cr.conns[id]
	if !ok {
		return nil, false
	}
	return conn.peer, true
}

// Peers returns every live peer, used during shutdown.
func (cr *ConnectionRegistry) Peers() []Peer {
	peers := make([]Peer, 0, len(cr.conns))
	for _, conn := range cr.conns {
		peers = append(peers, conn.peer)
	}
	return peers
}

func (cr *ConnectionRegistry) Len() int {
	return len(cr.conns)
}
