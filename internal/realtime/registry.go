// internal/realtime/registry.go
package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is a live transport handle capable of one best-effort JSON push.
type Conn interface {
	SendJSON(v interface{}) error
	Close() error
}

// Registry tracks which user currently has a live connection. It is the
// lookup side of best-effort push only; durable delivery never depends on it.
// The in-memory implementation is process-local: a multi-node deployment
// needs sticky routing or a pub/sub-backed Registry behind this interface.
type Registry interface {
	Register(userID uuid.UUID, conn Conn)
	Unregister(userID uuid.UUID, conn Conn)
	Lookup(userID uuid.UUID) (Conn, bool)
}

type MemoryRegistry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Conn
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		conns: make(map[uuid.UUID]Conn),
	}
}

// Register stores the connection for the user. A previous handle for the same
// user is closed before being replaced, so reconnects cannot leak zombie
// connections.
func (r *MemoryRegistry) Register(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if prev != nil && prev != conn {
		if err := prev.Close(); err != nil {
			logrus.WithField("user_id", userID).WithError(err).Debug("Failed to close replaced connection")
		}
	}
}

// Unregister removes the entry only if it still points at conn. A stale close
// handler firing after a reconnect must not evict the fresh connection.
func (r *MemoryRegistry) Unregister(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[userID]; ok && current == conn {
		delete(r.conns, userID)
	}
}

func (r *MemoryRegistry) Lookup(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}
