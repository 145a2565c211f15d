// internal/realtime/registry_test.go
package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *stubConn) SendJSON(v interface{}) error { return nil }

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	registry := NewMemoryRegistry()
	userID := uuid.New()

	_, ok := registry.Lookup(userID)
	assert.False(t, ok)

	conn := &stubConn{}
	registry.Register(userID, conn)

	got, ok := registry.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, conn, got)
}

func TestRegistryReplaceClosesPrevious(t *testing.T) {
	registry := NewMemoryRegistry()
	userID := uuid.New()

	old := &stubConn{}
	registry.Register(userID, old)

	fresh := &stubConn{}
	registry.Register(userID, fresh)

	assert.True(t, old.isClosed())
	assert.False(t, fresh.isClosed())

	got, ok := registry.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistryUnregisterIsCompareAndDelete(t *testing.T) {
	registry := NewMemoryRegistry()
	userID := uuid.New()

	old := &stubConn{}
	registry.Register(userID, old)

	// Reconnect replaces the entry before the old read pump gets to clean up.
	fresh := &stubConn{}
	registry.Register(userID, fresh)

	// The stale cleanup must not evict the fresh connection.
	registry.Unregister(userID, old)

	got, ok := registry.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, fresh, got)

	registry.Unregister(userID, fresh)
	_, ok = registry.Lookup(userID)
	assert.False(t, ok)
}

func TestRegistryIsolatesUsers(t *testing.T) {
	registry := NewMemoryRegistry()
	alice := uuid.New()
	bob := uuid.New()

	aliceConn := &stubConn{}
	registry.Register(alice, aliceConn)

	_, ok := registry.Lookup(bob)
	assert.False(t, ok)

	registry.Unregister(bob, aliceConn)
	_, ok = registry.Lookup(alice)
	assert.True(t, ok)
}

func TestRegistryConcurrentChurn(t *testing.T) {
	registry := NewMemoryRegistry()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &stubConn{}
			registry.Register(userID, conn)
			registry.Lookup(userID)
			registry.Unregister(userID, conn)
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the registry must not hold a connection
	// that already unregistered itself.
	if conn, ok := registry.Lookup(userID); ok {
		assert.NotNil(t, conn)
	}
}
