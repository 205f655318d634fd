package broadcast

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records sends and can be told to fail synchronously.
type fakeTransport struct {
	mu          sync.Mutex
	sent        [][]byte
	failSend    bool
	closed      bool
	closeReason string
}

func (f *fakeTransport) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errWriterClosed
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeTransport) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeReason = reason
}

func (f *fakeTransport) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestRegistry_RegisterAssignsDistinctIDs(t *testing.T) {
	registry := NewRegistry(100)

	id1, err := registry.Register(1, &fakeTransport{})
	require.NoError(t, err)
	id2, err := registry.Register(1, &fakeTransport{})
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, 2, registry.CountFor(1))
}

func TestRegistry_ConnectionsForIsolatesAdvisors(t *testing.T) {
	registry := NewRegistry(100)

	t1 := &fakeTransport{}
	t2 := &fakeTransport{}
	other := &fakeTransport{}

	_, err := registry.Register(1, t1)
	require.NoError(t, err)
	_, err = registry.Register(1, t2)
	require.NoError(t, err)
	_, err = registry.Register(2, other)
	require.NoError(t, err)

	conns := registry.ConnectionsFor(1)
	require.Len(t, conns, 2)
	for _, conn := range conns {
		assert.Equal(t, int64(1), conn.AdvisorID)
		assert.NotSame(t, other, conn.Transport)
	}

	assert.Empty(t, registry.ConnectionsFor(99))
}

func TestRegistry_CapRejectsAndFreesOnUnregister(t *testing.T) {
	registry := NewRegistry(2)

	_, err := registry.Register(1, &fakeTransport{})
	require.NoError(t, err)
	id2, err := registry.Register(2, &fakeTransport{})
	require.NoError(t, err)

	_, err = registry.Register(3, &fakeTransport{})
	assert.ErrorIs(t, err, ErrRegistryFull)

	registry.Unregister(id2)

	_, err = registry.Register(3, &fakeTransport{})
	assert.NoError(t, err)
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry(10)

	transport := &fakeTransport{}
	id, err := registry.Register(1, transport)
	require.NoError(t, err)

	registry.Unregister(id)
	assert.True(t, transport.isClosed())
	assert.Equal(t, 0, registry.Count())

	// Second and third calls must be no-ops
	registry.Unregister(id)
	registry.Unregister(uuid.New())
	assert.Equal(t, 0, registry.Count())
}

func TestRegistry_SnapshotUnaffectedByConcurrentMutation(t *testing.T) {
	registry := NewRegistry(100)

	t1 := &fakeTransport{}
	id1, err := registry.Register(1, t1)
	require.NoError(t, err)

	snapshot := registry.ConnectionsFor(1)
	require.Len(t, snapshot, 1)

	// Mutate after the snapshot was taken
	_, err = registry.Register(1, &fakeTransport{})
	require.NoError(t, err)
	registry.Unregister(id1)

	// Snapshot still holds the original connection
	assert.Len(t, snapshot, 1)
	assert.Equal(t, id1, snapshot[0].ID)
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	registry := NewRegistry(10000)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(advisorID int64) {
			defer wg.Done()
			for range 20 {
				id, err := registry.Register(advisorID, &fakeTransport{})
				if err != nil {
					continue
				}
				registry.ConnectionsFor(advisorID)
				registry.Unregister(id)
			}
		}(int64(i % 5))
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Count())
}

func TestRegistry_CloseAllClosesEverything(t *testing.T) {
	registry := NewRegistry(10)

	transports := make([]*fakeTransport, 0, 3)
	for i := range 3 {
		transport := &fakeTransport{}
		_, err := registry.Register(int64(i), transport)
		require.NoError(t, err)
		transports = append(transports, transport)
	}

	registry.CloseAll("shutting down")

	assert.Equal(t, 0, registry.Count())
	for _, transport := range transports {
		assert.True(t, transport.isClosed())
		assert.Equal(t, "shutting down", transport.closeReason)
	}
}
