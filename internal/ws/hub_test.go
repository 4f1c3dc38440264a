package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failing  bool
}

func (f *fakeClient) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.messages...)
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zaptest.NewLogger(t).Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub, _ := startHub(t)
	client := &fakeClient{}
	require.True(t, hub.Join(client))

	hub.Publish("customer.created", map[string]int{"id": 4})

	require.Eventually(t, func() bool { return len(client.received()) == 1 }, time.Second, 5*time.Millisecond)

	var ev struct {
		ID   string         `json:"id"`
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(client.received()[0], &ev))
	assert.Equal(t, "customer.created", ev.Type)
	assert.Equal(t, 4, ev.Data["id"])
	assert.NotEmpty(t, ev.ID)
}

func TestHub_DropsFailingClient(t *testing.T) {
	hub, _ := startHub(t)
	client := &fakeClient{failing: true}
	require.True(t, hub.Join(client))

	hub.Publish("product.deleted", nil)

	require.Eventually(t, client.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	client := &fakeClient{}
	require.True(t, hub.Join(client))

	cancel()

	require.Eventually(t, client.isClosed, time.Second, 5*time.Millisecond)
	assert.False(t, hub.Join(&fakeClient{}))
}
