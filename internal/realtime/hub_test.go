package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mu        sync.Mutex
	handlers  map[string]func(event string, payload []byte)
	cancelled []string
	failNext  bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]func(string, []byte))}
}

func (b *fakeBus) PublishQuestionEvent(questionID, event string, payload []byte) error {
	b.mu.Lock()
	if b.failNext {
		b.failNext = false
		b.mu.Unlock()
		return errors.New("redis down")
	}
	h := b.handlers[questionID]
	b.mu.Unlock()
	if h != nil {
		h(event, payload)
	}
	return nil
}

func (b *fakeBus) SubscribeQuestion(questionID string, handler func(string, []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[questionID] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, questionID)
		b.cancelled = append(b.cancelled, questionID)
	}, nil
}

func newTestClient(hub *Hub, id, questionID string) *Client {
	return &Client{ID: id, QuestionID: questionID, hub: hub, send: make(chan Message, 4)}
}

// gatedBus blocks SubscribeQuestion until release is closed.
type gatedBus struct {
	*fakeBus
	entered chan string
	release chan struct{}
}

func newGatedBus() *gatedBus {
	return &gatedBus{fakeBus: newFakeBus(), entered: make(chan string, 4), release: make(chan struct{})}
}

func (b *gatedBus) SubscribeQuestion(questionID string, handler func(string, []byte)) (func(), error) {
	b.entered <- questionID
	<-b.release
	return b.fakeBus.SubscribeQuestion(questionID, handler)
}

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastIsScopedToQuestion(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	a := newTestClient(hub, "a", "q1")
	b := newTestClient(hub, "b", "q2")
	hub.Register(a)
	hub.Register(b)

	hub.Publish("q1", EventResults, []int{1, 2})

	msg := recv(t, a)
	assert.Equal(t, EventResults, msg.Event)
	assert.JSONEq(t, `[1,2]`, string(msg.Data))
	assert.Empty(t, b.send)
	assert.Equal(t, 1, hub.watchers("q1"))
}

func TestHub_PublishGoesThroughBus(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(nil, bus, bus)
	c := newTestClient(hub, "a", "q1")
	hub.Register(c)

	hub.Publish("q1", EventResults, map[string]int{"votes": 1})

	msg := recv(t, c)
	assert.JSONEq(t, `{"votes":1}`, string(msg.Data))
	// delivered once, through the subscription only
	assert.Empty(t, c.send)
}

func TestHub_PublishFallsBackWhenBusFails(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(nil, bus, bus)
	c := newTestClient(hub, "a", "q1")
	hub.Register(c)

	bus.failNext = true
	hub.Publish("q1", EventResults, "x")

	msg := recv(t, c)
	assert.JSONEq(t, `"x"`, string(msg.Data))
}

func TestHub_UnregisterCancelsSubscription(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(nil, bus, bus)
	a := newTestClient(hub, "a", "q1")
	b := newTestClient(hub, "b", "q1")
	hub.Register(a)
	hub.Register(b)

	hub.Unregister(a)
	assert.Empty(t, bus.cancelled)
	_, open := <-a.send
	assert.False(t, open)

	hub.Unregister(b)
	assert.Equal(t, []string{"q1"}, bus.cancelled)
	assert.Equal(t, 0, hub.watchers("q1"))

	// a second unregister is a no-op
	hub.Unregister(b)
}

func TestServe_SendsSnapshotAndUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil, nil)
	router := gin.New()
	router.GET("/live", func(c *gin.Context) {
		Serve(c, hub, hub.logger, "q1", 7, func() (interface{}, error) {
			return []int{0, 0}, nil
		})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventResults, msg.Event)
	assert.JSONEq(t, `[0,0]`, string(msg.Data))

	require.Eventually(t, func() bool { return hub.watchers("q1") == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish("q1", EventResults, []int{1, 0})

	require.NoError(t, conn.ReadJSON(&msg))
	var got []int
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, []int{1, 0}, got)
}

func TestHub_SlowSubscribeDoesNotBlockRoom(t *testing.T) {
	bus := newGatedBus()
	hub := NewHub(nil, bus, bus)
	a := newTestClient(hub, "a", "q1")

	registered := make(chan struct{})
	go func() {
		defer close(registered)
		hub.Register(a)
	}()
	assert.Equal(t, "q1", <-bus.entered)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Broadcast("q1", EventResults, []int{1})
		assert.Equal(t, 1, hub.watchers("q1"))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub blocked while subscribing")
	}
	assert.JSONEq(t, `[1]`, string(recv(t, a).Data))

	close(bus.release)
	<-registered
	hub.mu.RLock()
	_, subscribed := hub.subs["q1"]
	hub.mu.RUnlock()
	assert.True(t, subscribed)
}

func TestHub_SubscriptionDroppedWhenRoomEmptiesFirst(t *testing.T) {
	bus := newGatedBus()
	hub := NewHub(nil, bus, bus)
	a := newTestClient(hub, "a", "q1")

	registered := make(chan struct{})
	go func() {
		defer close(registered)
		hub.Register(a)
	}()
	<-bus.entered

	hub.Unregister(a)
	close(bus.release)
	<-registered

	bus.mu.Lock()
	assert.Equal(t, []string{"q1"}, bus.cancelled)
	bus.mu.Unlock()
	hub.mu.RLock()
	assert.Empty(t, hub.subs)
	hub.mu.RUnlock()
}
