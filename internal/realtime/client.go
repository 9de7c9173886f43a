package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventRefresh asks the server to resend the current results to this client.
const EventRefresh = "refresh"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware already filters origins
	},
}

// Message is the WebSocket message envelope.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SnapshotFunc returns the current results of a question.
type SnapshotFunc func() (interface{}, error)

// Client represents a single WebSocket connection watching a question.
type Client struct {
	ID         string
	QuestionID string
	UserID     int
	hub        *Hub
	conn       *websocket.Conn
	send       chan Message
	snapshot   SnapshotFunc
	logger     *zap.Logger
}

// Serve upgrades the request, sends the current results and runs the client
// loop until the connection closes.
func Serve(c *gin.Context, hub *Hub, logger *zap.Logger, questionID string, userID int, snapshot SnapshotFunc) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		UserID:     userID,
		hub:        hub,
		conn:       conn,
		send:       make(chan Message, 64),
		snapshot:   snapshot,
		logger:     logger,
	}
	hub.Register(client)
	client.pushSnapshot()
	go client.writePump()
	client.readPump()
}

func (c *Client) pushSnapshot() {
	if c.snapshot == nil {
		return
	}
	results, err := c.snapshot()
	if err != nil {
		c.logger.Warn("results snapshot", zap.String("question_id", c.QuestionID), zap.Error(err))
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	select {
	case c.send <- Message{Event: EventResults, Data: data}:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case EventRefresh:
			c.pushSnapshot()
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
