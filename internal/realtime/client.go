package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin; the token gates access
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Threads is the slice of the state store the websocket loop needs.
type Threads interface {
	CanViewThread(ctx context.Context, threadID, userID string) (models.Thread, error)
	PostThreadMessage(ctx context.Context, threadID, userID, text string) (models.MessageView, error)
}

// Client represents a single WebSocket connection following a thread.
type Client struct {
	ID       string
	ThreadID string
	UserID   string
	hub      *Hub
	threads  Threads
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// NewClient builds a client for conn. The send buffer is closed by
// Hub.Unregister.
func NewClient(hub *Hub, threads Threads, conn *websocket.Conn, threadID, userID string, logger *zap.Logger) *Client {
	return &Client{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		UserID:   userID,
		hub:      hub,
		threads:  threads,
		conn:     conn,
		send:     make(chan WSMessage, 256),
		logger:   logger,
	}
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, threads Threads, logger *zap.Logger, validate func(token string) (userID string, err error)) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		threadID := c.Query("thread_id")
		token := c.Query("token")
		if threadID == "" || token == "" {
			response.BadRequest(c, "thread_id and token required")
			return
		}
		userID, err := validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		if _, err := threads.CanViewThread(c.Request.Context(), threadID, userID); err != nil {
			response.Error(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(hub, threads, conn, threadID, userID, logger)
		hub.Register(client)
		hub.Publish(threadID, EventPresence, map[string]interface{}{
			"user_id": userID,
			"joined":  true,
		})
		go client.writePump()
		client.readPump()
	}
}

type postPayload struct {
	Text string `json:"text"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.hub.Publish(c.ThreadID, EventPresence, map[string]interface{}{
			"user_id": c.UserID,
			"joined":  false,
		})
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "post_message":
			var p postPayload
			if err := json.Unmarshal(msg.Data, &p); err != nil {
				c.sendError(apperr.Validation("Message required"))
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			view, err := c.threads.PostThreadMessage(ctx, c.ThreadID, c.UserID, p.Text)
			cancel()
			if err != nil {
				c.sendError(err)
				continue
			}
			c.hub.Publish(c.ThreadID, EventThreadMessage, view)
		case EventTyping:
			c.hub.Publish(c.ThreadID, EventTyping, map[string]string{"user_id": c.UserID})
		default:
			// ignore
		}
	}
}

func (c *Client) sendError(err error) {
	c.hub.SendToClient(c.ThreadID, c.ID, EventError, map[string]string{
		"error": apperr.Message(err),
		"kind":  string(apperr.KindOf(err)),
	})
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
