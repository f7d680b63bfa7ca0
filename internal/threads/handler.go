package threads

import (
	"github.com/gin-gonic/gin"

	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/realtime"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/response"
)

// Broadcaster delivers thread events to live subscribers.
type Broadcaster interface {
	Publish(threadID, event string, payload interface{})
	SubscriberCount(threadID string) int
}

// CreateRequest is the body for POST /communities/:id/threads.
type CreateRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	IsAnnouncement bool   `json:"isAnnouncement"`
}

// PostRequest is the body for POST /threads/:id/messages.
type PostRequest struct {
	Text string `json:"text"`
}

// ThreadDetail is a thread with the number of live viewers on this instance.
type ThreadDetail struct {
	models.Thread
	Watching int `json:"watching"`
}

// Handler handles thread and message endpoints.
type Handler struct {
	store *state.Store
	hub   Broadcaster
}

// NewHandler creates a threads handler. hub may be nil.
func NewHandler(store *state.Store, hub Broadcaster) *Handler {
	return &Handler{store: store, hub: hub}
}

// ListByCommunity handles GET /communities/:id/threads.
func (h *Handler) ListByCommunity(c *gin.Context) {
	out, err := h.store.ListCommunityThreads(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Create handles POST /communities/:id/threads (members; announcements for admins).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.store.CreateCommunityThread(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Name, req.Description, req.IsAnnouncement)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// Get handles GET /threads/:id. Threads of private communities are visible
// to members only.
func (h *Handler) Get(c *gin.Context) {
	t, err := h.store.CanViewThread(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	out := ThreadDetail{Thread: t}
	if h.hub != nil {
		out.Watching = h.hub.SubscriberCount(t.ID)
	}
	response.OK(c, out)
}

// Messages handles GET /threads/:id/messages.
func (h *Handler) Messages(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.store.CanViewThread(ctx, c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.store.ListThreadMessages(ctx, t.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Post handles POST /threads/:id/messages and notifies live subscribers.
func (h *Handler) Post(c *gin.Context) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Message required")
		return
	}
	threadID := c.Param("id")
	msg, err := h.store.PostThreadMessage(c.Request.Context(), threadID, middleware.UserID(c), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.hub != nil {
		h.hub.Publish(threadID, realtime.EventThreadMessage, msg)
	}
	response.Created(c, msg)
}
