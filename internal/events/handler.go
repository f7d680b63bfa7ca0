package events

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/response"
)

// CreateRequest is the body for POST /communities/:id/events. startsAt is
// RFC 3339.
type CreateRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	Location    string    `json:"location"`
	Visibility  string    `json:"visibility"`
}

// RespondRequest is the body for POST /events/:id/respond.
type RespondRequest struct {
	Status string `json:"status"`
}

// Handler handles community event endpoints.
type Handler struct {
	store *state.Store
}

// NewHandler creates an events handler.
func NewHandler(store *state.Store) *Handler {
	return &Handler{store: store}
}

// ListByCommunity handles GET /communities/:id/events.
func (h *Handler) ListByCommunity(c *gin.Context) {
	out, err := h.store.ListCommunityEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Create handles POST /communities/:id/events (owner or moderator).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.store.CreateCommunityEvent(c.Request.Context(), models.EventInput{
		CommunityID: c.Param("id"),
		CreatedBy:   middleware.UserID(c),
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		Location:    req.Location,
		Visibility:  req.Visibility,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// Respond handles POST /events/:id/respond.
func (h *Handler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing data")
		return
	}
	out, err := h.store.RespondToEvent(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
