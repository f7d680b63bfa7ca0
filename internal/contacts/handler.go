package contacts

import (
	"github.com/gin-gonic/gin"

	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/response"
)

// CreateRequest is the body for POST /contact-requests.
type CreateRequest struct {
	TargetID string `json:"targetId" binding:"required"`
}

// RespondRequest is the body for POST /contact-requests/:id/respond.
type RespondRequest struct {
	Action string `json:"action" binding:"required"`
}

// Handler handles contact request endpoints.
type Handler struct {
	store *state.Store
}

// NewHandler creates a contacts handler.
func NewHandler(store *state.Store) *Handler {
	return &Handler{store: store}
}

// List handles GET /contact-requests.
func (h *Handler) List(c *gin.Context) {
	out, err := h.store.ListContactRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Create handles POST /contact-requests.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request")
		return
	}
	out, err := h.store.CreateContactRequest(c.Request.Context(), middleware.UserID(c), req.TargetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// Respond handles POST /contact-requests/:id/respond. Only the recipient may
// respond.
func (h *Handler) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Unknown action")
		return
	}
	out, err := h.store.RespondToContactRequestAs(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
