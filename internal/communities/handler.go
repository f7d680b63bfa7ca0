package communities

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/response"
)

// CreateRequest is the body for POST /communities.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

// RespondRequest is the body for POST /community-join-requests/:id/respond.
type RespondRequest struct {
	Action string `json:"action" binding:"required"`
}

// Handler handles community, membership and join request endpoints.
type Handler struct {
	store  *state.Store
	logger *zap.Logger
}

// NewHandler creates a communities handler.
func NewHandler(store *state.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /communities.
func (h *Handler) List(c *gin.Context) {
	out, err := h.store.ListCommunities(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// ListJoined handles GET /communities/joined.
func (h *Handler) ListJoined(c *gin.Context) {
	out, err := h.store.ListJoinedCommunities(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Create handles POST /communities. The caller becomes the owner.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := middleware.UserID(c)
	out, err := h.store.CreateCommunity(c.Request.Context(), userID, req.Name, req.Description, req.IsPrivate)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("community created", zap.String("community_id", out.ID), zap.String("owner_id", userID))
	response.Created(c, out)
}

// Update handles PATCH /communities/:id (owner or moderator).
func (h *Handler) Update(c *gin.Context) {
	var patch models.CommunityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.store.UpdateCommunityDetails(c.Request.Context(), c.Param("id"), middleware.UserID(c), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Members handles GET /communities/:id/members.
func (h *Handler) Members(c *gin.Context) {
	out, err := h.store.ListCommunityMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// Join handles POST /communities/:id/join. Public communities are joined
// directly; private ones get a pending request (202).
func (h *Handler) Join(c *gin.Context) {
	out, err := h.store.RequestToJoinCommunity(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if out.Request != nil {
		response.Accepted(c, out)
		return
	}
	response.OK(c, out)
}

// Leave handles POST /communities/:id/leave.
func (h *Handler) Leave(c *gin.Context) {
	if err := h.store.LeaveCommunity(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// JoinRequests handles GET /communities/:id/join-requests. Non-admins see an
// empty list.
func (h *Handler) JoinRequests(c *gin.Context) {
	out, err := h.store.ListCommunityJoinRequests(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// MyRequests handles GET /community-requests.
func (h *Handler) MyRequests(c *gin.Context) {
	out, err := h.store.ListMyCommunityRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// RespondJoinRequest handles POST /community-join-requests/:id/respond.
func (h *Handler) RespondJoinRequest(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Unknown action")
		return
	}
	out, err := h.store.RespondToCommunityJoinRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
