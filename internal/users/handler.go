package users

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/phone"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/response"
	"github.com/huddle-app/backend/pkg/storage"
)

// AvatarStorage presigns avatar uploads and removes replaced avatars.
type AvatarStorage interface {
	PresignAvatarUpload(ctx context.Context, userID, contentType, filename string) (storage.AvatarUpload, error)
	DeleteAvatar(ctx context.Context, url string) error
}

// AvatarCleaner schedules removal of a replaced avatar.
type AvatarCleaner interface {
	ScheduleAvatarDelete(ctx context.Context, userID, url string) error
}

// ProfileRequest is the body for PATCH /users/me/profile.
type ProfileRequest struct {
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	Interests *[]string `json:"interests"`
}

// PhoneRequest is the body for PUT /users/me/phone. An empty phone clears it.
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// AvatarRequest is the body for PUT /users/me/avatar. A null or empty
// avatarUri clears it.
type AvatarRequest struct {
	AvatarURI *string `json:"avatarUri"`
}

// UploadURLRequest is the body for POST /users/me/avatar/upload-url.
type UploadURLRequest struct {
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
}

// MatchContactsRequest is the body for POST /users/match-contacts.
type MatchContactsRequest struct {
	PhoneNumbers []string `json:"phoneNumbers" binding:"required"`
}

// Handler handles user profile endpoints.
type Handler struct {
	store   *state.Store
	avatars AvatarStorage
	cleaner AvatarCleaner
	region  string
	logger  *zap.Logger
}

// NewHandler creates a users handler. avatars may be nil, which disables
// presigned uploads.
func NewHandler(store *state.Store, avatars AvatarStorage, region string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, avatars: avatars, region: region, logger: logger}
}

// SetAvatarCleaner defers deletion of replaced avatars to cleaner.
func (h *Handler) SetAvatarCleaner(cleaner AvatarCleaner) {
	h.cleaner = cleaner
}

func (h *Handler) removeAvatar(ctx context.Context, userID, url string) {
	var err error
	switch {
	case h.cleaner != nil:
		err = h.cleaner.ScheduleAvatarDelete(ctx, userID, url)
	case h.avatars != nil:
		err = h.avatars.DeleteAvatar(ctx, url)
	default:
		return
	}
	if err != nil {
		h.logger.Warn("remove replaced avatar", zap.String("user_id", userID), zap.Error(err))
	}
}

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	u, err := h.store.GetUserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// UpdateProfile handles PATCH /users/me/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	u, err := h.store.UpdateUserProfile(c.Request.Context(), middleware.UserID(c), models.UserPatch{
		Name:      req.Name,
		Bio:       req.Bio,
		Interests: req.Interests,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// SetPhone handles PUT /users/me/phone. Numbers are stored in E.164.
func (h *Handler) SetPhone(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	number := ""
	if strings.TrimSpace(req.Phone) != "" {
		number = phone.NormalizeToE164(req.Phone, h.region)
		if number == "" {
			response.BadRequest(c, "Invalid phone number")
			return
		}
	}
	u, err := h.store.SetUserPhone(c.Request.Context(), middleware.UserID(c), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, u)
}

// SetAvatar handles PUT /users/me/avatar. A replaced avatar stored in the
// avatars bucket is deleted.
func (h *Handler) SetAvatar(c *gin.Context) {
	var req AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	prev, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	uri := ""
	if req.AvatarURI != nil {
		uri = strings.TrimSpace(*req.AvatarURI)
	}
	u, err := h.store.SetUserAvatar(ctx, userID, uri)
	if err != nil {
		response.Error(c, err)
		return
	}
	if prev.AvatarURI != nil && *prev.AvatarURI != uri {
		h.removeAvatar(ctx, userID, *prev.AvatarURI)
	}
	response.OK(c, u)
}

// AvatarUploadURL handles POST /users/me/avatar/upload-url.
func (h *Handler) AvatarUploadURL(c *gin.Context) {
	if h.avatars == nil {
		response.ServiceUnavailable(c, "avatar uploads are not configured")
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	up, err := h.avatars.PresignAvatarUpload(c.Request.Context(), middleware.UserID(c), req.ContentType, req.Filename)
	if errors.Is(err, storage.ErrUnsupportedType) {
		response.BadRequest(c, "Avatar must be a JPEG, PNG, WebP or GIF image")
		return
	}
	if err != nil {
		h.logger.Error("presign avatar upload", zap.Error(err))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, up)
}

// Search handles GET /users/search?q=.
func (h *Handler) Search(c *gin.Context) {
	out, err := h.store.SearchProfiles(c.Request.Context(), c.Query("q"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// MatchContacts handles POST /users/match-contacts. Numbers are matched both
// as sent and in E.164 form.
func (h *Handler) MatchContacts(c *gin.Context) {
	var req MatchContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "phoneNumbers required")
		return
	}
	numbers := append([]string{}, req.PhoneNumbers...)
	numbers = append(numbers, phone.NormalizeAll(req.PhoneNumbers, h.region)...)
	out, err := h.store.MatchContacts(c.Request.Context(), numbers, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

// List handles GET /users.
func (h *Handler) List(c *gin.Context) {
	out, err := h.store.ListProfiles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
