package contacts

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-app/backend/internal/apitest"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/state"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	h := NewHandler(apitest.NewStore(t))
	r := apitest.NewRouter()
	r.GET("/contact-requests", h.List)
	r.POST("/contact-requests", h.Create)
	r.POST("/contact-requests/:id/respond", h.Respond)
	return r
}

func TestContactRequestFlow(t *testing.T) {
	r := setup(t)

	res := apitest.Do(t, r, http.MethodPost, "/contact-requests", state.SeedUserAisha, CreateRequest{TargetID: state.SeedUserSofia})
	require.Equal(t, http.StatusCreated, res.Status)
	var created models.ContactRequest
	res.Decode(t, &created)
	assert.Equal(t, models.StatusPending, created.Status)

	res = apitest.Do(t, r, http.MethodPost, "/contact-requests", state.SeedUserAisha, CreateRequest{TargetID: state.SeedUserSofia})
	assert.Equal(t, http.StatusConflict, res.Status)
	assert.Equal(t, "Request already sent", res.Error)

	res = apitest.Do(t, r, http.MethodGet, "/contact-requests", state.SeedUserSofia, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var lists models.ContactRequestLists
	res.Decode(t, &lists)
	require.Len(t, lists.Incoming, 1)
	assert.Empty(t, lists.Outgoing)
	assert.Equal(t, "Aisha Khan", lists.Incoming[0].Requester.Name)

	path := "/contact-requests/" + created.ID + "/respond"
	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserAisha, RespondRequest{Action: "accept"})
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "Only the recipient can respond", res.Error)

	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserRohan, RespondRequest{Action: "accept"})
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserSofia, RespondRequest{Action: "maybe"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Unknown action", res.Error)

	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserSofia, RespondRequest{Action: "accept"})
	require.Equal(t, http.StatusOK, res.Status)
	var accepted models.ContactRequest
	res.Decode(t, &accepted)
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)
}

func TestContactRequestErrors(t *testing.T) {
	r := setup(t)

	res := apitest.Do(t, r, http.MethodPost, "/contact-requests", state.SeedUserAisha, CreateRequest{TargetID: state.SeedUserAisha})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = apitest.Do(t, r, http.MethodPost, "/contact-requests", state.SeedUserAisha, CreateRequest{TargetID: "user-gone"})
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = apitest.Do(t, r, http.MethodPost, "/contact-requests", state.SeedUserAisha, gin.H{})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = apitest.Do(t, r, http.MethodPost, "/contact-requests/req-missing/respond", state.SeedUserAisha, RespondRequest{Action: "accept"})
	assert.Equal(t, http.StatusNotFound, res.Status)
}
