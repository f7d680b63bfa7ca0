package threads

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-app/backend/internal/apitest"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/realtime"
	"github.com/huddle-app/backend/internal/state"
)

type published struct {
	threadID string
	event    string
	payload  interface{}
}

type fakeHub struct {
	events   []published
	watching int
}

func (f *fakeHub) Publish(threadID, event string, payload interface{}) {
	f.events = append(f.events, published{threadID, event, payload})
}

func (f *fakeHub) SubscriberCount(string) int { return f.watching }

func setup(t *testing.T, hub Broadcaster) *gin.Engine {
	t.Helper()
	h := NewHandler(apitest.NewStore(t), hub)
	r := apitest.NewRouter()
	r.GET("/communities/:id/threads", h.ListByCommunity)
	r.POST("/communities/:id/threads", h.Create)
	r.GET("/threads/:id", h.Get)
	r.GET("/threads/:id/messages", h.Messages)
	r.POST("/threads/:id/messages", h.Post)
	return r
}

func TestListAndCreateThreads(t *testing.T) {
	r := setup(t, nil)
	path := "/communities/" + state.SeedCommunityDesiFoodies + "/threads"

	res := apitest.Do(t, r, http.MethodGet, path, state.SeedUserRohan, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var list []models.ThreadSummary
	res.Decode(t, &list)
	require.Len(t, list, 2)

	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserRohan, CreateRequest{Name: "Street food"})
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "Join the community first", res.Error)

	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserAisha, CreateRequest{Name: "Rules", IsAnnouncement: true})
	require.Equal(t, http.StatusCreated, res.Status)
	var created models.Thread
	res.Decode(t, &created)
	assert.True(t, created.IsAnnouncement)

	res = apitest.Do(t, r, http.MethodGet, path, state.SeedUserRohan, nil)
	require.Equal(t, http.StatusOK, res.Status)
	list = nil
	res.Decode(t, &list)
	require.Len(t, list, 3)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestGetThreadPrivacy(t *testing.T) {
	r := setup(t, &fakeHub{watching: 3})

	res := apitest.Do(t, r, http.MethodGet, "/threads/"+state.SeedThreadMakersNews, state.SeedUserSofia, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
	res = apitest.Do(t, r, http.MethodGet, "/threads/"+state.SeedThreadMakersNews+"/messages", state.SeedUserSofia, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = apitest.Do(t, r, http.MethodGet, "/threads/"+state.SeedThreadMakersNews, state.SeedUserRohan, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var detail ThreadDetail
	res.Decode(t, &detail)
	assert.Equal(t, "Announcements", detail.Name)
	assert.Equal(t, 3, detail.Watching)

	res = apitest.Do(t, r, http.MethodGet, "/threads/thread-missing", state.SeedUserRohan, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestPostPublishes(t *testing.T) {
	hub := &fakeHub{}
	r := setup(t, hub)
	path := "/threads/" + state.SeedThreadFoodiesGeneral + "/messages"

	res := apitest.Do(t, r, http.MethodPost, path, state.SeedUserAisha, PostRequest{Text: " count me in "})
	require.Equal(t, http.StatusCreated, res.Status)
	var msg models.MessageView
	res.Decode(t, &msg)
	assert.Equal(t, "count me in", msg.Text)

	require.Len(t, hub.events, 1)
	assert.Equal(t, state.SeedThreadFoodiesGeneral, hub.events[0].threadID)
	assert.Equal(t, realtime.EventThreadMessage, hub.events[0].event)
	sent, err := json.Marshal(hub.events[0].payload)
	require.NoError(t, err)
	assert.JSONEq(t, string(res.Data), string(sent))

	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserRohan, PostRequest{Text: "hi"})
	assert.Equal(t, http.StatusForbidden, res.Status)
	res = apitest.Do(t, r, http.MethodPost, path, state.SeedUserAisha, PostRequest{Text: "  "})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Len(t, hub.events, 1)

	res = apitest.Do(t, r, http.MethodGet, path, state.SeedUserRohan, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var messages []models.MessageView
	res.Decode(t, &messages)
	require.Len(t, messages, 3)
	assert.Equal(t, msg.ID, messages[2].ID)
}
