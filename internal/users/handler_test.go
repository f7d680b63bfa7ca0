package users

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-app/backend/internal/apitest"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/pkg/storage"
)

type fakeAvatars struct {
	deleted []string
}

func (f *fakeAvatars) PresignAvatarUpload(_ context.Context, userID, contentType, filename string) (storage.AvatarUpload, error) {
	_, ext, err := storage.AvatarContentType(contentType, filename)
	if err != nil {
		return storage.AvatarUpload{}, err
	}
	key := "avatars/" + userID + "/fixed" + ext
	return storage.AvatarUpload{
		UploadURL: "https://upload.example/" + key,
		PublicURL: "https://cdn.example/" + key,
		Key:       key,
	}, nil
}

func (f *fakeAvatars) DeleteAvatar(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func setup(t *testing.T, avatars AvatarStorage) (*gin.Engine, *state.Store) {
	t.Helper()
	store := apitest.NewStore(t)
	h := NewHandler(store, avatars, "US", nil)
	r := apitest.NewRouter()
	r.GET("/users", h.List)
	r.GET("/users/me", h.Me)
	r.GET("/users/search", h.Search)
	r.PATCH("/users/me/profile", h.UpdateProfile)
	r.PUT("/users/me/phone", h.SetPhone)
	r.PUT("/users/me/avatar", h.SetAvatar)
	r.POST("/users/me/avatar/upload-url", h.AvatarUploadURL)
	r.POST("/users/match-contacts", h.MatchContacts)
	return r, store
}

func TestMe(t *testing.T) {
	r, _ := setup(t, nil)

	res := apitest.Do(t, r, http.MethodGet, "/users/me", state.SeedUserAisha, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var u models.UserPublic
	res.Decode(t, &u)
	assert.Equal(t, "Aisha Khan", u.Name)
	assert.NotContains(t, string(res.Data), "passwordHash")

	res = apitest.Do(t, r, http.MethodGet, "/users/me", "user-gone", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "not_found", res.Kind)
}

func TestUpdateProfile(t *testing.T) {
	r, _ := setup(t, nil)

	res := apitest.Do(t, r, http.MethodPatch, "/users/me/profile", state.SeedUserRohan, gin.H{
		"name":      "  ",
		"bio":       "Shipping things",
		"interests": []string{"design"},
	})
	require.Equal(t, http.StatusOK, res.Status)
	var u models.UserPublic
	res.Decode(t, &u)
	assert.Equal(t, "Rohan Patel", u.Name)
	assert.Equal(t, "Shipping things", u.Bio)
	assert.Equal(t, []string{"design"}, u.Interests)
	assert.NotNil(t, u.UpdatedAt)

	res = apitest.Do(t, r, http.MethodPatch, "/users/me/profile", state.SeedUserRohan, "{")
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestSetPhoneNormalizes(t *testing.T) {
	r, _ := setup(t, nil)

	res := apitest.Do(t, r, http.MethodPut, "/users/me/phone", state.SeedUserSofia, PhoneRequest{Phone: "(650) 253-0000"})
	require.Equal(t, http.StatusOK, res.Status)
	var u models.UserPublic
	res.Decode(t, &u)
	assert.Equal(t, "+16502530000", u.Phone)

	res = apitest.Do(t, r, http.MethodPut, "/users/me/phone", state.SeedUserSofia, PhoneRequest{Phone: "12"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid phone number", res.Error)

	res = apitest.Do(t, r, http.MethodPut, "/users/me/phone", state.SeedUserSofia, PhoneRequest{})
	require.Equal(t, http.StatusOK, res.Status)
	res.Decode(t, &u)
	assert.Empty(t, u.Phone)
}

func TestSetAvatarDeletesReplaced(t *testing.T) {
	avatars := &fakeAvatars{}
	r, _ := setup(t, avatars)

	first := "https://cdn.example/avatars/user-aisha/a.png"
	res := apitest.Do(t, r, http.MethodPut, "/users/me/avatar", state.SeedUserAisha, gin.H{"avatarUri": first})
	require.Equal(t, http.StatusOK, res.Status)
	var u models.UserPublic
	res.Decode(t, &u)
	require.NotNil(t, u.AvatarURI)
	assert.Equal(t, first, *u.AvatarURI)
	assert.Empty(t, avatars.deleted)

	res = apitest.Do(t, r, http.MethodPut, "/users/me/avatar", state.SeedUserAisha, gin.H{"avatarUri": nil})
	require.Equal(t, http.StatusOK, res.Status)
	u = models.UserPublic{}
	res.Decode(t, &u)
	assert.Nil(t, u.AvatarURI)
	assert.Equal(t, []string{first}, avatars.deleted)
}

type fakeCleaner struct {
	scheduled []string
}

func (f *fakeCleaner) ScheduleAvatarDelete(_ context.Context, userID, url string) error {
	f.scheduled = append(f.scheduled, userID+" "+url)
	return nil
}

func TestSetAvatarSchedulesCleanup(t *testing.T) {
	avatars := &fakeAvatars{}
	store := apitest.NewStore(t)
	h := NewHandler(store, avatars, "US", nil)
	cleaner := &fakeCleaner{}
	h.SetAvatarCleaner(cleaner)
	r := apitest.NewRouter()
	r.PUT("/users/me/avatar", h.SetAvatar)

	for _, uri := range []string{"https://cdn.example/a.png", "https://cdn.example/b.png", "https://cdn.example/b.png"} {
		res := apitest.Do(t, r, http.MethodPut, "/users/me/avatar", state.SeedUserRohan, AvatarRequest{AvatarURI: &uri})
		require.Equal(t, http.StatusOK, res.Status)
	}
	assert.Equal(t, []string{"user-rohan https://cdn.example/a.png"}, cleaner.scheduled)
	assert.Empty(t, avatars.deleted)
}

func TestAvatarUploadURL(t *testing.T) {
	r, _ := setup(t, nil)
	res := apitest.Do(t, r, http.MethodPost, "/users/me/avatar/upload-url", state.SeedUserAisha, UploadURLRequest{ContentType: "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)

	r, _ = setup(t, &fakeAvatars{})
	res = apitest.Do(t, r, http.MethodPost, "/users/me/avatar/upload-url", state.SeedUserAisha, UploadURLRequest{ContentType: "image/png"})
	require.Equal(t, http.StatusOK, res.Status)
	var up storage.AvatarUpload
	res.Decode(t, &up)
	assert.Equal(t, "avatars/user-aisha/fixed.png", up.Key)

	res = apitest.Do(t, r, http.MethodPost, "/users/me/avatar/upload-url", state.SeedUserAisha, UploadURLRequest{Filename: "notes.txt"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestSearchExcludesViewer(t *testing.T) {
	r, _ := setup(t, nil)

	res := apitest.Do(t, r, http.MethodGet, "/users/search?q=EXAMPLE.com", state.SeedUserAisha, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var got []models.UserPublic
	res.Decode(t, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "Rohan Patel", got[0].Name)
	assert.Equal(t, "Sofia Das", got[1].Name)

	res = apitest.Do(t, r, http.MethodGet, "/users/search", state.SeedUserAisha, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.JSONEq(t, `[]`, string(res.Data))
}

func TestMatchContacts(t *testing.T) {
	r, store := setup(t, nil)
	_, err := store.SetUserPhone(context.Background(), state.SeedUserSofia, "+16502530000")
	require.NoError(t, err)

	res := apitest.Do(t, r, http.MethodPost, "/users/match-contacts", state.SeedUserAisha, MatchContactsRequest{
		PhoneNumbers: []string{"+14155550102", "650-253-0000", "+14155550101"},
	})
	require.Equal(t, http.StatusOK, res.Status)
	var got []models.ContactMatch
	res.Decode(t, &got)
	require.Len(t, got, 2)
	assert.Equal(t, state.SeedUserRohan, got[0].ID)
	assert.Equal(t, state.SeedUserSofia, got[1].ID)

	res = apitest.Do(t, r, http.MethodPost, "/users/match-contacts", state.SeedUserAisha, gin.H{})
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestList(t *testing.T) {
	r, _ := setup(t, nil)

	res := apitest.Do(t, r, http.MethodGet, "/users", state.SeedUserAisha, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var got []models.UserPublic
	res.Decode(t, &got)
	require.Len(t, got, 3)
	assert.Equal(t, state.SeedUserSofia, got[0].ID)
}
