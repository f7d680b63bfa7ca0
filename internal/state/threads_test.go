package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-app/backend/internal/apperr"
)

func TestCreateCommunityThread(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.RequestToJoinCommunity(ctx, SeedCommunityDesiFoodies, SeedUserRohan)
	require.NoError(t, err)

	th, err := s.CreateCommunityThread(ctx, SeedCommunityDesiFoodies, SeedUserRohan, " Street food ", " crawl plans ", false)
	require.NoError(t, err)
	assert.Regexp(t, `^thread-`, th.ID)
	assert.Equal(t, "Street food", th.Name)
	assert.Equal(t, "crawl plans", th.Description)
	assert.False(t, th.IsAnnouncement)

	_, err = s.CreateCommunityThread(ctx, SeedCommunityDesiFoodies, SeedUserRohan, "News", "", true)
	require.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, "Only admins can post announcements", apperr.Message(err))

	ann, err := s.CreateCommunityThread(ctx, SeedCommunityDesiFoodies, SeedUserAisha, "News", "", true)
	require.NoError(t, err)
	assert.True(t, ann.IsAnnouncement)

	_, err = s.CreateCommunityThread(ctx, SeedCommunityProductMakers, SeedUserSofia, "Hi", "", false)
	require.ErrorIs(t, err, apperr.ErrAuth)
	_, err = s.CreateCommunityThread(ctx, SeedCommunityDesiFoodies, SeedUserSofia, "  ", "", false)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetThreadByID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	th, err := s.GetThreadByID(ctx, SeedThreadMakersNews)
	require.NoError(t, err)
	assert.True(t, th.IsAnnouncement)
	assert.Equal(t, SeedCommunityProductMakers, th.CommunityID)

	_, err = s.GetThreadByID(ctx, "thread-missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostThreadMessage(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	msg, err := s.PostThreadMessage(ctx, SeedThreadFoodiesRecipes, SeedUserSofia, "  Try this dal  ")
	require.NoError(t, err)
	assert.Regexp(t, `^msg-`, msg.ID)
	assert.Equal(t, "Try this dal", msg.Text)
	require.NotNil(t, msg.User)
	assert.Equal(t, "Sofia Das", msg.User.Name)

	_, err = s.PostThreadMessage(ctx, SeedThreadFoodiesRecipes, SeedUserRohan, "hi")
	require.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, "Join the community to participate", apperr.Message(err))
	_, err = s.PostThreadMessage(ctx, "thread-missing", SeedUserSofia, "hi")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.PostThreadMessage(ctx, SeedThreadFoodiesRecipes, SeedUserSofia, "   ")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListCommunityThreads(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	got, err := s.ListCommunityThreads(ctx, SeedCommunityDesiFoodies)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, SeedThreadFoodiesRecipes, got[0].ID)
	assert.Equal(t, 1, got[0].MessageCount)
	assert.Equal(t, SeedThreadFoodiesGeneral, got[1].ID)
	assert.Equal(t, 2, got[1].MessageCount)

	ann, err := s.CreateCommunityThread(ctx, SeedCommunityDesiFoodies, SeedUserSofia, "Rules", "", true)
	require.NoError(t, err)
	fresh, err := s.CreateCommunityThread(ctx, SeedCommunityDesiFoodies, SeedUserSofia, "Fresh", "", false)
	require.NoError(t, err)

	got, err = s.ListCommunityThreads(ctx, SeedCommunityDesiFoodies)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, ann.ID, got[0].ID)
	assert.Equal(t, fresh.ID, got[1].ID)
	assert.Equal(t, 0, got[1].MessageCount)

	none, err := s.ListCommunityThreads(ctx, "community-missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListThreadMessagesOldestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	posted, err := s.PostThreadMessage(ctx, SeedThreadFoodiesGeneral, SeedUserAisha, "latest")
	require.NoError(t, err)

	got, err := s.ListThreadMessages(ctx, SeedThreadFoodiesGeneral)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "msg-1", got[0].ID)
	assert.Equal(t, "msg-2", got[1].ID)
	assert.Equal(t, posted.ID, got[2].ID)
	assert.Equal(t, "Aisha Khan", got[1].User.Name)
}

func TestCanViewThread(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CanViewThread(ctx, SeedThreadFoodiesGeneral, SeedUserRohan)
	require.NoError(t, err, "public community threads are open")

	_, err = s.CanViewThread(ctx, SeedThreadMakersNews, SeedUserSofia)
	require.ErrorIs(t, err, apperr.ErrAuth)

	th, err := s.CanViewThread(ctx, SeedThreadMakersNews, SeedUserRohan)
	require.NoError(t, err)
	assert.Equal(t, SeedThreadMakersNews, th.ID)

	_, err = s.CanViewThread(ctx, "thread-missing", SeedUserRohan)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
