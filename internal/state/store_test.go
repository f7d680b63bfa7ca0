package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/pkg/kv"
)

// tickingClock advances one second per call, starting after the seed data.
func tickingClock() func() time.Time {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	backend := kv.NewMemory()
	return newTestStoreOn(backend), backend
}

func newTestStoreOn(backend kv.Store) *Store {
	return New(backend, Options{PasswordCost: bcrypt.MinCost, Now: tickingClock()})
}

// flakyKV fails writes while failSet is true.
type flakyKV struct {
	*kv.Memory
	failSet atomic.Bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet.Load() {
		return errors.New("disk full")
	}
	return f.Memory.Set(ctx, key, value)
}

func rawDoc(t *testing.T, backend kv.Store) map[string]json.RawMessage {
	t.Helper()
	raw, err := backend.Get(context.Background(), DefaultDocumentKey)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	return fields
}

func TestEnsureLoadedSeedsEmptyBackend(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	doc, err := s.EnsureLoaded(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Users, 3)
	require.Len(t, doc.Communities, 2)
	require.Len(t, doc.CommunityMembers, 3)
	require.Len(t, doc.CommunityJoinRequests, 1)
	require.Len(t, doc.CommunityThreads, 3)
	require.Len(t, doc.ThreadMessages, 3)
	require.Len(t, doc.CommunityEvents, 1)
	assert.Empty(t, doc.ContactRequests)
	assert.Empty(t, doc.CommunityEventResponses)

	fields := rawDoc(t, backend)
	for _, key := range Collections {
		assert.Contains(t, fields, key)
	}
	assert.JSONEq(t, `[]`, string(fields["contactRequests"]))
}

func TestEnsureLoadedIsStableAcrossCalls(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	_, err := s.EnsureLoaded(ctx)
	require.NoError(t, err)
	first, err := backend.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)

	_, err = s.EnsureLoaded(ctx)
	require.NoError(t, err)
	second, err := backend.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnsureLoadedRecoversFromCorruption(t *testing.T) {
	for _, body := range []string{"{not json", "null", "[]", "42", `"text"`} {
		t.Run(body, func(t *testing.T) {
			s, backend := newTestStore(t)
			ctx := context.Background()
			require.NoError(t, backend.Set(ctx, DefaultDocumentKey, []byte(body)))

			doc, err := s.EnsureLoaded(ctx)
			require.NoError(t, err)
			require.Len(t, doc.Users, 3)

			fields := rawDoc(t, backend)
			assert.Contains(t, fields, "users")
		})
	}
}

func TestEnsureLoadedBackfillsMissingCollections(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, DefaultDocumentKey, []byte(`{"users":[],"threadMessages":null}`)))

	doc, err := s.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Users, "present collections are kept")
	assert.Len(t, doc.ThreadMessages, 3, "null collections are backfilled")
	assert.Len(t, doc.Communities, 2)

	fields := rawDoc(t, backend)
	assert.JSONEq(t, `[]`, string(fields["users"]))
	assert.Len(t, fields, len(Collections))
}

func TestEnsureLoadedDropsNullEntries(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, DefaultDocumentKey, []byte(`{"users":[null],"threadMessages":[null]}`)))

	doc, err := s.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Users)
	assert.Empty(t, doc.ThreadMessages)

	_, err = s.GetUserByID(ctx, SeedUserAisha)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.PostThreadMessage(ctx, SeedThreadFoodiesGeneral, SeedUserSofia, "still here")
	require.NoError(t, err)

	fields := rawDoc(t, backend)
	assert.JSONEq(t, `[]`, string(fields["users"]))
}

func TestDocumentRoundTripIsLossless(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	u, err := s.RegisterUser(ctx, "Neha", "neha@example.com", "secret")
	require.NoError(t, err)
	_, err = s.SetUserAvatar(ctx, u.ID, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	_, err = s.RespondToEvent(ctx, SeedEventThaliNight, SeedUserSofia, models.RSVPGoing)
	require.NoError(t, err)

	raw, err := backend.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)
	doc, missing, err := decodeDocument(raw)
	require.NoError(t, err)
	assert.Empty(t, missing)
	again, err := encodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(again))
}

func TestUnchangedCollectionsSurviveMutation(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	_, err := s.EnsureLoaded(ctx)
	require.NoError(t, err)
	before := rawDoc(t, backend)

	_, err = s.PostThreadMessage(ctx, SeedThreadFoodiesGeneral, SeedUserAisha, "hello")
	require.NoError(t, err)
	after := rawDoc(t, backend)

	for _, key := range Collections {
		if key == "threadMessages" {
			continue
		}
		assert.JSONEq(t, string(before[key]), string(after[key]), key)
	}
}

func TestResetReseeds(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()

	_, err := s.RegisterUser(ctx, "", "temp@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))
	_, err = backend.Get(ctx, DefaultDocumentKey)
	require.ErrorIs(t, err, kv.ErrNotFound)

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 3)
}

func TestFailedMutationIsNotPersisted(t *testing.T) {
	s, backend := newTestStore(t)
	ctx := context.Background()
	_, err := s.EnsureLoaded(ctx)
	require.NoError(t, err)
	before, err := backend.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)

	_, err = s.RegisterUser(ctx, "Dup", "AISHA@example.com", "pw")
	require.ErrorIs(t, err, apperr.ErrConflict)

	after, err := backend.Get(ctx, DefaultDocumentKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWriteFailureIsInternal(t *testing.T) {
	backend := &flakyKV{Memory: kv.NewMemory()}
	s := newTestStoreOn(backend)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	backend.failSet.Store(true)
	_, err := s.PostThreadMessage(ctx, SeedThreadFoodiesGeneral, SeedUserAisha, "lost")
	require.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, "Unable to save changes", apperr.Message(err))

	backend.failSet.Store(false)
	msgs, err := s.ListThreadMessages(ctx, SeedThreadFoodiesGeneral)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Bootstrap(ctx))

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.PostThreadMessage(ctx, SeedThreadFoodiesGeneral, SeedUserSofia, fmt.Sprintf("msg %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := s.ListThreadMessages(ctx, SeedThreadFoodiesGeneral)
	require.NoError(t, err)
	assert.Len(t, msgs, 2+writers)
}

func TestSeedHashIsSharedButDocumentsAreFresh(t *testing.T) {
	s, _ := newTestStore(t)
	a, err := s.seed()
	require.NoError(t, err)
	b, err := s.seed()
	require.NoError(t, err)

	assert.Equal(t, a.Users[0].PasswordHash, b.Users[0].PasswordHash)
	a.Users[0].Name = "changed"
	assert.Equal(t, "Aisha Khan", b.Users[0].Name)
}

func TestOptionsDefaults(t *testing.T) {
	s := New(kv.NewMemory(), Options{})
	assert.Equal(t, DefaultDocumentKey, s.key)
	assert.Equal(t, bcrypt.DefaultCost, s.cost)
	assert.NotNil(t, s.logger)
	assert.Equal(t, time.UTC, s.timestamp().Location())
}
