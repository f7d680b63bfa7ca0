// Package state is the document store behind the chat app: a single JSON
// document holding every collection, read from and written back to a
// key-value backend on each operation.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/pkg/kv"
)

// DefaultDocumentKey is the key the document is persisted under.
const DefaultDocumentKey = "chat-app:mock-backend"

// Options configures a Store. Zero values select defaults.
type Options struct {
	Logger       *zap.Logger
	DocumentKey  string
	PasswordCost int
	// Now returns the current time; results are stored in UTC.
	Now func() time.Time
}

// Store owns the document. All operations are serialized by mu, so a Store
// must be shared rather than duplicated between callers of one backend.
type Store struct {
	kv     kv.Store
	logger *zap.Logger
	key    string
	cost   int
	now    func() time.Time

	mu sync.Mutex

	seedOnce sync.Once
	seedHash string
	seedErr  error
}

// New creates a Store over backend.
func New(backend kv.Store, opts Options) *Store {
	s := &Store{
		kv:     backend,
		logger: opts.Logger,
		key:    opts.DocumentKey,
		cost:   opts.PasswordCost,
		now:    opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.key == "" {
		s.key = DefaultDocumentKey
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Bootstrap loads the document, seeding or backfilling it as needed.
func (s *Store) Bootstrap(ctx context.Context) error {
	_, err := s.EnsureLoaded(ctx)
	return err
}

// EnsureLoaded returns the persisted document. A missing document is seeded,
// an unparseable one is replaced by the seed, and missing collections are
// backfilled from the seed; each of these is persisted before returning.
func (s *Store) EnsureLoaded(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Reset deletes the persisted document; the next access reseeds it.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return apperr.Internal("Unable to reset data", err)
	}
	s.logger.Info("document reset", zap.String("key", s.key))
	return nil
}

func (s *Store) load(ctx context.Context) (*Document, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, apperr.Internal("Unable to load data", err)
	}
	if errors.Is(err, kv.ErrNotFound) || len(raw) == 0 {
		doc, err := s.seed()
		if err != nil {
			return nil, err
		}
		s.logger.Info("seeding document", zap.String("key", s.key))
		if err := s.persist(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	doc, missing, err := decodeDocument(raw)
	if err != nil {
		s.logger.Warn("failed to parse document, resetting", zap.String("key", s.key), zap.Error(err))
		doc, err := s.seed()
		if err != nil {
			return nil, err
		}
		if err := s.persist(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if len(missing) > 0 {
		defaults, err := s.seed()
		if err != nil {
			return nil, err
		}
		doc.backfill(defaults, missing)
		s.logger.Info("backfilled document collections", zap.Strings("collections", missing))
		if err := s.persist(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *Store) persist(ctx context.Context, doc *Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return apperr.Internal("Unable to save changes", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		s.logger.Error("persist document", zap.String("key", s.key), zap.Error(err))
		return apperr.Internal("Unable to save changes", err)
	}
	return nil
}

// view runs fn against a freshly loaded document without persisting it.
func (s *Store) view(ctx context.Context, fn func(d *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// mutate loads the document, applies fn and persists the whole document.
// Nothing is written when fn fails.
func (s *Store) mutate(ctx context.Context, fn func(d *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.persist(ctx, doc)
}
