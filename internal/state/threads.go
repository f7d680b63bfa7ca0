package state

import (
	"context"
	"sort"
	"strings"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
)

// CreateCommunityThread opens a thread. Members may create threads; only
// admins may create announcement threads.
func (s *Store) CreateCommunityThread(ctx context.Context, communityID, userID, name, description string, isAnnouncement bool) (models.Thread, error) {
	name = strings.TrimSpace(name)
	if communityID == "" || userID == "" || name == "" {
		return models.Thread{}, apperr.Validation("Thread name is required")
	}
	var out models.Thread
	err := s.mutate(ctx, func(d *Document) error {
		m := d.membership(communityID, userID)
		if m == nil {
			return apperr.Auth("Join the community first")
		}
		if isAnnouncement && !m.Role.IsAdmin() {
			return apperr.Auth("Only admins can post announcements")
		}
		t := &models.Thread{
			ID:             newID("thread"),
			CommunityID:    communityID,
			Name:           name,
			Description:    strings.TrimSpace(description),
			CreatedBy:      userID,
			CreatedAt:      s.timestamp(),
			IsAnnouncement: isAnnouncement,
		}
		d.CommunityThreads = append(d.CommunityThreads, t)
		out = *t
		return nil
	})
	return out, err
}

// GetThreadByID returns a thread.
func (s *Store) GetThreadByID(ctx context.Context, threadID string) (models.Thread, error) {
	var out models.Thread
	err := s.view(ctx, func(d *Document) error {
		t := d.thread(threadID)
		if t == nil {
			return apperr.NotFound("Thread not found")
		}
		out = *t
		return nil
	})
	return out, err
}

// PostThreadMessage appends a message from a member of the thread's
// community.
func (s *Store) PostThreadMessage(ctx context.Context, threadID, userID, text string) (models.MessageView, error) {
	text = strings.TrimSpace(text)
	if threadID == "" || userID == "" || text == "" {
		return models.MessageView{}, apperr.Validation("Message required")
	}
	var out models.MessageView
	err := s.mutate(ctx, func(d *Document) error {
		t := d.thread(threadID)
		if t == nil {
			return apperr.NotFound("Thread not found")
		}
		if d.membership(t.CommunityID, userID) == nil {
			return apperr.Auth("Join the community to participate")
		}
		msg := &models.ThreadMessage{
			ID:        newID("msg"),
			ThreadID:  threadID,
			UserID:    userID,
			Text:      text,
			CreatedAt: s.timestamp(),
		}
		d.ThreadMessages = append(d.ThreadMessages, msg)
		out = models.MessageView{ThreadMessage: *msg, User: d.publicUser(userID)}
		return nil
	})
	return out, err
}

// ListCommunityThreads returns announcements first, then newest first.
func (s *Store) ListCommunityThreads(ctx context.Context, communityID string) ([]models.ThreadSummary, error) {
	out := []models.ThreadSummary{}
	err := s.view(ctx, func(d *Document) error {
		counts := map[string]int{}
		for _, m := range d.ThreadMessages {
			counts[m.ThreadID]++
		}
		for _, t := range d.CommunityThreads {
			if t.CommunityID == communityID {
				out = append(out, models.ThreadSummary{Thread: *t, MessageCount: counts[t.ID]})
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].IsAnnouncement != out[j].IsAnnouncement {
				return out[i].IsAnnouncement
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

// ListThreadMessages returns a thread's messages, oldest first.
func (s *Store) ListThreadMessages(ctx context.Context, threadID string) ([]models.MessageView, error) {
	out := []models.MessageView{}
	err := s.view(ctx, func(d *Document) error {
		for _, m := range d.ThreadMessages {
			if m.ThreadID == threadID {
				out = append(out, models.MessageView{ThreadMessage: *m, User: d.publicUser(m.UserID)})
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

// CanViewThread reports whether userID may follow a thread live. Threads of
// private communities are visible to members only.
func (s *Store) CanViewThread(ctx context.Context, threadID, userID string) (models.Thread, error) {
	var out models.Thread
	err := s.view(ctx, func(d *Document) error {
		t := d.thread(threadID)
		if t == nil {
			return apperr.NotFound("Thread not found")
		}
		c := d.community(t.CommunityID)
		if c == nil {
			return apperr.NotFound("Community missing")
		}
		if c.IsPrivate && d.membership(c.ID, userID) == nil {
			return apperr.Auth("Join the community first")
		}
		out = *t
		return nil
	})
	return out, err
}
