package state

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
)

// BannerPalette holds the colours assigned to new communities.
var BannerPalette = []string{"#f97316", "#22c55e", "#3b82f6", "#e11d48", "#6366f1"}

// CreateCommunity creates a community and its owner membership together.
func (s *Store) CreateCommunity(ctx context.Context, ownerID, name, description string, isPrivate bool) (models.Community, error) {
	name = strings.TrimSpace(name)
	if ownerID == "" || name == "" {
		return models.Community{}, apperr.Validation("Name is required")
	}
	var out models.Community
	err := s.mutate(ctx, func(d *Document) error {
		if d.user(ownerID) == nil {
			return apperr.NotFound("Owner not found")
		}
		now := s.timestamp()
		c := &models.Community{
			ID:          newID("community"),
			Name:        name,
			Description: strings.TrimSpace(description),
			OwnerID:     ownerID,
			IsPrivate:   isPrivate,
			BannerColor: BannerPalette[rand.Intn(len(BannerPalette))],
			CreatedAt:   now,
		}
		d.Communities = append(d.Communities, c)
		d.CommunityMembers = append(d.CommunityMembers, &models.Membership{
			ID:          newID("cm"),
			CommunityID: c.ID,
			UserID:      ownerID,
			Role:        models.RoleOwner,
			JoinedAt:    now,
		})
		out = *c
		return nil
	})
	return out, err
}

// UpdateCommunityDetails applies patch on behalf of an admin.
func (s *Store) UpdateCommunityDetails(ctx context.Context, communityID, actorID string, patch models.CommunityPatch) (models.Community, error) {
	if communityID == "" || actorID == "" {
		return models.Community{}, apperr.Validation("Missing ids")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Community{}, apperr.Validation("Name is required")
		}
		patch.Name = &name
	}
	var out models.Community
	err := s.mutate(ctx, func(d *Document) error {
		c := d.community(communityID)
		if c == nil {
			return apperr.NotFound("Community not found")
		}
		if !d.isAdmin(communityID, actorID) {
			return apperr.Auth("Only admins can update community")
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Description != nil {
			c.Description = *patch.Description
		}
		if patch.IsPrivate != nil {
			c.IsPrivate = *patch.IsPrivate
		}
		if patch.BannerColor != nil {
			c.BannerColor = *patch.BannerColor
		}
		now := s.timestamp()
		c.UpdatedAt = &now
		out = *c
		return nil
	})
	return out, err
}

// ListCommunities summarises every community for viewerID, by name.
func (s *Store) ListCommunities(ctx context.Context, viewerID string) ([]models.CommunitySummary, error) {
	out := []models.CommunitySummary{}
	err := s.view(ctx, func(d *Document) error {
		for _, c := range d.Communities {
			out = append(out, d.summary(c, viewerID))
		}
		sort.SliceStable(out, func(i, j int) bool { return lessName(out[i].Name, out[j].Name) })
		return nil
	})
	return out, err
}

// ListJoinedCommunities summarises the communities userID belongs to,
// newest first.
func (s *Store) ListJoinedCommunities(ctx context.Context, userID string) ([]models.CommunitySummary, error) {
	out := []models.CommunitySummary{}
	err := s.view(ctx, func(d *Document) error {
		for _, m := range d.CommunityMembers {
			if m.UserID != userID {
				continue
			}
			if c := d.community(m.CommunityID); c != nil {
				out = append(out, d.summary(c, userID))
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

// ListCommunityMembers returns members ordered owner, moderator, member.
func (s *Store) ListCommunityMembers(ctx context.Context, communityID string) ([]models.MemberView, error) {
	out := []models.MemberView{}
	err := s.view(ctx, func(d *Document) error {
		for _, m := range d.CommunityMembers {
			if m.CommunityID == communityID {
				out = append(out, models.MemberView{Membership: *m, User: d.publicUser(m.UserID)})
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Role.Rank() < out[j].Role.Rank() })
		return nil
	})
	return out, err
}

// LeaveCommunity removes the membership of a non-owner. Threads, messages
// and events are kept.
func (s *Store) LeaveCommunity(ctx context.Context, communityID, userID string) error {
	if communityID == "" || userID == "" {
		return apperr.Validation("Missing ids")
	}
	return s.mutate(ctx, func(d *Document) error {
		m := d.membership(communityID, userID)
		if m == nil {
			return apperr.NotFound("You are not a member")
		}
		if m.Role == models.RoleOwner {
			return apperr.Validation("Owners must transfer ownership before leaving")
		}
		kept := d.CommunityMembers[:0]
		for _, other := range d.CommunityMembers {
			if other.ID != m.ID {
				kept = append(kept, other)
			}
		}
		d.CommunityMembers = kept
		return nil
	})
}
