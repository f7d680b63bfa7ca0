package state

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
)

// RequestToJoinCommunity joins a public community directly and files a
// pending request for a private one.
func (s *Store) RequestToJoinCommunity(ctx context.Context, communityID, userID string) (models.JoinOutcome, error) {
	if communityID == "" || userID == "" {
		return models.JoinOutcome{}, apperr.Validation("Missing ids")
	}
	var out models.JoinOutcome
	err := s.mutate(ctx, func(d *Document) error {
		c := d.community(communityID)
		if c == nil {
			return apperr.NotFound("Community not found")
		}
		if d.user(userID) == nil {
			return apperr.NotFound("User not found")
		}
		if d.membership(communityID, userID) != nil {
			out.AlreadyMember = true
			return nil
		}
		now := s.timestamp()
		if !c.IsPrivate {
			d.CommunityMembers = append(d.CommunityMembers, &models.Membership{
				ID:          newID("cm"),
				CommunityID: communityID,
				UserID:      userID,
				Role:        models.RoleMember,
				JoinedAt:    now,
			})
			out.Joined = true
			return nil
		}
		if d.pendingJoinRequest(communityID, userID) != nil {
			out.AlreadyPending = true
			return nil
		}
		req := &models.CommunityJoinRequest{
			ID:          newID("cjr"),
			CommunityID: communityID,
			UserID:      userID,
			Status:      models.StatusPending,
			CreatedAt:   now,
		}
		d.CommunityJoinRequests = append(d.CommunityJoinRequests, req)
		cp := *req
		out.Request = &cp
		return nil
	})
	return out, err
}

// ListCommunityJoinRequests returns a community's join requests, newest
// first. Non-admins get an empty list.
func (s *Store) ListCommunityJoinRequests(ctx context.Context, communityID, actorID string) ([]models.JoinRequestView, error) {
	out := []models.JoinRequestView{}
	err := s.view(ctx, func(d *Document) error {
		if !d.isAdmin(communityID, actorID) {
			return nil
		}
		for _, r := range d.CommunityJoinRequests {
			if r.CommunityID == communityID {
				out = append(out, models.JoinRequestView{CommunityJoinRequest: *r, User: d.publicUser(r.UserID)})
			}
		}
		sortJoinViews(out)
		return nil
	})
	return out, err
}

// RespondToCommunityJoinRequest resolves a join request. Accepting adds a
// member membership unless one exists.
func (s *Store) RespondToCommunityJoinRequest(ctx context.Context, requestID, actorID, action string) (models.CommunityJoinRequest, error) {
	if requestID == "" || actorID == "" {
		return models.CommunityJoinRequest{}, apperr.Validation("Missing ids")
	}
	status, err := statusForAction(action)
	if err != nil {
		return models.CommunityJoinRequest{}, err
	}
	var out models.CommunityJoinRequest
	err = s.mutate(ctx, func(d *Document) error {
		var req *models.CommunityJoinRequest
		for _, r := range d.CommunityJoinRequests {
			if r.ID == requestID {
				req = r
				break
			}
		}
		if req == nil {
			return apperr.NotFound("Request not found")
		}
		c := d.community(req.CommunityID)
		if c == nil {
			return apperr.NotFound("Community missing")
		}
		if !d.isAdmin(c.ID, actorID) {
			return apperr.Auth("Only admins can respond")
		}
		if req.Status != models.StatusPending {
			s.logger.Debug("re-responding to join request",
				zap.String("request_id", req.ID), zap.String("previous", string(req.Status)))
		}
		now := s.timestamp()
		req.Status = status
		req.RespondedAt = &now
		if status == models.StatusAccepted && d.membership(c.ID, req.UserID) == nil {
			d.CommunityMembers = append(d.CommunityMembers, &models.Membership{
				ID:          newID("cm"),
				CommunityID: c.ID,
				UserID:      req.UserID,
				Role:        models.RoleMember,
				JoinedAt:    now,
			})
		}
		out = *req
		return nil
	})
	return out, err
}

// ListMyCommunityRequests returns requests for communities userID
// administers (incoming) and requests userID sent (outgoing).
func (s *Store) ListMyCommunityRequests(ctx context.Context, userID string) (models.JoinRequestLists, error) {
	out := models.JoinRequestLists{
		Incoming: []models.JoinRequestView{},
		Outgoing: []models.JoinRequestView{},
	}
	if userID == "" {
		return out, nil
	}
	err := s.view(ctx, func(d *Document) error {
		admin := map[string]bool{}
		for _, m := range d.CommunityMembers {
			if m.UserID == userID && m.Role.IsAdmin() {
				admin[m.CommunityID] = true
			}
		}
		for _, r := range d.CommunityJoinRequests {
			view := models.JoinRequestView{CommunityJoinRequest: *r, User: d.publicUser(r.UserID)}
			if c := d.community(r.CommunityID); c != nil {
				cp := *c
				view.Community = &cp
			}
			if admin[r.CommunityID] {
				out.Incoming = append(out.Incoming, view)
			}
			if r.UserID == userID {
				out.Outgoing = append(out.Outgoing, view)
			}
		}
		sortJoinViews(out.Incoming)
		sortJoinViews(out.Outgoing)
		return nil
	})
	return out, err
}

func sortJoinViews(v []models.JoinRequestView) {
	sort.SliceStable(v, func(i, j int) bool { return v[i].CreatedAt.After(v[j].CreatedAt) })
}
