package state

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
)

// statusForAction maps a respond action onto the resulting status.
func statusForAction(action string) (models.RequestStatus, error) {
	switch action {
	case models.ActionAccept:
		return models.StatusAccepted, nil
	case models.ActionDecline:
		return models.StatusDeclined, nil
	}
	return "", apperr.Validation("Unknown action")
}

// CreateContactRequest sends a pending request from requester to target.
func (s *Store) CreateContactRequest(ctx context.Context, requesterID, targetID string) (models.ContactRequest, error) {
	if requesterID == "" || targetID == "" || requesterID == targetID {
		return models.ContactRequest{}, apperr.Validation("Invalid request")
	}
	var out models.ContactRequest
	err := s.mutate(ctx, func(d *Document) error {
		if d.user(requesterID) == nil || d.user(targetID) == nil {
			return apperr.NotFound("User not found")
		}
		for _, r := range d.ContactRequests {
			if r.RequesterID == requesterID && r.TargetID == targetID && r.Status == models.StatusPending {
				return apperr.Conflict("Request already sent")
			}
		}
		req := &models.ContactRequest{
			ID:          newID("req"),
			RequesterID: requesterID,
			TargetID:    targetID,
			Status:      models.StatusPending,
			CreatedAt:   s.timestamp(),
		}
		d.ContactRequests = append(d.ContactRequests, req)
		out = *req
		return nil
	})
	return out, err
}

// RespondToContactRequest accepts or declines a request. Responding again
// overwrites the previous outcome.
func (s *Store) RespondToContactRequest(ctx context.Context, requestID, action string) (models.ContactRequest, error) {
	return s.respondToContactRequest(ctx, requestID, "", action)
}

// RespondToContactRequestAs is RespondToContactRequest on behalf of actorID,
// who must be the target of the request. Requests the actor is not a party
// to are reported as not found.
func (s *Store) RespondToContactRequestAs(ctx context.Context, requestID, actorID, action string) (models.ContactRequest, error) {
	if actorID == "" {
		return models.ContactRequest{}, apperr.Auth("Not authenticated")
	}
	return s.respondToContactRequest(ctx, requestID, actorID, action)
}

func (s *Store) respondToContactRequest(ctx context.Context, requestID, actorID, action string) (models.ContactRequest, error) {
	status, err := statusForAction(action)
	if err != nil {
		return models.ContactRequest{}, err
	}
	var out models.ContactRequest
	err = s.mutate(ctx, func(d *Document) error {
		for _, r := range d.ContactRequests {
			if r.ID != requestID {
				continue
			}
			if actorID != "" && r.TargetID != actorID {
				if r.RequesterID == actorID {
					return apperr.Auth("Only the recipient can respond")
				}
				return apperr.NotFound("Request not found")
			}
			if r.Status != models.StatusPending {
				s.logger.Debug("re-responding to contact request",
					zap.String("request_id", r.ID), zap.String("previous", string(r.Status)))
			}
			now := s.timestamp()
			r.Status = status
			r.RespondedAt = &now
			out = *r
			return nil
		}
		return apperr.NotFound("Request not found")
	})
	return out, err
}

// ListContactRequests returns the user's incoming and outgoing requests,
// newest first, with both parties attached.
func (s *Store) ListContactRequests(ctx context.Context, userID string) (models.ContactRequestLists, error) {
	out := models.ContactRequestLists{
		Incoming: []models.ContactRequestView{},
		Outgoing: []models.ContactRequestView{},
	}
	if userID == "" {
		return out, nil
	}
	err := s.view(ctx, func(d *Document) error {
		for _, r := range d.ContactRequests {
			view := models.ContactRequestView{
				ContactRequest: *r,
				Requester:      d.publicUser(r.RequesterID),
				Target:         d.publicUser(r.TargetID),
			}
			if r.TargetID == userID {
				out.Incoming = append(out.Incoming, view)
			}
			if r.RequesterID == userID {
				out.Outgoing = append(out.Outgoing, view)
			}
		}
		sortContactViews(out.Incoming)
		sortContactViews(out.Outgoing)
		return nil
	})
	return out, err
}

func sortContactViews(v []models.ContactRequestView) {
	sort.SliceStable(v, func(i, j int) bool { return v[i].CreatedAt.After(v[j].CreatedAt) })
}
