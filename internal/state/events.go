package state

import (
	"context"
	"sort"
	"strings"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
)

// Event defaults.
const (
	DefaultEventLocation   = "TBD"
	DefaultEventVisibility = "public"
)

// CreateCommunityEvent schedules an event on behalf of a community admin.
func (s *Store) CreateCommunityEvent(ctx context.Context, in models.EventInput) (models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if in.CommunityID == "" || in.CreatedBy == "" || title == "" || in.StartsAt.IsZero() {
		return models.Event{}, apperr.Validation("Missing required fields")
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = DefaultEventLocation
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = DefaultEventVisibility
	}
	var out models.Event
	err := s.mutate(ctx, func(d *Document) error {
		if !d.isAdmin(in.CommunityID, in.CreatedBy) {
			return apperr.Auth("Only admins can create events")
		}
		e := &models.Event{
			ID:          newID("event"),
			CommunityID: in.CommunityID,
			CreatedBy:   in.CreatedBy,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			StartsAt:    in.StartsAt.UTC(),
			Location:    location,
			Visibility:  visibility,
			CreatedAt:   s.timestamp(),
		}
		d.CommunityEvents = append(d.CommunityEvents, e)
		out = *e
		return nil
	})
	return out, err
}

// RespondToEvent records userID's RSVP, replacing any earlier one.
func (s *Store) RespondToEvent(ctx context.Context, eventID, userID, status string) (models.EventResponse, error) {
	status = strings.TrimSpace(status)
	if eventID == "" || userID == "" || status == "" {
		return models.EventResponse{}, apperr.Validation("Missing data")
	}
	var out models.EventResponse
	err := s.mutate(ctx, func(d *Document) error {
		e := d.event(eventID)
		if e == nil {
			return apperr.NotFound("Event not found")
		}
		if d.membership(e.CommunityID, userID) == nil {
			return apperr.Auth("Join the community first")
		}
		now := s.timestamp()
		for _, r := range d.CommunityEventResponses {
			if r.EventID == eventID && r.UserID == userID {
				r.Status = status
				r.UpdatedAt = &now
				out = *r
				return nil
			}
		}
		r := &models.EventResponse{
			ID:        newID("event-rsvp"),
			EventID:   eventID,
			UserID:    userID,
			Status:    status,
			CreatedAt: now,
		}
		d.CommunityEventResponses = append(d.CommunityEventResponses, r)
		out = *r
		return nil
	})
	return out, err
}

// ListCommunityEvents returns a community's events by start time with the
// creator and the users going attached.
func (s *Store) ListCommunityEvents(ctx context.Context, communityID string) ([]models.EventView, error) {
	out := []models.EventView{}
	err := s.view(ctx, func(d *Document) error {
		for _, e := range d.CommunityEvents {
			if e.CommunityID != communityID {
				continue
			}
			view := models.EventView{
				Event:         *e,
				CreatedByUser: d.publicUser(e.CreatedBy),
				Attendees:     []models.UserPublic{},
			}
			for _, r := range d.CommunityEventResponses {
				if r.EventID != e.ID || r.Status != models.RSVPGoing {
					continue
				}
				if u := d.publicUser(r.UserID); u != nil {
					view.Attendees = append(view.Attendees, *u)
				}
			}
			out = append(out, view)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
		return nil
	})
	return out, err
}
