package models

import "time"

// RSVP status values. Other non-empty values are stored as given.
const (
	RSVPGoing      = "going"
	RSVPInterested = "interested"
	RSVPNotGoing   = "not_going"
)

// Event is a scheduled community happening.
type Event struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"communityId"`
	CreatedBy   string    `json:"createdBy"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	Location    string    `json:"location"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EventInput carries the fields for creating an event.
type EventInput struct {
	CommunityID string
	CreatedBy   string
	Title       string
	Description string
	StartsAt    time.Time
	Location    string
	Visibility  string
}

// EventResponse is one user's RSVP to an event.
type EventResponse struct {
	ID        string     `json:"id"`
	EventID   string     `json:"eventId"`
	UserID    string     `json:"userId"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// EventView is an Event with creator and attendees (status going) attached.
type EventView struct {
	Event
	CreatedByUser *UserPublic  `json:"createdByUser"`
	Attendees     []UserPublic `json:"attendees"`
}
