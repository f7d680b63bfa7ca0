package models

import "time"

// RequestStatus is shared by contact and community join requests.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusDeclined RequestStatus = "declined"
)

// Action values accepted by the respond operations.
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// ContactRequest is a directed request from requester to target.
type ContactRequest struct {
	ID          string        `json:"id"`
	RequesterID string        `json:"requesterId"`
	TargetID    string        `json:"targetId"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty"`
}

// ContactRequestView is a ContactRequest with both parties attached.
type ContactRequestView struct {
	ContactRequest
	Requester *UserPublic `json:"requester"`
	Target    *UserPublic `json:"target"`
}

// ContactRequestLists splits a user's requests by direction.
type ContactRequestLists struct {
	Incoming []ContactRequestView `json:"incoming"`
	Outgoing []ContactRequestView `json:"outgoing"`
}
