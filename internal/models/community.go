package models

import "time"

// Role is a user's role within a community.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// IsAdmin reports whether the role may manage the community.
func (r Role) IsAdmin() bool {
	return r == RoleOwner || r == RoleModerator
}

// Rank orders roles for member listings.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 0
	case RoleModerator:
		return 1
	case RoleMember:
		return 2
	}
	return 9
}

// Community is a group of users with threads and events.
type Community struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     string     `json:"ownerId"`
	IsPrivate   bool       `json:"isPrivate"`
	BannerColor string     `json:"bannerColor"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// CommunityPatch lists the fields admins may change; nil means unchanged.
type CommunityPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
	BannerColor *string `json:"bannerColor,omitempty"`
}

// Membership links a user to a community with a role.
type Membership struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"communityId"`
	UserID      string    `json:"userId"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// MemberView is a Membership with the user attached.
type MemberView struct {
	Membership
	User *UserPublic `json:"user"`
}

// CommunitySummary is a Community annotated for a viewer.
type CommunitySummary struct {
	Community
	MemberCount       int   `json:"memberCount"`
	IsMember          bool  `json:"isMember"`
	MyRole            *Role `json:"myRole"`
	HasPendingRequest bool  `json:"hasPendingRequest"`
}

// CommunityJoinRequest asks admins of a private community for membership.
type CommunityJoinRequest struct {
	ID          string        `json:"id"`
	CommunityID string        `json:"communityId"`
	UserID      string        `json:"userId"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty"`
}

// JoinRequestView is a join request with user and, when listed across
// communities, the community attached.
type JoinRequestView struct {
	CommunityJoinRequest
	User      *UserPublic `json:"user"`
	Community *Community  `json:"community,omitempty"`
}

// JoinRequestLists splits join requests into those the user administers and
// those the user sent.
type JoinRequestLists struct {
	Incoming []JoinRequestView `json:"incoming"`
	Outgoing []JoinRequestView `json:"outgoing"`
}

// JoinOutcome reports what RequestToJoinCommunity did. Exactly one of the
// flags is set, or Request is non-nil.
type JoinOutcome struct {
	AlreadyMember  bool                  `json:"alreadyMember,omitempty"`
	Joined         bool                  `json:"joined,omitempty"`
	AlreadyPending bool                  `json:"alreadyPending,omitempty"`
	Request        *CommunityJoinRequest `json:"request,omitempty"`
}
