package state

import (
	"encoding/json"
	"fmt"

	"github.com/huddle-app/backend/internal/models"
)

// Document is the persisted root object. Collections keep insertion order,
// which breaks ties in every sorted listing.
type Document struct {
	Users                   []*models.User                 `json:"users"`
	ContactRequests         []*models.ContactRequest       `json:"contactRequests"`
	Communities             []*models.Community            `json:"communities"`
	CommunityMembers        []*models.Membership           `json:"communityMembers"`
	CommunityJoinRequests   []*models.CommunityJoinRequest `json:"communityJoinRequests"`
	CommunityThreads        []*models.Thread               `json:"communityThreads"`
	ThreadMessages          []*models.ThreadMessage        `json:"threadMessages"`
	CommunityEvents         []*models.Event                `json:"communityEvents"`
	CommunityEventResponses []*models.EventResponse        `json:"communityEventResponses"`
}

// Collections lists the top-level keys of a complete document.
var Collections = []string{
	"users",
	"contactRequests",
	"communities",
	"communityMembers",
	"communityJoinRequests",
	"communityThreads",
	"threadMessages",
	"communityEvents",
	"communityEventResponses",
}

// decodeDocument parses raw and reports which collections were absent or
// null. It fails when raw is not a JSON object.
func decodeDocument(raw []byte) (*Document, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("decode document: %w", err)
	}
	if fields == nil {
		return nil, nil, fmt.Errorf("decode document: not an object")
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode document: %w", err)
	}
	var missing []string
	for _, key := range Collections {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			missing = append(missing, key)
		}
	}
	doc.normalize()
	return &doc, missing, nil
}

func encodeDocument(doc *Document) ([]byte, error) {
	doc.normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

// normalize replaces nil collections with empty ones so they encode as []
// and drops null entries.
func (d *Document) normalize() {
	d.Users = compact(d.Users)
	d.ContactRequests = compact(d.ContactRequests)
	d.Communities = compact(d.Communities)
	d.CommunityMembers = compact(d.CommunityMembers)
	d.CommunityJoinRequests = compact(d.CommunityJoinRequests)
	d.CommunityThreads = compact(d.CommunityThreads)
	d.ThreadMessages = compact(d.ThreadMessages)
	d.CommunityEvents = compact(d.CommunityEvents)
	d.CommunityEventResponses = compact(d.CommunityEventResponses)
}

// compact returns a non-nil slice with null entries dropped.
func compact[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// backfill copies the named collections from defaults.
func (d *Document) backfill(defaults *Document, keys []string) {
	for _, key := range keys {
		switch key {
		case "users":
			d.Users = defaults.Users
		case "contactRequests":
			d.ContactRequests = defaults.ContactRequests
		case "communities":
			d.Communities = defaults.Communities
		case "communityMembers":
			d.CommunityMembers = defaults.CommunityMembers
		case "communityJoinRequests":
			d.CommunityJoinRequests = defaults.CommunityJoinRequests
		case "communityThreads":
			d.CommunityThreads = defaults.CommunityThreads
		case "threadMessages":
			d.ThreadMessages = defaults.ThreadMessages
		case "communityEvents":
			d.CommunityEvents = defaults.CommunityEvents
		case "communityEventResponses":
			d.CommunityEventResponses = defaults.CommunityEventResponses
		}
	}
}

func (d *Document) user(id string) *models.User {
	if id == "" {
		return nil
	}
	for _, u := range d.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (d *Document) userByEmail(email string) *models.User {
	for _, u := range d.Users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// publicUser returns the sanitized user or nil when id is unknown.
func (d *Document) publicUser(id string) *models.UserPublic {
	u := d.user(id)
	if u == nil {
		return nil
	}
	p := u.ToPublic()
	return &p
}

func (d *Document) community(id string) *models.Community {
	for _, c := range d.Communities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (d *Document) membership(communityID, userID string) *models.Membership {
	for _, m := range d.CommunityMembers {
		if m.CommunityID == communityID && m.UserID == userID {
			return m
		}
	}
	return nil
}

func (d *Document) isAdmin(communityID, userID string) bool {
	m := d.membership(communityID, userID)
	return m != nil && m.Role.IsAdmin()
}

func (d *Document) memberCount(communityID string) int {
	n := 0
	for _, m := range d.CommunityMembers {
		if m.CommunityID == communityID {
			n++
		}
	}
	return n
}

func (d *Document) pendingJoinRequest(communityID, userID string) *models.CommunityJoinRequest {
	for _, r := range d.CommunityJoinRequests {
		if r.CommunityID == communityID && r.UserID == userID && r.Status == models.StatusPending {
			return r
		}
	}
	return nil
}

func (d *Document) thread(id string) *models.Thread {
	for _, t := range d.CommunityThreads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (d *Document) event(id string) *models.Event {
	for _, e := range d.CommunityEvents {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (d *Document) summary(c *models.Community, viewerID string) models.CommunitySummary {
	out := models.CommunitySummary{
		Community:   *c,
		MemberCount: d.memberCount(c.ID),
	}
	if m := d.membership(c.ID, viewerID); m != nil {
		role := m.Role
		out.IsMember = true
		out.MyRole = &role
	}
	out.HasPendingRequest = d.pendingJoinRequest(c.ID, viewerID) != nil
	return out
}
