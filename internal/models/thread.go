package models

import "time"

// Thread is a discussion channel inside a community.
type Thread struct {
	ID             string    `json:"id"`
	CommunityID    string    `json:"communityId"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	IsAnnouncement bool      `json:"isAnnouncement"`
}

// ThreadSummary is a Thread with its message count.
type ThreadSummary struct {
	Thread
	MessageCount int `json:"messageCount"`
}

// ThreadMessage is one message posted to a thread.
type ThreadMessage struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageView is a ThreadMessage with its sender attached.
type MessageView struct {
	ThreadMessage
	User *UserPublic `json:"user"`
}
