package models

import (
	"time"
)

// User is the persisted user record. PasswordHash is a bcrypt hash and never
// leaves the store; callers receive UserPublic.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash"`
	Phone        string     `json:"phone"`
	AvatarURI    *string    `json:"avatarUri"`
	Bio          string     `json:"bio"`
	Interests    []string   `json:"interests"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	AvatarURI *string    `json:"avatarUri"`
	Bio       string     `json:"bio"`
	Interests []string   `json:"interests"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ToPublic converts User to UserPublic. Interests is never nil.
func (u *User) ToPublic() UserPublic {
	interests := make([]string, len(u.Interests))
	copy(interests, u.Interests)
	var avatar *string
	if u.AvatarURI != nil {
		v := *u.AvatarURI
		avatar = &v
	}
	return UserPublic{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarURI: avatar,
		Bio:       u.Bio,
		Interests: interests,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserPatch lists the mutable user fields; nil means unchanged.
type UserPatch struct {
	Name      *string   `json:"name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURI *string   `json:"avatarUri,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	Interests *[]string `json:"interests,omitempty"`

	// ClearAvatar resets AvatarURI to null.
	ClearAvatar bool `json:"-"`
}

// ContactMatch is the reduced user shape returned by contact matching.
type ContactMatch struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	AvatarURI *string `json:"avatarUri"`
}
