package state

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/pkg/utils"
)

// searchLimit caps SearchProfiles results.
const searchLimit = 20

func lessName(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// RegisterUser creates an account. The email is stored trimmed and
// lowercased and must be unique.
func (s *Store) RegisterUser(ctx context.Context, name, email, password string) (models.UserPublic, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return models.UserPublic{}, apperr.Validation("Email and password required")
	}
	err := s.view(ctx, func(d *Document) error {
		if d.userByEmail(email) != nil {
			return apperr.Conflict("Email already in use")
		}
		return nil
	})
	if err != nil {
		return models.UserPublic{}, err
	}
	if len(password) > utils.MaxPasswordBytes {
		return models.UserPublic{}, apperr.Validation("Password must be at most 72 bytes")
	}
	hash, err := utils.HashPasswordCost(password, s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return models.UserPublic{}, apperr.Validation("Password must be at most 72 bytes")
	}
	if err != nil {
		return models.UserPublic{}, apperr.Internal("Unable to create account", err)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if name == "" {
		name = "User"
	}

	var out models.UserPublic
	err = s.mutate(ctx, func(d *Document) error {
		if d.userByEmail(email) != nil {
			return apperr.Conflict("Email already in use")
		}
		u := &models.User{
			ID:           newID("user"),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Interests:    []string{},
			CreatedAt:    s.timestamp(),
		}
		d.Users = append(d.Users, u)
		out = u.ToPublic()
		return nil
	})
	if err != nil {
		return models.UserPublic{}, err
	}
	s.logger.Debug("user registered")
	return out, nil
}

// AuthenticateUser checks credentials and returns the matching user.
func (s *Store) AuthenticateUser(ctx context.Context, email, password string) (models.UserPublic, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return models.UserPublic{}, apperr.Auth("Invalid credentials")
	}
	var out models.UserPublic
	err := s.view(ctx, func(d *Document) error {
		u := d.userByEmail(email)
		if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
			return apperr.Auth("Invalid credentials")
		}
		out = u.ToPublic()
		return nil
	})
	return out, err
}

// GetUserByID returns the sanitized user.
func (s *Store) GetUserByID(ctx context.Context, id string) (models.UserPublic, error) {
	var out models.UserPublic
	err := s.view(ctx, func(d *Document) error {
		u := d.user(id)
		if u == nil {
			return apperr.NotFound("User not found")
		}
		out = u.ToPublic()
		return nil
	})
	return out, err
}

// UpdateUser merges the non-nil fields of patch and stamps updatedAt.
func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.UserPublic, error) {
	if id == "" {
		return models.UserPublic{}, apperr.Validation("Missing user")
	}
	var out models.UserPublic
	err := s.mutate(ctx, func(d *Document) error {
		u := d.user(id)
		if u == nil {
			return apperr.NotFound("User not found")
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.ClearAvatar {
			u.AvatarURI = nil
		} else if patch.AvatarURI != nil {
			v := *patch.AvatarURI
			u.AvatarURI = &v
		}
		if patch.Bio != nil {
			u.Bio = *patch.Bio
		}
		if patch.Interests != nil {
			u.Interests = append([]string{}, (*patch.Interests)...)
		}
		now := s.timestamp()
		u.UpdatedAt = &now
		out = u.ToPublic()
		return nil
	})
	return out, err
}

// SetUserAvatar sets the avatar URI; an empty uri clears it.
func (s *Store) SetUserAvatar(ctx context.Context, id, uri string) (models.UserPublic, error) {
	if uri == "" {
		return s.UpdateUser(ctx, id, models.UserPatch{ClearAvatar: true})
	}
	return s.UpdateUser(ctx, id, models.UserPatch{AvatarURI: &uri})
}

// SetUserPhone stores the trimmed phone number.
func (s *Store) SetUserPhone(ctx context.Context, id, phone string) (models.UserPublic, error) {
	phone = strings.TrimSpace(phone)
	return s.UpdateUser(ctx, id, models.UserPatch{Phone: &phone})
}

// UpdateUserProfile applies only the name, bio and interests of patch. A
// blank name is ignored.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, patch models.UserPatch) (models.UserPublic, error) {
	safe := models.UserPatch{Bio: patch.Bio, Interests: patch.Interests}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			safe.Name = &name
		}
	}
	return s.UpdateUser(ctx, id, safe)
}

// SearchProfiles matches query against "name email", case-insensitively.
func (s *Store) SearchProfiles(ctx context.Context, query, viewerID string) ([]models.UserPublic, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.UserPublic{}
	if q == "" {
		return out, nil
	}
	err := s.view(ctx, func(d *Document) error {
		var hits []*models.User
		for _, u := range d.Users {
			if u.ID == viewerID {
				continue
			}
			if strings.Contains(strings.ToLower(u.Name+" "+u.Email), q) {
				hits = append(hits, u)
			}
		}
		sort.SliceStable(hits, func(i, j int) bool { return lessName(hits[i].Name, hits[j].Name) })
		if len(hits) > searchLimit {
			hits = hits[:searchLimit]
		}
		for _, u := range hits {
			out = append(out, u.ToPublic())
		}
		return nil
	})
	return out, err
}

// MatchContacts returns users whose phone appears in numbers.
func (s *Store) MatchContacts(ctx context.Context, numbers []string, viewerID string) ([]models.ContactMatch, error) {
	set := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	out := []models.ContactMatch{}
	if len(set) == 0 {
		return out, nil
	}
	err := s.view(ctx, func(d *Document) error {
		for _, u := range d.Users {
			if u.ID == viewerID || u.Phone == "" {
				continue
			}
			if _, ok := set[u.Phone]; !ok {
				continue
			}
			m := models.ContactMatch{ID: u.ID, Name: u.Name, Phone: u.Phone}
			if u.AvatarURI != nil {
				v := *u.AvatarURI
				m.AvatarURI = &v
			}
			out = append(out, m)
		}
		sort.SliceStable(out, func(i, j int) bool { return lessName(out[i].Name, out[j].Name) })
		return nil
	})
	return out, err
}

// ListProfiles returns every user, newest first.
func (s *Store) ListProfiles(ctx context.Context) ([]models.UserPublic, error) {
	out := []models.UserPublic{}
	err := s.view(ctx, func(d *Document) error {
		for _, u := range d.Users {
			out = append(out, u.ToPublic())
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}
