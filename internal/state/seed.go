package state

import (
	"time"

	"github.com/huddle-app/backend/internal/apperr"
	"github.com/huddle-app/backend/internal/models"
	"github.com/huddle-app/backend/pkg/utils"
)

// SeedPassword is the password of every seeded user.
const SeedPassword = "password123"

// Seeded record ids.
const (
	SeedUserAisha              = "user-aisha"
	SeedUserRohan              = "user-rohan"
	SeedUserSofia              = "user-sofia"
	SeedCommunityDesiFoodies   = "community-desi-foodies"
	SeedCommunityProductMakers = "community-product-makers"
	SeedThreadFoodiesGeneral   = "thread-foodies-general"
	SeedThreadFoodiesRecipes   = "thread-foodies-recipes"
	SeedThreadMakersNews       = "thread-makers-announcements"
	SeedJoinRequestAisha       = "cjr-1"
	SeedEventThaliNight        = "event-1"
)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func (s *Store) seedPasswordHash() (string, error) {
	s.seedOnce.Do(func() {
		s.seedHash, s.seedErr = utils.HashPasswordCost(SeedPassword, s.cost)
	})
	return s.seedHash, s.seedErr
}

// seed builds a fresh copy of the initial dataset.
func (s *Store) seed() (*Document, error) {
	hash, err := s.seedPasswordHash()
	if err != nil {
		return nil, apperr.Internal("Unable to prepare data", err)
	}

	doc := &Document{
		Users: []*models.User{
			{
				ID:           SeedUserAisha,
				Name:         "Aisha Khan",
				Email:        "aisha@example.com",
				PasswordHash: hash,
				Phone:        "+14155550101",
				Bio:          "Community organizer and chai enthusiast.",
				Interests:    []string{"community", "chai", "travel"},
				CreatedAt:    at(2024, time.January, 2, 9, 30),
			},
			{
				ID:           SeedUserRohan,
				Name:         "Rohan Patel",
				Email:        "rohan@example.com",
				PasswordHash: hash,
				Phone:        "+14155550102",
				Bio:          "Product designer exploring social apps.",
				Interests:    []string{"design", "music"},
				CreatedAt:    at(2024, time.February, 14, 14, 15),
			},
			{
				ID:           SeedUserSofia,
				Name:         "Sofia Das",
				Email:        "sofia@example.com",
				PasswordHash: hash,
				Phone:        "+14155550103",
				Bio:          "Engineer by day, foodie by night.",
				Interests:    []string{"engineering", "food", "travel"},
				CreatedAt:    at(2024, time.April, 8, 19, 5),
			},
		},
		ContactRequests: []*models.ContactRequest{},
		Communities: []*models.Community{
			{
				ID:          SeedCommunityDesiFoodies,
				Name:        "Desi Foodies",
				Description: "Swap recipes, recommend restaurants, and plan food crawls.",
				OwnerID:     SeedUserSofia,
				IsPrivate:   false,
				BannerColor: "#f97316",
				CreatedAt:   at(2024, time.March, 10, 12, 0),
			},
			{
				ID:          SeedCommunityProductMakers,
				Name:        "Product Makers",
				Description: "A hangout for designers and builders to jam on ideas.",
				OwnerID:     SeedUserRohan,
				IsPrivate:   true,
				BannerColor: "#6366f1",
				CreatedAt:   at(2024, time.May, 5, 18, 30),
			},
		},
		CommunityMembers: []*models.Membership{
			{ID: "cm-1", CommunityID: SeedCommunityDesiFoodies, UserID: SeedUserSofia, Role: models.RoleOwner, JoinedAt: at(2024, time.March, 10, 12, 5)},
			{ID: "cm-2", CommunityID: SeedCommunityDesiFoodies, UserID: SeedUserAisha, Role: models.RoleModerator, JoinedAt: at(2024, time.March, 10, 13, 0)},
			{ID: "cm-3", CommunityID: SeedCommunityProductMakers, UserID: SeedUserRohan, Role: models.RoleOwner, JoinedAt: at(2024, time.May, 5, 18, 31)},
		},
		CommunityJoinRequests: []*models.CommunityJoinRequest{
			{
				ID:          SeedJoinRequestAisha,
				CommunityID: SeedCommunityProductMakers,
				UserID:      SeedUserAisha,
				Status:      models.StatusPending,
				CreatedAt:   at(2024, time.June, 1, 9, 45),
			},
		},
		CommunityThreads: []*models.Thread{
			{
				ID:          SeedThreadFoodiesGeneral,
				CommunityID: SeedCommunityDesiFoodies,
				Name:        "General",
				Description: "Daily chatter and introductions.",
				CreatedBy:   SeedUserSofia,
				CreatedAt:   at(2024, time.March, 10, 12, 15),
			},
			{
				ID:          SeedThreadFoodiesRecipes,
				CommunityID: SeedCommunityDesiFoodies,
				Name:        "Recipes",
				Description: "Share and request recipes.",
				CreatedBy:   SeedUserAisha,
				CreatedAt:   at(2024, time.March, 11, 9, 0),
			},
			{
				ID:             SeedThreadMakersNews,
				CommunityID:    SeedCommunityProductMakers,
				Name:           "Announcements",
				Description:    "Important updates from the team.",
				CreatedBy:      SeedUserRohan,
				CreatedAt:      at(2024, time.May, 5, 18, 35),
				IsAnnouncement: true,
			},
		},
		ThreadMessages: []*models.ThreadMessage{
			{
				ID:        "msg-1",
				ThreadID:  SeedThreadFoodiesGeneral,
				UserID:    SeedUserSofia,
				Text:      "Welcome to Desi Foodies! Drop your favorite recipes.",
				CreatedAt: at(2024, time.March, 10, 12, 16),
			},
			{
				ID:        "msg-2",
				ThreadID:  SeedThreadFoodiesGeneral,
				UserID:    SeedUserAisha,
				Text:      "Hi all! Planning a Mumbai street food crawl this weekend if anyone wants in.",
				CreatedAt: at(2024, time.March, 12, 10, 10),
			},
			{
				ID:        "msg-3",
				ThreadID:  SeedThreadFoodiesRecipes,
				UserID:    SeedUserAisha,
				Text:      "Sharing my quick pav bhaji recipe—perfect for a rainy day!",
				CreatedAt: at(2024, time.March, 12, 11, 45),
			},
		},
		CommunityEvents: []*models.Event{
			{
				ID:          SeedEventThaliNight,
				CommunityID: SeedCommunityDesiFoodies,
				CreatedBy:   SeedUserAisha,
				Title:       "Virtual Thali Night",
				Description: "Cook together over a video call and compare plates.",
				StartsAt:    at(2024, time.July, 15, 19, 0),
				Location:    "Online",
				Visibility:  "public",
				CreatedAt:   at(2024, time.June, 20, 9, 0),
			},
		},
		CommunityEventResponses: []*models.EventResponse{},
	}
	return doc, nil
}
