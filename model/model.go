// Package model defines the row types exchanged with the backend and the
// aggregates derived from them on the client.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Place is a reviewable location on the map.
type Place struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a user's rating of a place, optionally shared with a group.
// An empty GroupID means the review is visible outside any group.
type Review struct {
	ID        string    `json:"id"`
	PlaceID   string    `json:"place_id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	PhotoURLs []string  `json:"photo_urls,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a shared collection of reviews, joined via invite code.
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// GroupMember is one user's membership in a group.
type GroupMember struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ReviewSummary is the derived rating aggregate for a place within a scope.
type ReviewSummary struct {
	PlaceID       string          `json:"place_id"`
	ReviewCount   int             `json:"review_count"`
	AverageRating decimal.Decimal `json:"average_rating"`
}

// PlaceWithReviews pairs a place with its rating summary for list screens.
type PlaceWithReviews struct {
	Place   Place         `json:"place"`
	Summary ReviewSummary `json:"summary"`
}

// SummarizeReviews derives the rating aggregate for placeID from reviews.
// The average is rounded to two decimal places; an empty list yields a
// zero average rather than dividing by zero.
func SummarizeReviews(placeID string, reviews []Review) ReviewSummary {
	summary := ReviewSummary{
		PlaceID:       placeID,
		ReviewCount:   len(reviews),
		AverageRating: decimal.Zero,
	}
	if len(reviews) == 0 {
		return summary
	}

	var total int64
	for _, r := range reviews {
		total += int64(r.Rating)
	}
	summary.AverageRating = decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(2)
	return summary
}
