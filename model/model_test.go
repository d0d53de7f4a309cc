package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSummarizeReviews(t *testing.T) {
	tests := []struct {
		name        string
		ratings     []int
		wantCount   int
		wantAverage string
	}{
		{"empty", nil, 0, "0"},
		{"single", []int{4}, 1, "4"},
		{"even split", []int{3, 5}, 2, "4"},
		{"repeating fraction", []int{5, 4, 4}, 3, "4.33"},
		{"rounds half up", []int{4, 5}, 2, "4.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]Review, len(tt.ratings))
			for i, r := range tt.ratings {
				reviews[i] = Review{PlaceID: "p1", Rating: r}
			}

			got := SummarizeReviews("p1", reviews)
			if got.PlaceID != "p1" {
				t.Errorf("PlaceID = %q, want p1", got.PlaceID)
			}
			if got.ReviewCount != tt.wantCount {
				t.Errorf("ReviewCount = %d, want %d", got.ReviewCount, tt.wantCount)
			}
			want, err := decimal.NewFromString(tt.wantAverage)
			if err != nil {
				t.Fatalf("bad expectation %q: %v", tt.wantAverage, err)
			}
			if !got.AverageRating.Equal(want) {
				t.Errorf("AverageRating = %s, want %s", got.AverageRating, want)
			}
		})
	}
}
