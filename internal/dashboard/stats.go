// Package dashboard holds the per-user dashboard state: aggregate card
// statistics, the optimistic mutation controller used for visibility toggles
// and deletes, and the registry of live sessions.
package dashboard

import (
	"math"

	"github.com/iliyamo/carddash/internal/model"
)

// Stats is the derived summary shown above a user's card list.  It is never
// persisted and is always rebuilt from the full collection.
type Stats struct {
	Total     int     `json:"total"`
	Views     int64   `json:"views"`
	Likes     int64   `json:"likes"`
	AvgRating float64 `json:"avg_rating"`
}

// Aggregate computes Stats for a collection of cards.  It is a pure function:
// the result does not depend on card order and the input is not modified.
func Aggregate(cards []model.Card) Stats {
	var (
		s           Stats
		ratingSum   float64
		ratingCount int64
	)
	for i := range cards {
		c := &cards[i]
		s.Total++
		s.Views += c.ViewCount
		s.Likes += c.LikeCount
		if rated(c) {
			ratingSum += c.RatingAvg * float64(c.RatingCount)
			ratingCount += c.RatingCount
		}
	}
	if ratingCount > 0 {
		s.AvgRating = roundTenth(ratingSum / float64(ratingCount))
	}
	return s
}

// rated reports whether a card carries usable rating data.  A count without
// an average contributes nothing.
func rated(c *model.Card) bool {
	return c.RatingAvg > 0 && c.RatingCount > 0
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
