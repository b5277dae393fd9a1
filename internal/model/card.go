package model

import "time"

// Card represents one digital business card owned by a user.  This
// struct corresponds to a row in the `cards` table.  Counter columns are
// nullable in storage; the repository normalises missing values to zero
// and a missing visibility flag to public before a Card is built.
//
// Fields:
//   - ID: stable identifier (UUID string).
//   - OwnerID: user ID of the card owner.
//   - Name: display name printed on the card.
//   - Profession: profession or job title.
//   - AvatarURL: optional avatar image reference.
//   - IsPublic: whether the card can be viewed through its share link.
//   - ViewCount: number of public views, maintained by the backend.
//   - LikeCount: number of likes, maintained by the backend.
//   - RatingAvg: mean rating given by visitors.
//   - RatingCount: number of ratings contributing to RatingAvg.
//   - CreatedAt: timestamp when the card was created.
type Card struct {
	ID          string    `json:"id"`           // cards.id
	OwnerID     string    `json:"owner_id"`     // cards.owner_id
	Name        string    `json:"name"`         // cards.name
	Profession  string    `json:"profession"`   // cards.profession
	AvatarURL   *string   `json:"avatar_url"`   // cards.avatar_url (nullable)
	IsPublic    bool      `json:"is_public"`    // cards.is_public (NULL means public)
	ViewCount   int64     `json:"view_count"`   // cards.view_count
	LikeCount   int64     `json:"like_count"`   // cards.like_count
	RatingAvg   float64   `json:"rating_avg"`   // cards.rating_avg
	RatingCount int64     `json:"rating_count"` // cards.rating_count
	CreatedAt   time.Time `json:"created_at"`   // cards.created_at
}

// PublicCard is the sanitized view of a card served through its share link.
// Owner identity and counters other than likes and rating are not exposed.
type PublicCard struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Profession  string  `json:"profession"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	LikeCount   int64   `json:"like_count"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int64   `json:"rating_count"`
}
