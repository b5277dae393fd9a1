package model

import "time"

// Profile represents a row in the `profiles` table and carries the
// user's subscription tier.  A profile is read once per dashboard load
// and never mutated by the dashboard.
//
// Fields:
//   - UserID: primary key, the owning user.
//   - Plan: plan identifier (e.g. "free", "gold").
//   - ExpiresAt: when the plan lapses (nil for open-ended plans).
type Profile struct {
	UserID    string     // profiles.user_id
	Plan      string     // profiles.plan
	ExpiresAt *time.Time // profiles.plan_expires_at (nullable)
}
