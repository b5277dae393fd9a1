package dashboard

import (
	"strings"
	"time"

	"github.com/iliyamo/carddash/internal/model"
)

// PlanFree is the default tier; it never expires.
const PlanFree = "free"

// Subscription is the plan view derived from a user's profile.
type Subscription struct {
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func subscriptionFrom(p *model.Profile) *Subscription {
	if p == nil {
		return nil
	}
	return &Subscription{Plan: p.Plan, ExpiresAt: p.ExpiresAt}
}

// Premium reports whether the plan is a paid tier.
func (s *Subscription) Premium() bool {
	if s == nil {
		return false
	}
	plan := strings.ToLower(strings.TrimSpace(s.Plan))
	return plan != "" && plan != PlanFree
}

// ExpiryWarning reports whether a premium plan has lapsed at now.  A plan
// expiring exactly at now is still valid.
func (s *Subscription) ExpiryWarning(now time.Time) bool {
	if !s.Premium() || s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}
