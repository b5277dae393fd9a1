package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/carddash/internal/model"
)

// ProfileRepo reads subscription data from the profiles table.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// GetByUserID fetches a profile.  It returns nil, nil when the user has none.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		p   model.Profile
		exp sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, COALESCE(plan, 'free'), plan_expires_at FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &p.Plan, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if exp.Valid {
		t := exp.Time.UTC()
		p.ExpiresAt = &t
	}
	return &p, nil
}
