// Package repository contains data access logic separated from HTTP handlers.
// This file defines the card repository. A card belongs to exactly one owner
// and carries engagement counters that are only ever changed by the
// engagement consumer, never by the dashboard.
package repository

import (
	"context"      // context carries deadlines to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors.Is for sql.ErrNoRows checks
	"fmt"

	"github.com/iliyamo/carddash/internal/model"
)

// Engagement kinds understood by ApplyEngagement.
const (
	EngagementView = "view"
	EngagementLike = "like"
	EngagementRate = "rate"
)

// cardColumns normalises nullable columns: missing counters read as zero
// and a missing visibility flag reads as public.
const cardColumns = `id, owner_id, name, profession, avatar_url,
	COALESCE(is_public, TRUE), COALESCE(view_count, 0), COALESCE(like_count, 0),
	COALESCE(rating_avg, 0), COALESCE(rating_count, 0), created_at`

// CardRepo encapsulates all database queries related to cards.  It
// depends on a sql.DB connection which should be configured elsewhere.
type CardRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCardRepo constructs a CardRepo with the provided DB handle.
func NewCardRepo(db *sql.DB) *CardRepo {
	return &CardRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (model.Card, error) {
	var (
		c      model.Card
		avatar sql.NullString
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Profession, &avatar,
		&c.IsPublic, &c.ViewCount, &c.LikeCount, &c.RatingAvg, &c.RatingCount, &c.CreatedAt); err != nil {
		return model.Card{}, err
	}
	if avatar.Valid {
		c.AvatarURL = &avatar.String
	}
	return c, nil
}

// ListByOwner returns all cards for a specific owner, newest first.
func (r *CardRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Card, error) {
	q := `SELECT ` + cardColumns + `
	      FROM cards WHERE owner_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPublicByID fetches a card for its share link.  Private cards are
// reported as ErrCardNotFound so their existence is not revealed.
func (r *CardRepo) GetPublicByID(ctx context.Context, id string) (model.PublicCard, error) {
	q := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`
	c, err := scanCard(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PublicCard{}, ErrCardNotFound
		}
		return model.PublicCard{}, err
	}
	if !c.IsPublic {
		return model.PublicCard{}, ErrCardNotFound
	}
	return model.PublicCard{
		ID:          c.ID,
		Name:        c.Name,
		Profession:  c.Profession,
		AvatarURL:   c.AvatarURL,
		LikeCount:   c.LikeCount,
		RatingAvg:   c.RatingAvg,
		RatingCount: c.RatingCount,
	}, nil
}

// UpdateVisibility sets the public flag of a card owned by ownerID.  It
// returns ErrCardNotFound when the card does not exist and ErrForbidden when
// it belongs to someone else.
func (r *CardRepo) UpdateVisibility(ctx context.Context, id, ownerID string, public bool) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if err = checkOwner(ctx, tx, id, ownerID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE cards SET is_public = ? WHERE id = ? AND owner_id = ?`, public, id, ownerID)
	return err
}

// DeleteByIDAndOwner removes a card provided it belongs to the specified
// owner. If the card does not exist, ErrCardNotFound is returned. If the card
// exists but is owned by a different user, ErrForbidden is returned. The
// deletion occurs within a transaction so the ownership check and the delete
// see the same row.
func (r *CardRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if err = checkOwner(ctx, tx, id, ownerID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID)
	return err
}

// checkOwner locks the card row and verifies ownership.
func checkOwner(ctx context.Context, tx *sql.Tx, id, ownerID string) error {
	var dbOwnerID string
	if err := tx.QueryRowContext(ctx, `SELECT owner_id FROM cards WHERE id = ? FOR UPDATE`, id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCardNotFound
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

// ApplyEngagement records a view, like or rating against a card.  Ratings
// fold into the running mean; MySQL evaluates SET assignments left to right,
// so rating_avg is computed from the old rating_count.
func (r *CardRepo) ApplyEngagement(ctx context.Context, id, kind string, rating int) error {
	var (
		q    string
		args []any
	)
	switch kind {
	case EngagementView:
		q = `UPDATE cards SET view_count = COALESCE(view_count, 0) + 1 WHERE id = ?`
		args = []any{id}
	case EngagementLike:
		q = `UPDATE cards SET like_count = COALESCE(like_count, 0) + 1 WHERE id = ?`
		args = []any{id}
	case EngagementRate:
		if rating < 1 || rating > 5 {
			return fmt.Errorf("%w: %d", ErrRatingOutOfRange, rating)
		}
		q = `UPDATE cards
		     SET rating_avg = (COALESCE(rating_avg, 0) * COALESCE(rating_count, 0) + ?) / (COALESCE(rating_count, 0) + 1),
		         rating_count = COALESCE(rating_count, 0) + 1
		     WHERE id = ?`
		args = []any{rating, id}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngagement, kind)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCardNotFound
	}
	return nil
}
