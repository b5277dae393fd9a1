package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/carddash/internal/model"
)

// Gateway exposes the card and profile repositories through the owner-scoped
// calls the dashboard consumes.
type Gateway struct {
	Cards    *CardRepo
	Profiles *ProfileRepo
}

// NewGateway wires both repositories onto one DB pool.
func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{Cards: NewCardRepo(db), Profiles: NewProfileRepo(db)}
}

func (g *Gateway) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return g.Profiles.GetByUserID(ctx, userID)
}

func (g *Gateway) ListCards(ctx context.Context, userID string) ([]model.Card, error) {
	return g.Cards.ListByOwner(ctx, userID)
}

func (g *Gateway) UpdateCardVisibility(ctx context.Context, userID, cardID string, public bool) error {
	return g.Cards.UpdateVisibility(ctx, cardID, userID, public)
}

func (g *Gateway) DeleteCard(ctx context.Context, userID, cardID string) error {
	return g.Cards.DeleteByIDAndOwner(ctx, cardID, userID)
}
