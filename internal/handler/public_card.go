package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carddash/internal/model"
	"github.com/iliyamo/carddash/internal/queue"
	"github.com/iliyamo/carddash/internal/repository"
)

// PublicCardStore is the read side of CardRepo used by share links.
type PublicCardStore interface {
	GetPublicByID(ctx context.Context, id string) (model.PublicCard, error)
}

// PublicCardHandler serves share links and turns visitor actions into
// engagement events.  Counters are updated by the engagement consumer, never
// here.
type PublicCardHandler struct {
	Cards  PublicCardStore
	Events queue.EventPublisher
	Log    *slog.Logger
}

func NewPublicCardHandler(cards PublicCardStore, events queue.EventPublisher, log *slog.Logger) *PublicCardHandler {
	return &PublicCardHandler{Cards: cards, Events: events, Log: log}
}

// Get returns the sanitized card behind a share link.  Private and unknown
// cards are both 404.
func (h *PublicCardHandler) Get(c echo.Context) error {
	card, ok, err := h.lookup(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, card)
}

// CountView records a view after every successful card page, including ones
// served from the response cache.  Register it outside the cache middleware.
func (h *PublicCardHandler) CountView(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := next(c); err != nil {
			return err
		}
		if c.Response().Status != http.StatusOK {
			return nil
		}
		id := c.Param("id")
		ctx := context.WithoutCancel(c.Request().Context())
		if err := queue.RecordEngagement(ctx, h.Events, repository.EngagementView, id, 0); err != nil {
			h.Log.Warn("view event dropped", "card_id", id, "error", err)
		}
		return nil
	}
}

// Like records a like for a public card.
func (h *PublicCardHandler) Like(c echo.Context) error {
	card, ok, err := h.lookup(c)
	if !ok {
		return err
	}
	return h.record(c, repository.EngagementLike, card.ID, 0)
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// Rate records a 1 to 5 rating for a public card.
func (h *PublicCardHandler) Rate(c echo.Context) error {
	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	card, ok, err := h.lookup(c)
	if !ok {
		return err
	}
	return h.record(c, repository.EngagementRate, card.ID, req.Rating)
}

func (h *PublicCardHandler) record(c echo.Context, kind, cardID string, rating int) error {
	if err := queue.RecordEngagement(c.Request().Context(), h.Events, kind, cardID, rating); err != nil {
		h.Log.Error("engagement publish failed", "card_id", cardID, "type", kind, "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "try again later"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted"})
}

// canonicalID accepts only the lowercase hyphenated UUID form.  MySQL
// compares ids case-insensitively, so any other spelling would reach the same
// row under a cache key that purges never touch.
func canonicalID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

// lookup loads the public card named by :id.  When ok is false the response
// has been written and err is what the handler should return.
func (h *PublicCardHandler) lookup(c echo.Context) (model.PublicCard, bool, error) {
	id := c.Param("id")
	if !canonicalID(id) {
		return model.PublicCard{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "card not found"})
	}
	card, err := h.Cards.GetPublicByID(c.Request().Context(), id)
	switch {
	case err == nil:
		return card, true, nil
	case errors.Is(err, repository.ErrCardNotFound):
		return model.PublicCard{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "card not found"})
	default:
		h.Log.Error("public card lookup failed", "card_id", id, "error", err)
		return model.PublicCard{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
