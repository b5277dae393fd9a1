// Package handler exposes the HTTP handlers for the dashboard and for the
// public card pages.  Handlers translate dashboard and repository errors into
// status codes; they hold no state of their own.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carddash/internal/dashboard"
	"github.com/iliyamo/carddash/internal/middleware"
)

// DashboardHandler serves the signed-in user's dashboard out of a Registry.
type DashboardHandler struct {
	Registry     *dashboard.Registry
	ShareBaseURL string
	Log          *slog.Logger
}

func NewDashboardHandler(reg *dashboard.Registry, shareBaseURL string, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{Registry: reg, ShareBaseURL: shareBaseURL, Log: log}
}

// Get (re)loads the caller's session and returns its snapshot.  Anonymous
// callers get an empty dashboard.
func (h *DashboardHandler) Get(c echo.Context) error {
	s := h.Registry.Session(middleware.UserID(c))
	if err := s.Load(c.Request().Context()); err != nil {
		h.Log.Error("dashboard load failed", "user_id", s.UserID(), "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not load dashboard", "loading": false})
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

// ToggleVisibility flips a card between public and private.
func (h *DashboardHandler) ToggleVisibility(c echo.Context) error {
	id, s, err := h.target(c)
	if err != nil {
		return mutationError(c, err)
	}
	m, err := s.ToggleVisibility(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"mutation": m, "dashboard": s.Snapshot()})
	case errors.Is(err, dashboard.ErrRolledBack):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     dashboard.ErrRolledBack.Error(),
			"mutation":  m,
			"dashboard": s.Snapshot(),
		})
	default:
		return mutationError(c, err)
	}
}

// RequestDelete marks a card for deletion; nothing is removed until the
// delete is confirmed.
func (h *DashboardHandler) RequestDelete(c echo.Context) error {
	id, s, err := h.target(c)
	if err != nil {
		return mutationError(c, err)
	}
	if err := s.RequestDelete(id); err != nil {
		return mutationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"pending_delete": id})
}

// ConfirmDelete deletes the pending card.
func (h *DashboardHandler) ConfirmDelete(c echo.Context) error {
	s, ok := h.Registry.Lookup(middleware.UserID(c))
	if !ok {
		return mutationError(c, dashboard.ErrNotLoaded)
	}
	m, err := s.ConfirmDelete(c.Request().Context())
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"mutation": m, "dashboard": s.Snapshot()})
	case errors.Is(err, dashboard.ErrDeleteFailed):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":     dashboard.ErrDeleteFailed.Error(),
			"mutation":  m,
			"dashboard": s.Snapshot(),
		})
	default:
		return mutationError(c, err)
	}
}

// CancelDelete clears the pending delete, if any.
func (h *DashboardHandler) CancelDelete(c echo.Context) error {
	s, ok := h.Registry.Lookup(middleware.UserID(c))
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	s.CancelDelete()
	return c.JSON(http.StatusOK, s.Snapshot())
}

// Share returns the public link of a loaded card.  The QR payload is the
// link itself; rendering it is left to the client.
func (h *DashboardHandler) Share(c echo.Context) error {
	id, s, err := h.target(c)
	if err != nil {
		return mutationError(c, err)
	}
	card, err := s.Card(id)
	if err != nil {
		return mutationError(c, err)
	}
	link := dashboard.ShareURL(h.ShareBaseURL, card.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"url":        link,
		"qr_payload": link,
		"is_public":  card.IsPublic,
	})
}

// Forget drops the caller's session.
func (h *DashboardHandler) Forget(c echo.Context) error {
	h.Registry.Forget(middleware.UserID(c))
	return c.NoContent(http.StatusNoContent)
}

var errInvalidCardID = errors.New("invalid card id")

// target validates the :id parameter and finds the caller's loaded session.
func (h *DashboardHandler) target(c echo.Context) (string, *dashboard.Session, error) {
	id := c.Param("id")
	if !canonicalID(id) {
		return "", nil, errInvalidCardID
	}
	s, ok := h.Registry.Lookup(middleware.UserID(c))
	if !ok {
		return "", nil, dashboard.ErrNotLoaded
	}
	return id, s, nil
}

func mutationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errInvalidCardID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, dashboard.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, dashboard.ErrNotLoaded), errors.Is(err, dashboard.ErrNoPendingDelete):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, dashboard.ErrCardNotInSession):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
