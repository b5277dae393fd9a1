// Package repository defines error types that are reused across the
// repositories. These sentinel values allow higher layers such as the
// dashboard and the HTTP handlers to distinguish between different failure
// scenarios. ErrForbidden indicates that the current user is not the owner
// of the card they tried to change, while ErrCardNotFound signals that no
// card with the given id exists at all.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a card they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrCardNotFound is returned when a card cannot be found in the DB, or
// when a public lookup hits a private card.
var ErrCardNotFound = errors.New("card not found")

// ErrUnknownEngagement is returned by ApplyEngagement for an event type it
// does not understand.
var ErrUnknownEngagement = errors.New("unknown engagement type")

// ErrRatingOutOfRange is returned by ApplyEngagement for ratings outside 1..5.
var ErrRatingOutOfRange = errors.New("rating out of range")
