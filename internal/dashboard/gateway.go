package dashboard

import (
	"context"
	"errors"

	"github.com/iliyamo/carddash/internal/model"
)

// Gateway is the authoritative store for cards and profiles.  All calls are
// scoped to the owning user.
type Gateway interface {
	// GetProfile returns nil, nil when the user has no profile.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// ListCards returns the user's cards, newest first.
	ListCards(ctx context.Context, userID string) ([]model.Card, error)
	UpdateCardVisibility(ctx context.Context, userID, cardID string, public bool) error
	DeleteCard(ctx context.Context, userID, cardID string) error
}

// Observer is told about loads and resolved mutations.  Implementations must
// not block for long; they run on the caller's goroutine after local state has
// been reconciled and cannot change the outcome.
type Observer interface {
	Loaded(userID string, cards int, err error)
	MutationResolved(ctx context.Context, userID string, m Mutation)
}

// NopObserver ignores every notification.  Embed it to implement only part
// of Observer.
type NopObserver struct{}

func (NopObserver) Loaded(string, int, error)                          {}
func (NopObserver) MutationResolved(context.Context, string, Mutation) {}

// Observers fans a notification out to several observers in order.
type Observers []Observer

func (o Observers) Loaded(userID string, cards int, err error) {
	for _, ob := range o {
		ob.Loaded(userID, cards, err)
	}
}

func (o Observers) MutationResolved(ctx context.Context, userID string, m Mutation) {
	for _, ob := range o {
		ob.MutationResolved(ctx, userID, m)
	}
}

var (
	// ErrUnauthenticated is returned for mutations without a current user.
	ErrUnauthenticated = errors.New("no current user")
	// ErrNotLoaded is returned when a mutation arrives before a successful load.
	ErrNotLoaded = errors.New("dashboard not loaded")
	// ErrCardNotInSession is returned when the card is not in the loaded collection.
	ErrCardNotInSession = errors.New("card not in dashboard")
	// ErrNoPendingDelete is returned by ConfirmDelete without a prior RequestDelete.
	ErrNoPendingDelete = errors.New("no delete pending")
	// ErrRolledBack wraps the Gateway error of a visibility change that was reverted.
	ErrRolledBack = errors.New("change was not saved")
	// ErrDeleteFailed wraps the Gateway error of a delete that left the card in place.
	ErrDeleteFailed = errors.New("card was not deleted")
)
