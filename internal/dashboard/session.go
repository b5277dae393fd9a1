package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/carddash/internal/model"
)

// Snapshot is the presentation view of a session at one instant.  Stats is
// nil until a load succeeds, so a failed fetch never renders stale numbers.
type Snapshot struct {
	Loading       bool          `json:"loading"`
	Cards         []model.Card  `json:"cards"`
	Stats         *Stats        `json:"stats,omitempty"`
	Subscription  *Subscription `json:"subscription,omitempty"`
	ExpiryWarning bool          `json:"expiry_warning"`
	PendingDelete string        `json:"pending_delete,omitempty"`
	InFlight      []string      `json:"in_flight,omitempty"`
}

// Session owns one user's in-memory copy of their cards and statistics.  The
// Gateway is the source of truth; local state is only known to match it right
// after a successful round trip.
//
// The mutex guards local state and is never held across a Gateway call.
type Session struct {
	userID string
	gw     Gateway
	obs    Observer
	log    *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	loading       bool
	loaded        bool
	cards         []model.Card
	stats         Stats
	sub           *Subscription
	pendingDelete string
	mutations     map[string]*Mutation
	lastSeen      time.Time
}

// NewSession builds a session for userID.  An empty userID yields an
// unauthenticated session that never talks to the Gateway.
func NewSession(userID string, gw Gateway, opts ...Option) *Session {
	cfg := newOptions(opts)
	return &Session{
		userID:    userID,
		gw:        gw,
		obs:       cfg.observer,
		log:       cfg.logger,
		now:       cfg.now,
		loading:   userID != "",
		mutations: make(map[string]*Mutation),
		lastSeen:  cfg.now(),
	}
}

// UserID returns the session owner.
func (s *Session) UserID() string { return s.userID }

// Load fetches the profile and card collection and recomputes statistics.
// On failure the previous collection is dropped rather than shown stale.
// A missing or failing profile only hides the subscription section.
func (s *Session) Load(ctx context.Context) error {
	if s.userID == "" {
		s.mu.Lock()
		s.loading = false
		s.loaded = true
		s.lastSeen = s.now()
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.loading = true
	s.lastSeen = s.now()
	s.mu.Unlock()

	profile, perr := s.gw.GetProfile(ctx, s.userID)
	if perr != nil {
		s.log.Warn("profile fetch failed", "user_id", s.userID, "error", perr)
		profile = nil
	}

	cards, err := s.gw.ListCards(ctx, s.userID)
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.loaded = false
		s.cards = nil
		s.stats = Stats{}
		s.sub = nil
		s.pendingDelete = ""
		s.mu.Unlock()
		s.obs.Loaded(s.userID, 0, err)
		return fmt.Errorf("list cards: %w", err)
	}
	s.loaded = true
	s.cards = cards
	s.stats = Aggregate(cards)
	s.sub = subscriptionFrom(profile)
	s.pendingDelete = ""
	s.mutations = make(map[string]*Mutation)
	s.mu.Unlock()

	s.obs.Loaded(s.userID, len(cards), nil)
	return nil
}

// ToggleVisibility flips a card's public flag locally, asks the Gateway to
// persist it and reverts the local flag if the Gateway refuses.  The returned
// Mutation is in a terminal state.  A rolled back toggle returns an error
// wrapping ErrRolledBack; the session stays usable.
func (s *Session) ToggleVisibility(ctx context.Context, cardID string) (Mutation, error) {
	s.mu.Lock()
	idx, err := s.locateLocked(cardID)
	if err != nil {
		s.mu.Unlock()
		return Mutation{}, err
	}
	m := &Mutation{
		CardID:   cardID,
		Kind:     KindVisibility,
		Previous: s.cards[idx].IsPublic,
		Next:     !s.cards[idx].IsPublic,
		IssuedAt: s.now(),
	}
	s.cards[idx].IsPublic = m.Next
	m.apply()
	s.mutations[cardID] = m
	s.mu.Unlock()

	// Issued mutations always run to completion.
	remoteErr := s.gw.UpdateCardVisibility(context.WithoutCancel(ctx), s.userID, cardID, m.Next)

	s.mu.Lock()
	m.resolve(remoteErr)
	if m.State == MutationRolledBack {
		if i := s.indexLocked(cardID); i >= 0 {
			s.cards[i].IsPublic = m.Previous
		}
	}
	out := *m
	s.mu.Unlock()

	s.obs.MutationResolved(ctx, s.userID, out)
	if remoteErr != nil {
		s.log.Warn("visibility change rolled back", "user_id", s.userID, "card_id", cardID, "error", remoteErr)
		return out, fmt.Errorf("%w: %w", ErrRolledBack, remoteErr)
	}
	return out, nil
}

// RequestDelete marks a card as awaiting delete confirmation.  A later
// request replaces an earlier one.
func (s *Session) RequestDelete(cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.locateLocked(cardID); err != nil {
		return err
	}
	s.pendingDelete = cardID
	return nil
}

// CancelDelete clears any pending delete.
func (s *Session) CancelDelete() {
	s.mu.Lock()
	s.pendingDelete = ""
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// ConfirmDelete deletes the pending card.  The Gateway is asked first; only
// when it succeeds is the card removed locally and the statistics rebuilt.
// On failure the collection is untouched and the error wraps ErrDeleteFailed.
// The pending mark is cleared either way.
func (s *Session) ConfirmDelete(ctx context.Context) (Mutation, error) {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return Mutation{}, ErrUnauthenticated
	}
	cardID := s.pendingDelete
	if cardID == "" {
		s.mu.Unlock()
		return Mutation{}, ErrNoPendingDelete
	}
	m := &Mutation{CardID: cardID, Kind: KindDelete, IssuedAt: s.now()}
	s.mutations[cardID] = m
	s.lastSeen = s.now()
	s.mu.Unlock()

	remoteErr := s.gw.DeleteCard(context.WithoutCancel(ctx), s.userID, cardID)

	s.mu.Lock()
	m.resolve(remoteErr)
	if m.State == MutationConfirmed {
		if i := s.indexLocked(cardID); i >= 0 {
			next := make([]model.Card, 0, len(s.cards)-1)
			next = append(next, s.cards[:i]...)
			s.cards = append(next, s.cards[i+1:]...)
			s.stats = Aggregate(s.cards)
		}
	}
	if s.pendingDelete == cardID {
		s.pendingDelete = ""
	}
	out := *m
	s.mu.Unlock()

	s.obs.MutationResolved(ctx, s.userID, out)
	if remoteErr != nil {
		s.log.Warn("card delete failed", "user_id", s.userID, "card_id", cardID, "error", remoteErr)
		return out, fmt.Errorf("%w: %w", ErrDeleteFailed, remoteErr)
	}
	return out, nil
}

// Card returns a copy of a loaded card.
func (s *Session) Card(cardID string) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.locateLocked(cardID)
	if err != nil {
		return model.Card{}, err
	}
	return s.cards[idx], nil
}

// Snapshot copies the current state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Loading:       s.loading,
		Cards:         make([]model.Card, len(s.cards)),
		PendingDelete: s.pendingDelete,
	}
	copy(snap.Cards, s.cards)
	if s.loaded && s.userID != "" {
		st := s.stats
		snap.Stats = &st
		if s.sub != nil {
			sub := *s.sub
			snap.Subscription = &sub
			snap.ExpiryWarning = sub.ExpiryWarning(s.now())
		}
	}
	for id, m := range s.mutations {
		if m.State == MutationApplied {
			snap.InFlight = append(snap.InFlight, id)
		}
	}
	return snap
}

// LastMutation returns the most recent mutation issued for a card.
func (s *Session) LastMutation(cardID string) (Mutation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mutations[cardID]
	if !ok {
		return Mutation{}, false
	}
	return *m, true
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// locateLocked validates that a mutation can target cardID and touches the
// idle clock.  Callers hold s.mu.
func (s *Session) locateLocked(cardID string) (int, error) {
	if s.userID == "" {
		return -1, ErrUnauthenticated
	}
	if !s.loaded {
		return -1, ErrNotLoaded
	}
	s.lastSeen = s.now()
	idx := s.indexLocked(cardID)
	if idx < 0 {
		return -1, ErrCardNotInSession
	}
	return idx, nil
}

func (s *Session) indexLocked(cardID string) int {
	for i := range s.cards {
		if s.cards[i].ID == cardID {
			return i
		}
	}
	return -1
}
