package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/carddash/internal/dashboard"
)

// EventPublisher is the subset of Publisher the notifiers need.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// ChangeNotifier publishes a CardChangedEvent for every confirmed dashboard
// mutation.  Rolled back mutations are not announced.
type ChangeNotifier struct {
	dashboard.NopObserver
	pub     EventPublisher
	log     *slog.Logger
	timeout time.Duration
}

func NewChangeNotifier(pub EventPublisher, log *slog.Logger) *ChangeNotifier {
	return &ChangeNotifier{pub: pub, log: log, timeout: 5 * time.Second}
}

func (n *ChangeNotifier) MutationResolved(ctx context.Context, userID string, m dashboard.Mutation) {
	if m.State != dashboard.MutationConfirmed {
		return
	}
	ev := CardChangedEvent{
		EventID:    uuid.NewString(),
		CardID:     m.CardID,
		OwnerID:    userID,
		OccurredAt: time.Now().UTC(),
	}
	switch m.Kind {
	case dashboard.KindVisibility:
		public := m.Next
		ev.Type = CardVisibilityChanged
		ev.Public = &public
	case dashboard.KindDelete:
		ev.Type = CardDeleted
	default:
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.Publish(pctx, CardEventsQueue, ev); err != nil {
		n.log.Warn("card change event dropped", "card_id", m.CardID, "type", ev.Type, "error", err)
	}
}

// RecordEngagement publishes a view, like or rating for a public card.
func RecordEngagement(ctx context.Context, pub EventPublisher, kind, cardID string, rating int) error {
	return pub.Publish(ctx, EngagementQueue, EngagementEvent{
		EventID:    uuid.NewString(),
		Type:       kind,
		CardID:     cardID,
		Rating:     rating,
		OccurredAt: time.Now().UTC(),
	})
}
