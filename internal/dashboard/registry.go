package dashboard

import (
	"context"
	"sync"
	"time"
)

// Registry keeps one live Session per signed-in user.  Sessions untouched for
// longer than the idle TTL are dropped by Sweep.
type Registry struct {
	gw   Gateway
	opts []Option
	cfg  options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds a registry whose sessions share gw and opts.
func NewRegistry(gw Gateway, opts ...Option) *Registry {
	return &Registry{
		gw:       gw,
		opts:     opts,
		cfg:      newOptions(opts),
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, creating it on first use.  An empty
// userID gets a throwaway unauthenticated session that is never stored.
func (r *Registry) Session(userID string) *Session {
	if userID == "" {
		return NewSession("", r.gw, r.opts...)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, r.gw, r.opts...)
	r.sessions[userID] = s
	return s
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Forget drops the user's session.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.cfg.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.cfg.idleTTL {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(r.cfg.now()); n > 0 {
				r.cfg.logger.Info("evicted idle dashboard sessions", "count", n)
			}
		}
	}
}
