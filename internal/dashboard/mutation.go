package dashboard

import "time"

// MutationState is the lifecycle position of a single card mutation.
type MutationState int

const (
	// MutationIdle means no mutation has been issued.
	MutationIdle MutationState = iota
	// MutationApplied means the local change is visible and the remote call
	// has not resolved yet.
	MutationApplied
	// MutationConfirmed means the Gateway accepted the change.  Terminal.
	MutationConfirmed
	// MutationRolledBack means the Gateway rejected the change and the local
	// value was restored.  Terminal.
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationIdle:
		return "idle"
	case MutationApplied:
		return "applied"
	case MutationConfirmed:
		return "confirmed"
	case MutationRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s MutationState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition can happen.
func (s MutationState) Terminal() bool {
	return s == MutationConfirmed || s == MutationRolledBack
}

// MutationKind names the field a mutation touches.
type MutationKind string

const (
	KindVisibility MutationKind = "visibility"
	KindDelete     MutationKind = "delete"
)

// Mutation records one user-issued change to a card.  For visibility toggles
// Previous and Next hold the public flag before and after the optimistic
// apply.  Delete mutations are never applied optimistically, so they move
// from Idle straight to a terminal state.
type Mutation struct {
	CardID   string        `json:"card_id"`
	Kind     MutationKind  `json:"kind"`
	State    MutationState `json:"state"`
	Previous bool          `json:"previous"`
	Next     bool          `json:"next"`
	Err      error         `json:"-"`
	IssuedAt time.Time     `json:"issued_at"`
}

// apply moves an idle mutation to Applied.
func (m *Mutation) apply() {
	if m.State == MutationIdle {
		m.State = MutationApplied
	}
}

// resolve moves the mutation to its terminal state based on the remote result.
func (m *Mutation) resolve(remoteErr error) {
	if m.State.Terminal() {
		return
	}
	if remoteErr != nil {
		m.State = MutationRolledBack
		m.Err = remoteErr
		return
	}
	m.State = MutationConfirmed
}

