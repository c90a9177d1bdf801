package domain

import (
	"sus-lab/errors"

	"github.com/samber/lo"
)

// Roster holds every connected participant in insertion order so broadcast
// snapshots are deterministic. It knows nothing about events or transport;
// the session emits roster updates after Add/Remove.
//
// Roster is not safe for concurrent use: all mutation goes through the
// session command loop.
type Roster struct {
	byID  map[ParticipantID]*Participant
	order []ParticipantID
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[ParticipantID]*Participant)}
}

// Add registers a participant with default round-reset state.
// A duplicate identity cannot happen under a correct transport layer
// (identities are freshly minted uuids) but is defended against anyway.
func (r *Roster) Add(id ParticipantID, name string, tasks []Task) (*Participant, error) {
	if _, ok := r.byID[id]; ok {
		return nil, errors.ErrDuplicateIdentity
	}
	color := Palette[len(r.order)%len(Palette)]
	p := NewParticipant(id, name, color, tasks)
	r.byID[id] = p
	r.order = append(r.order, id)
	return p, nil
}

// Remove deletes a participant and reports whether the roster became empty.
// Removing an unknown identity is a no-op.
func (r *Roster) Remove(id ParticipantID) (*Participant, bool) {
	p, ok := r.byID[id]
	if !ok {
		return nil, len(r.byID) == 0
	}
	delete(r.byID, id)
	r.order = lo.Without(r.order, id)
	return p, len(r.byID) == 0
}

// Get returns nil when the identity is unknown. Callers treat a nil
// participant as a stale client reference and drop the action.
func (r *Roster) Get(id ParticipantID) *Participant {
	return r.byID[id]
}

// All returns participants in insertion order.
func (r *Roster) All() []*Participant {
	return lo.Map(r.order, func(id ParticipantID, _ int) *Participant {
		return r.byID[id]
	})
}

// Alive returns living participants in insertion order.
func (r *Roster) Alive() []*Participant {
	return lo.Filter(r.All(), func(p *Participant, _ int) bool {
		return p.Alive
	})
}

func (r *Roster) Len() int {
	return len(r.byID)
}
