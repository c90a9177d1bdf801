package runtime

import (
	"sync"

	"sus-lab/contract"
	"sus-lab/domain"
	"sus-lab/domain/event"
)

// Registry maps connected participants to their delivery sinks. It is the
// only piece of shared state touched from both the fanout worker and the
// transport goroutines, so it carries its own lock.
type Registry struct {
	mu    sync.RWMutex
	sinks map[domain.ParticipantID]contract.EventSink
	order []domain.ParticipantID
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[domain.ParticipantID]contract.EventSink)}
}

// Subscribe registers a participant's active connection. Re-subscribing the
// same identity replaces the previous sink.
func (r *Registry) Subscribe(participantID domain.ParticipantID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sinks[participantID]; !ok {
		r.order = append(r.order, participantID)
	}
	r.sinks[participantID] = sink
}

// Unsubscribe removes a participant's connection. Safe to call for an
// identity that was never subscribed.
func (r *Registry) Unsubscribe(participantID domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sinks[participantID]; !ok {
		return
	}
	delete(r.sinks, participantID)
	for i, id := range r.order {
		if id == participantID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SinksFor resolves an audience into concrete delivery sinks, in
// subscription order for deterministic delivery.
func (r *Registry) SinksFor(audience event.Audience) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch audience.Scope {
	case event.ScopeOnly:
		if sink, ok := r.sinks[audience.Participant]; ok {
			return []contract.EventSink{sink}
		}
		return nil
	case event.ScopeExcept:
		var out []contract.EventSink
		for _, id := range r.order {
			if id == audience.Participant {
				continue
			}
			out = append(out, r.sinks[id])
		}
		return out
	default:
		var out []contract.EventSink
		for _, id := range r.order {
			out = append(out, r.sinks[id])
		}
		return out
	}
}

// Len reports the number of connected sinks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
