package domain

import (
	"time"
)

// KillCooldowns is a per-impostor timestamp ledger gating threshold kills.
// A participant with no recorded kill has no cooldown at all.
//
// Not safe for concurrent use: consulted only from the session command loop.
type KillCooldowns struct {
	window time.Duration
	last   map[ParticipantID]time.Time
}

func NewKillCooldowns(window time.Duration) *KillCooldowns {
	return &KillCooldowns{
		window: window,
		last:   make(map[ParticipantID]time.Time),
	}
}

// Record notes a kill for the given impostor at the given instant,
// overwriting any previous record.
func (k *KillCooldowns) Record(id ParticipantID, at time.Time) {
	k.last[id] = at
}

// Remaining returns how long the impostor must still wait before their next
// threshold kill is accepted: max(0, window - (now - last)).
func (k *KillCooldowns) Remaining(id ParticipantID, now time.Time) time.Duration {
	at, ok := k.last[id]
	if !ok {
		return 0
	}
	remaining := k.window - now.Sub(at)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset drops every recorded kill. Called when a round ends.
func (k *KillCooldowns) Reset() {
	k.last = make(map[ParticipantID]time.Time)
}
