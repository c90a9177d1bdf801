// Package domain contains core concepts of the game session.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"encoding/json"
)

// ParticipantID is the connection-scoped identity assigned by the transport
// layer when a socket is accepted. It is stable for the connection lifetime.
type ParticipantID string

type Role int

const (
	RoleUnassigned Role = iota
	RoleCrewmate
	RoleImpostor
)

func (r Role) String() string {
	switch r {
	case RoleCrewmate:
		return "crewmate"
	case RoleImpostor:
		return "impostor"
	default:
		return "unassigned"
	}
}

// Vote is an explicit option type: the zero value means "no vote cast".
// A Vote may reference a participant that has since disconnected; tallies
// tolerate dangling targets instead of crashing.
type Vote struct {
	Cast   bool
	Target ParticipantID
}

func NoVote() Vote { return Vote{} }

func VoteFor(target ParticipantID) Vote {
	return Vote{Cast: true, Target: target}
}

// Participant represents one connected player.
// Name and Color are set at join time and never change.
// Role, Alive, SabotageHits, Ballot and the task counters are round-scoped
// and reset by ResetForRound. SavedProgress survives round boundaries so a
// player can restore their task payload after a lobby reset.
type Participant struct {
	ID             ParticipantID
	Name           string
	Color          string
	Role           Role
	Alive          bool
	Tasks          []Task
	TaskDone       map[int]bool
	TasksCompleted int
	SabotageHits   int
	Ballot         Vote
	SavedProgress  json.RawMessage
}

func NewParticipant(id ParticipantID, name, color string, tasks []Task) *Participant {
	p := &Participant{
		ID:    id,
		Name:  name,
		Color: color,
	}
	p.ResetForRound(tasks)
	return p
}

// ResetForRound clears every round-scoped field and installs a fresh task
// set. SavedProgress is deliberately left untouched.
func (p *Participant) ResetForRound(tasks []Task) {
	p.Role = RoleUnassigned
	p.Alive = true
	p.Tasks = tasks
	p.TaskDone = make(map[int]bool, len(tasks))
	p.TasksCompleted = 0
	p.SabotageHits = 0
	p.Ballot = NoVote()
}

// Eliminate flips the participant to dead. Elimination is monotonic within
// a round: once dead, a participant never comes back before the lobby reset.
func (p *Participant) Eliminate() {
	p.Alive = false
}

// Palette of cosmetic player colors, assigned at join by join order.
var Palette = []string{
	"#c51111", "#132ed1", "#117f2d", "#ed54ba",
	"#ef7d0d", "#f5f557", "#3f474e", "#d6e0f0",
	"#6b2fbb", "#71491e",
}
