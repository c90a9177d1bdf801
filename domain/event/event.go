// Package event defines the outbound broadcast vocabulary of the session.
// Every event carries an Audience telling the fanout which connections may
// see it; payloads are the exact structures serialized to clients.
package event

import (
	"time"

	"sus-lab/domain"
)

type Name string

const (
	RosterUpdateType        Name = "roster-update"
	RoundStartedType        Name = "round-started"
	TaskProgressRestoreType Name = "task-progress-restore"
	CrewmateActivityType    Name = "crewmate-activity"
	TaskCompletedUpdateType Name = "task-completed-update"
	SabotageAttemptType     Name = "sabotage-attempt"
	KillCooldownType        Name = "kill-cooldown"
	PlayerKilledType        Name = "player-killed"
	KillCooldownStartedType Name = "kill-cooldown-started"
	SabotageTriggeredType   Name = "sabotage-triggered"
	BodyReportedType        Name = "body-reported"
	MeetingStartedType      Name = "meeting-started"
	VoteSubmittedType       Name = "vote-submitted"
	PlayerEjectedType       Name = "player-ejected"
	NoOneEjectedType        Name = "no-one-ejected"
	RoundTimerUpdateType    Name = "round-timer-update"
	RoundEndedType          Name = "round-ended"
	ReturnToLobbyType       Name = "return-to-lobby"
	ChatMessageType         Name = "chat-message"
	DisconnectedType        Name = "disconnected"
	StateSnapshotType       Name = "state-snapshot"
)

type Scope int

const (
	ScopeAll Scope = iota
	ScopeExcept
	ScopeOnly
)

// Audience selects which connected participants receive an event.
// Participant is the excluded connection for ScopeExcept and the single
// recipient for ScopeOnly.
type Audience struct {
	Scope       Scope
	Participant domain.ParticipantID
}

func ToAll() Audience {
	return Audience{Scope: ScopeAll}
}

func ToAllExcept(id domain.ParticipantID) Audience {
	return Audience{Scope: ScopeExcept, Participant: id}
}

func ToOnly(id domain.ParticipantID) Audience {
	return Audience{Scope: ScopeOnly, Participant: id}
}

// DomainEvent is the envelope flowing from the session loop to the fanout.
// Permanent sinks (telemetry, storage) see every event regardless of
// audience; connection sinks only see what their audience allows.
type DomainEvent struct {
	Name     Name
	Audience Audience
	At       time.Time
	Payload  any
}
