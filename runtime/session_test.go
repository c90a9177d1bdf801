package runtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sus-lab/contract"
	"sus-lab/domain"
	"sus-lab/domain/event"
	"sus-lab/mocks"
	"sus-lab/moderation"
)

// The session tests drive the command loop synchronously: handlers are called
// directly, events are drained from the buffered channel and the clock is a
// plain variable. Timers are pushed out to an hour so nothing fires on its
// own; scheduled transitions are replayed by hand through handleInternal.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() Settings {
	settings := DefaultSettings()
	settings.TickInterval = time.Hour
	settings.MeetingDuration = time.Hour
	settings.LobbyResetDelay = time.Hour
	return settings
}

func testCatalog() domain.Catalog {
	return domain.Catalog{
		{ID: "wires", Name: "Fix Wiring", Duration: 15},
		{ID: "upload", Name: "Upload Data", Duration: 20},
		{ID: "scan", Name: "Submit Scan", Duration: 10},
		{ID: "fuel", Name: "Refuel Engines", Duration: 25},
	}
}

func newTestSession(t *testing.T, progress contract.ProgressStore) *Session {
	t.Helper()
	moderator, err := moderation.NewModerator([]string{"noob", "loser"}, '*')
	require.NoError(t, err)
	return NewSession(testLogger(), testSettings(), testCatalog(),
		moderator, progress, rand.New(rand.NewSource(7)), 256)
}

func drainEvents(s *Session) []event.DomainEvent {
	var out []event.DomainEvent
	for {
		select {
		case e := <-s.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func eventsNamed(events []event.DomainEvent, name event.Name) []event.DomainEvent {
	var out []event.DomainEvent
	for _, e := range events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func join(s *Session, id domain.ParticipantID, name string) {
	s.handle(domain.JoinCommand{Player: id, Name: name})
}

func impostorOf(t *testing.T, s *Session) *domain.Participant {
	t.Helper()
	for _, p := range s.roster.All() {
		if p.Role == domain.RoleImpostor {
			return p
		}
	}
	t.Fatal("no impostor dealt")
	return nil
}

func crewmatesOf(s *Session) []*domain.Participant {
	var out []*domain.Participant
	for _, p := range s.roster.All() {
		if p.Role == domain.RoleCrewmate {
			out = append(out, p)
		}
	}
	return out
}

// startedRound joins n players, starts a round and drains the setup events.
func startedRound(t *testing.T, s *Session, n int) {
	t.Helper()
	names := []string{"alice", "bob", "carol", "dave", "erin"}
	for i := 0; i < n; i++ {
		join(s, domain.ParticipantID(names[i]), names[i])
	}
	s.handle(domain.StartRoundCommand{Player: domain.ParticipantID(names[0])})
	drainEvents(s)
}

func TestSession_Join_Broadcasts_Roster(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)

	join(s, "c1", "alice")

	events := drainEvents(s)
	req.Len(eventsNamed(events, event.RosterUpdateType), 1)
	update := events[0].Payload.(event.RosterUpdate)
	req.Len(update.Players, 1)
	req.Equal("alice", update.Players[0].Name)
	req.True(update.Players[0].Alive)
	req.Equal(1, s.Stats().Participants)
}

func TestSession_Join_Duplicate_Identity_Rejected(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	join(s, "c1", "alice")
	drainEvents(s)

	// When the same connection identity joins again
	join(s, "c1", "mallory")

	// Then nothing changes and nothing is broadcast
	req.Empty(drainEvents(s))
	req.Equal(1, s.roster.Len())
	req.Equal("alice", s.roster.Get("c1").Name)
}

func TestSession_Join_Restores_Saved_Progress_By_Name(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProgressStore(ctrl)
	payload := []byte(`{"tasksCompleted":2,"taskStates":{"wires":"done"}}`)
	store.EXPECT().Load("alice").Return(payload, nil)

	s := newTestSession(t, store)

	// When alice reconnects under a brand-new connection identity
	join(s, "fresh-uuid", "alice")

	// Then the saved payload comes back to her alone
	events := drainEvents(s)
	restores := eventsNamed(events, event.TaskProgressRestoreType)
	req.Len(restores, 1)
	req.Equal(event.ToOnly("fresh-uuid"), restores[0].Audience)
	req.JSONEq(string(payload), string(restores[0].Payload.(event.TaskProgressRestore).TaskProgress))
	req.JSONEq(string(payload), string(s.roster.Get("fresh-uuid").SavedProgress))
}

func TestSession_StartRound_Deals_One_Impostor(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	join(s, "c1", "alice")
	join(s, "c2", "bob")
	join(s, "c3", "carol")
	drainEvents(s)

	s.handle(domain.StartRoundCommand{Player: "c1"})

	req.True(s.round.active)
	req.True(s.round.impostorExisted)
	req.Equal(1, s.round.number)
	req.True(s.Stats().RoundActive)

	// Each player gets a private deal carrying only their own role
	events := drainEvents(s)
	deals := eventsNamed(events, event.RoundStartedType)
	req.Len(deals, 3)
	impostorDeals := 0
	for _, deal := range deals {
		req.Equal(event.ScopeOnly, deal.Audience.Scope)
		started := deal.Payload.(event.RoundStarted)
		req.Len(started.Tasks, domain.TasksPerPlayer)
		if started.Role == "impostor" {
			impostorDeals++
		}
	}
	req.Equal(1, impostorDeals)
}

func TestSession_StartRound_Solo_Practice(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	join(s, "c1", "alice")
	drainEvents(s)

	s.handle(domain.StartRoundCommand{Player: "c1"})

	req.True(s.round.active)
	req.False(s.round.impostorExisted)
	deal := eventsNamed(drainEvents(s), event.RoundStartedType)[0]
	req.Equal("crewmate", deal.Payload.(event.RoundStarted).Role)
}

func TestSession_StartRound_Unknown_Actor_Ignored(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	join(s, "c1", "alice")
	drainEvents(s)

	s.handle(domain.StartRoundCommand{Player: "ghost"})

	req.False(s.round.active)
	req.Empty(drainEvents(s))
}

func TestSession_Sabotage_Hits_Accumulate_Then_Eliminate(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 4)
	impostor := impostorOf(t, s)
	target := crewmatesOf(s)[0]

	// Two sub-threshold hits leave the target alive
	for i := 0; i < 2; i++ {
		s.handle(domain.AttemptSabotageCommand{
			Player: impostor.ID, Target: target.ID, Success: true, SabotageType: "direct",
		})
	}
	req.True(target.Alive)
	req.Equal(2, target.SabotageHits)
	events := drainEvents(s)
	req.Len(eventsNamed(events, event.SabotageAttemptType), 2)
	req.Empty(eventsNamed(events, event.PlayerKilledType))

	// The third hit crosses the threshold
	s.handle(domain.AttemptSabotageCommand{
		Player: impostor.ID, Target: target.ID, Success: true, SabotageType: "direct",
	})

	req.False(target.Alive)
	events = drainEvents(s)
	killed := eventsNamed(events, event.PlayerKilledType)
	req.Len(killed, 1)
	req.Equal(target.Name, killed[0].Payload.(event.PlayerKilled).Name)
	cooldown := eventsNamed(events, event.KillCooldownStartedType)
	req.Len(cooldown, 1)
	req.Equal(event.ToOnly(impostor.ID), cooldown[0].Audience)
	// One impostor versus two crewmates: the round goes on
	req.True(s.round.active)
}

func TestSession_Sabotage_Role_Preconditions_Silently_Drop(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)

	// A crewmate attacking, and an impostor attacking an impostor
	s.handle(domain.AttemptSabotageCommand{Player: crew[0].ID, Target: crew[1].ID})
	s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: impostor.ID})
	s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: "ghost"})

	req.Empty(drainEvents(s))
	req.Zero(crew[1].SabotageHits)
}

func TestSession_Kill_Cooldown_Guards_At_Threshold_Targets(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	clock := time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	startedRound(t, s, 5)
	impostor := impostorOf(t, s)
	victim := crewmatesOf(s)[0]

	// Given a completed kill that started the cooldown
	for i := 0; i < 3; i++ {
		s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: victim.ID})
	}
	req.False(victim.Alive)
	drainEvents(s)

	// When the impostor keeps hammering the dead, at-threshold target
	clock = clock.Add(10 * time.Second)
	s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: victim.ID})

	// Then the attempt is refused with the exact remaining window
	events := drainEvents(s)
	refusals := eventsNamed(events, event.KillCooldownType)
	req.Len(refusals, 1)
	req.Equal(event.ToOnly(impostor.ID), refusals[0].Audience)
	req.Equal(20, refusals[0].Payload.(event.KillCooldown).RemainingSeconds)
	req.Empty(eventsNamed(events, event.SabotageAttemptType))
	req.Equal(3, victim.SabotageHits)

	// Once the window has fully elapsed the guard lets the attempt through,
	// but a dead target never dies twice
	clock = clock.Add(21 * time.Second)
	s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: victim.ID})

	events = drainEvents(s)
	req.Len(eventsNamed(events, event.SabotageAttemptType), 1)
	req.Empty(eventsNamed(events, event.PlayerKilledType))
	req.Equal(4, victim.SabotageHits)
}

func TestSession_Sub_Threshold_Hits_Ignore_Cooldown(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	clock := time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	startedRound(t, s, 5)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)

	// Given a fresh kill holding the cooldown
	for i := 0; i < 3; i++ {
		s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: crew[0].ID})
	}
	drainEvents(s)

	// When a second target is worn down during the cooldown window
	clock = clock.Add(2 * time.Second)
	for i := 0; i < 3; i++ {
		s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: crew[1].ID})
	}

	// Then the hits land; only at-threshold targets are guarded
	req.False(crew[1].Alive)
	events := drainEvents(s)
	req.Len(eventsNamed(events, event.SabotageAttemptType), 3)
	req.Len(eventsNamed(events, event.PlayerKilledType), 1)
}

func TestSession_Trigger_Sabotage_Relays_To_Others(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)

	s.handle(domain.TriggerSabotageCommand{Player: impostor.ID, SabotageType: "lights"})
	// A crewmate pretending to sabotage is dropped
	s.handle(domain.TriggerSabotageCommand{Player: crew[0].ID, SabotageType: "lights"})

	events := drainEvents(s)
	triggered := eventsNamed(events, event.SabotageTriggeredType)
	req.Len(triggered, 1)
	req.Equal(event.ToAllExcept(impostor.ID), triggered[0].Audience)
	req.Equal("lights", triggered[0].Payload.(event.SabotageTriggered).Kind)
}

func TestSession_Outnumbered_Ends_The_Round(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)
	target := crewmatesOf(s)[0]

	// When the kill leaves one impostor against one crewmate
	for i := 0; i < 3; i++ {
		s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: target.ID})
	}

	req.False(s.round.active)
	ended := eventsNamed(drainEvents(s), event.RoundEndedType)
	req.Len(ended, 1)
	payload := ended[0].Payload.(event.RoundEnded)
	req.Equal("impostors", payload.Winners)
	req.Equal(domain.ReasonOutnumbered, payload.Reason)
	// The end-of-round summary finally reveals roles
	req.Len(payload.Players, 3)
}

func TestSession_Dead_Crewmate_Task_Completion_Counts(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 4)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)

	// Given the first crewmate finishes everything, then dies
	s.handle(domain.TaskCompletedCommand{Player: crew[0].ID, TaskID: "wires", TasksCompleted: 3})
	for i := 0; i < 3; i++ {
		s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: crew[0].ID})
	}
	req.False(crew[0].Alive)
	req.True(s.round.active)
	drainEvents(s)

	// When the survivors finish their tasks
	s.handle(domain.TaskCompletedCommand{Player: crew[1].ID, TaskID: "scan", TasksCompleted: 3})
	s.handle(domain.TaskCompletedCommand{Player: crew[2].ID, TaskID: "fuel", TasksCompleted: 3})

	// Then the dead crewmate's completed tasks still count toward the win
	req.False(s.round.active)
	ended := eventsNamed(drainEvents(s), event.RoundEndedType)
	req.Len(ended, 1)
	payload := ended[0].Payload.(event.RoundEnded)
	req.Equal("crewmates", payload.Winners)
	req.Equal(domain.ReasonTasksComplete, payload.Reason)
}

func TestSession_Task_Completed_Ignores_Impostor(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)

	s.handle(domain.TaskCompletedCommand{Player: impostor.ID, TaskID: "wires", TasksCompleted: 3})

	req.Zero(impostor.TasksCompleted)
	req.Empty(drainEvents(s))
}

func TestSession_Task_Completed_Clamps_Client_Count(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 4)
	crew := crewmatesOf(s)

	s.handle(domain.TaskCompletedCommand{Player: crew[0].ID, TaskID: "wires", TasksCompleted: 99})

	req.Equal(s.settings.TaskGoal, crew[0].TasksCompleted)
	update := eventsNamed(drainEvents(s), event.TaskCompletedUpdateType)[0]
	req.Equal(s.settings.TaskGoal, update.Payload.(event.TaskCompletedUpdate).TasksCompleted)
}

func TestSession_Task_Progress_Relays_To_Other_Players(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)

	s.handle(domain.TaskProgressCommand{Player: crew[0].ID, Task: "wires", Progress: 0.5})
	// Impostors have no tasks; their relay is dropped
	s.handle(domain.TaskProgressCommand{Player: impostor.ID, Task: "wires", Progress: 0.5})

	events := drainEvents(s)
	activity := eventsNamed(events, event.CrewmateActivityType)
	req.Len(activity, 1)
	req.Equal(event.ToAllExcept(crew[0].ID), activity[0].Audience)
	req.Equal("wires", activity[0].Payload.(event.CrewmateActivity).Task)
}

func TestSession_Save_Task_Progress_Persists_And_Wins(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProgressStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil, nil).Times(4)

	s := newTestSession(t, store)
	startedRound(t, s, 4)
	crew := crewmatesOf(s)

	payload := json.RawMessage(`{"tasksCompleted":3,"taskStates":{"wires":"done"}}`)
	for _, p := range crew {
		store.EXPECT().Save(p.Name, []byte(payload)).Return(nil)
		s.handle(domain.SaveTaskProgressCommand{Player: p.ID, TaskProgress: payload})
	}

	// Saving the final payload both persisted it and completed the round
	req.False(s.round.active)
	ended := eventsNamed(drainEvents(s), event.RoundEndedType)
	req.Len(ended, 1)
	req.Equal(domain.ReasonTasksComplete, ended[0].Payload.(event.RoundEnded).Reason)
}

func TestSession_Meeting_Opens_On_Body_Report(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	crew := crewmatesOf(s)

	s.handle(domain.ReportBodyCommand{Player: crew[0].ID, Location: "electrical"})

	req.True(s.meeting.open)
	events := drainEvents(s)
	reported := eventsNamed(events, event.BodyReportedType)
	req.Len(reported, 1)
	req.Equal("electrical", reported[0].Payload.(event.BodyReported).Location)
	started := eventsNamed(events, event.MeetingStartedType)
	req.Len(started, 1)
	req.Len(started[0].Payload.(event.MeetingStarted).Players, 3)

	// A second report during the open window is dropped
	s.handle(domain.ReportBodyCommand{Player: crew[1].ID, Location: "reactor"})
	req.Empty(drainEvents(s))
}

func TestSession_Meeting_Requires_Active_Round_And_Alive_Caller(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	join(s, "c1", "alice")
	join(s, "c2", "bob")
	drainEvents(s)

	// No round yet
	s.handle(domain.EmergencyMeetingCommand{Player: "c1"})
	req.False(s.meeting.open)

	s.handle(domain.StartRoundCommand{Player: "c1"})
	drainEvents(s)

	// A dead caller cannot summon anyone
	dead := crewmatesOf(s)[0]
	dead.Eliminate()
	s.handle(domain.EmergencyMeetingCommand{Player: dead.ID})
	req.False(s.meeting.open)
	req.Empty(drainEvents(s))
}

func TestSession_Votes_Are_Secret_And_Resolve_Early(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)
	s.handle(domain.EmergencyMeetingCommand{Player: crew[0].ID})
	drainEvents(s)

	// Two ballots in: everyone saw who voted, nobody saw for whom
	s.handle(domain.SubmitVoteCommand{Player: crew[0].ID, Ballot: domain.VoteFor(impostor.ID)})
	s.handle(domain.SubmitVoteCommand{Player: crew[1].ID, Ballot: domain.VoteFor(impostor.ID)})
	events := drainEvents(s)
	req.Len(eventsNamed(events, event.VoteSubmittedType), 2)
	req.Empty(eventsNamed(events, event.PlayerEjectedType))
	req.True(s.meeting.open)

	// The final living ballot resolves the meeting without waiting
	s.handle(domain.SubmitVoteCommand{Player: impostor.ID, Ballot: domain.VoteFor(crew[0].ID)})

	req.False(s.meeting.open)
	events = drainEvents(s)
	ejections := eventsNamed(events, event.PlayerEjectedType)
	req.Len(ejections, 1)
	ejected := ejections[0].Payload.(event.PlayerEjected)
	req.Equal(impostor.Name, ejected.Name)
	req.Equal("impostor", ejected.Role)
	req.Equal(2, ejected.Votes[impostor.Name])
	req.Equal(impostor.Name, ejected.Voters[crew[0].Name])

	// Ejecting the only impostor ends the round for the crew
	ended := eventsNamed(events, event.RoundEndedType)
	req.Len(ended, 1)
	payload := ended[0].Payload.(event.RoundEnded)
	req.Equal("crewmates", payload.Winners)
	req.Equal(domain.ReasonImpostorsEliminated, payload.Reason)
}

func TestSession_Vote_Tie_Ejects_Nobody(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 4)
	players := s.roster.All()
	s.handle(domain.EmergencyMeetingCommand{Player: players[0].ID})
	drainEvents(s)

	// Two against two
	s.handle(domain.SubmitVoteCommand{Player: players[0].ID, Ballot: domain.VoteFor(players[1].ID)})
	s.handle(domain.SubmitVoteCommand{Player: players[2].ID, Ballot: domain.VoteFor(players[1].ID)})
	s.handle(domain.SubmitVoteCommand{Player: players[1].ID, Ballot: domain.VoteFor(players[0].ID)})
	s.handle(domain.SubmitVoteCommand{Player: players[3].ID, Ballot: domain.VoteFor(players[0].ID)})

	req.False(s.meeting.open)
	events := drainEvents(s)
	noEject := eventsNamed(events, event.NoOneEjectedType)
	req.Len(noEject, 1)
	payload := noEject[0].Payload.(event.NoOneEjected)
	req.True(payload.Tie)
	req.Equal(2, payload.Votes[players[0].Name])
	req.Equal(2, payload.Votes[players[1].Name])
	for _, p := range s.roster.All() {
		req.True(p.Alive)
		req.False(p.Ballot.Cast)
	}
	req.True(s.round.active)
}

func TestSession_Dead_Voter_Ballot_Counts_At_Timeout(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	players := s.roster.All()
	s.handle(domain.EmergencyMeetingCommand{Player: players[0].ID})
	drainEvents(s)

	// Two ballots land on the third player, then one voter dies mid-meeting
	s.handle(domain.SubmitVoteCommand{Player: players[0].ID, Ballot: domain.VoteFor(players[2].ID)})
	s.handle(domain.SubmitVoteCommand{Player: players[1].ID, Ballot: domain.VoteFor(players[2].ID)})
	players[0].Eliminate()
	drainEvents(s)

	// When the window times out
	s.handleInternal(meetingTimeoutCommand{meeting: s.meeting.number})

	// Then the dead voter's ballot still counted
	req.False(s.meeting.open)
	ejections := eventsNamed(drainEvents(s), event.PlayerEjectedType)
	req.Len(ejections, 1)
	req.Equal(2, ejections[0].Payload.(event.PlayerEjected).Votes[players[2].Name])
	req.False(players[2].Alive)
}

func TestSession_Stale_Meeting_Timeout_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	players := s.roster.All()
	s.handle(domain.EmergencyMeetingCommand{Player: players[0].ID})
	drainEvents(s)

	// A timeout from a previous meeting number changes nothing
	s.handleInternal(meetingTimeoutCommand{meeting: s.meeting.number - 1})

	req.True(s.meeting.open)
	req.Empty(drainEvents(s))
}

func TestSession_Vote_Outside_Meeting_Or_Dead_Is_Dropped(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	players := s.roster.All()

	// No meeting open
	s.handle(domain.SubmitVoteCommand{Player: players[0].ID, Ballot: domain.VoteFor(players[1].ID)})
	req.Empty(drainEvents(s))

	s.handle(domain.EmergencyMeetingCommand{Player: players[0].ID})
	drainEvents(s)

	// Dead participants have no voice
	players[1].Eliminate()
	s.handle(domain.SubmitVoteCommand{Player: players[1].ID, Ballot: domain.VoteFor(players[0].ID)})
	req.Empty(drainEvents(s))
	req.False(players[1].Ballot.Cast)
}

func TestSession_Round_Tick_Counts_Down_To_Time_Expiry(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	s.round.remainingSeconds = 2

	s.handleInternal(roundTickCommand{round: s.round.number})

	events := drainEvents(s)
	timer := eventsNamed(events, event.RoundTimerUpdateType)
	req.Len(timer, 1)
	update := timer[0].Payload.(event.RoundTimerUpdate)
	req.Equal(1, update.Remaining)
	req.Zero(update.Minutes)
	req.Equal(1, update.Seconds)
	req.True(s.round.active)

	// The final tick expires the clock and the impostors take it
	s.handleInternal(roundTickCommand{round: s.round.number})

	req.False(s.round.active)
	ended := eventsNamed(drainEvents(s), event.RoundEndedType)
	req.Len(ended, 1)
	payload := ended[0].Payload.(event.RoundEnded)
	req.Equal("impostors", payload.Winners)
	req.Equal(domain.ReasonTimeExpired, payload.Reason)
}

func TestSession_Stale_Round_Tick_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	before := s.round.remainingSeconds

	s.handleInternal(roundTickCommand{round: s.round.number - 1})

	req.Equal(before, s.round.remainingSeconds)
	req.Empty(drainEvents(s))
}

func TestSession_Lobby_Reset_After_Round_End(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)
	target := crewmatesOf(s)[0]
	for i := 0; i < 3; i++ {
		s.handle(domain.AttemptSabotageCommand{Player: impostor.ID, Target: target.ID})
	}
	req.False(s.round.active)
	drainEvents(s)

	// When the scheduled reset fires for the ended round
	s.handleInternal(lobbyResetCommand{round: s.round.number})

	// Then everyone is alive and unassigned again, back in the lobby
	lobby := eventsNamed(drainEvents(s), event.ReturnToLobbyType)
	req.Len(lobby, 1)
	for _, p := range s.roster.All() {
		req.True(p.Alive)
		req.Equal(domain.RoleUnassigned, p.Role)
		req.Zero(p.SabotageHits)
		req.Zero(p.TasksCompleted)
	}

	// A reset tagged with a stale round number is ignored
	s.handle(domain.StartRoundCommand{Player: impostor.ID})
	drainEvents(s)
	s.handleInternal(lobbyResetCommand{round: s.round.number - 1})
	req.True(s.round.active)
	req.Empty(drainEvents(s))
}

func TestSession_Disconnect_With_Survivors_Keeps_The_Round(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	leaving := s.roster.All()[2]

	s.handle(domain.DisconnectCommand{Player: leaving.ID})

	req.True(s.round.active)
	req.Equal(2, s.roster.Len())
	events := drainEvents(s)
	gone := eventsNamed(events, event.DisconnectedType)
	req.Len(gone, 1)
	req.Equal(leaving.Name, gone[0].Payload.(event.Disconnected).Name)
	req.Len(eventsNamed(events, event.RosterUpdateType), 1)
}

func TestSession_Disconnect_To_Empty_Clears_The_Round(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 2)
	round := s.round.number
	players := s.roster.All()

	s.handle(domain.DisconnectCommand{Player: players[0].ID})
	s.handle(domain.DisconnectCommand{Player: players[1].ID})

	req.Zero(s.roster.Len())
	req.False(s.round.active)
	req.Zero(s.Stats().Participants)
	drainEvents(s)

	// Any tick still in flight for the abandoned round is stale now
	s.handleInternal(roundTickCommand{round: round})
	req.Empty(drainEvents(s))
}

func TestSession_Chat_Censors_And_Tags_Metadata(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	impostor := impostorOf(t, s)

	s.handle(domain.ChatCommand{Player: impostor.ID, Message: "what a noob move"})

	messages := eventsNamed(drainEvents(s), event.ChatMessageType)
	req.Len(messages, 1)
	req.Equal(event.ToAll(), messages[0].Audience)
	msg := messages[0].Payload.(event.ChatMessage)
	req.Equal("what a **** move", msg.Message)
	req.Equal(impostor.Name, msg.Name)
	req.Equal("impostor", msg.Role)
	req.True(msg.Alive)
	req.NotEmpty(msg.ID)
}

func TestSession_Chat_From_Unknown_Player_Is_Dropped(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	join(s, "c1", "alice")
	drainEvents(s)

	s.handle(domain.ChatCommand{Player: "ghost", Message: "boo"})

	req.Empty(drainEvents(s))
}

func TestSession_Request_State_Snapshots_To_Requester(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	startedRound(t, s, 3)
	asker := s.roster.All()[0]

	s.handle(domain.RequestStateCommand{Player: asker.ID})

	snapshots := eventsNamed(drainEvents(s), event.StateSnapshotType)
	req.Len(snapshots, 1)
	req.Equal(event.ToOnly(asker.ID), snapshots[0].Audience)
	snap := snapshots[0].Payload.(event.StateSnapshot)
	req.True(snap.RoundActive)
	req.Len(snap.Players, 3)
}

func TestSession_Run_Loop_Serves_Dispatch(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Dispatch(domain.JoinCommand{Player: "c1", Name: "alice"})

	select {
	case evt := <-s.Events():
		req.Equal(event.RosterUpdateType, evt.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no event from the running loop")
	}

	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

// The three-player narrative: join, chat, a body report, the vote that ejects
// the impostor, and the trip back to the lobby.
func TestSession_Full_Round_Narrative(t *testing.T) {
	req := require.New(t)
	s := newTestSession(t, nil)

	join(s, "c1", "alice")
	join(s, "c2", "bob")
	join(s, "c3", "carol")
	s.handle(domain.StartRoundCommand{Player: "c1"})
	drainEvents(s)
	impostor := impostorOf(t, s)
	crew := crewmatesOf(s)

	// Some table talk and a bit of honest work
	s.handle(domain.ChatCommand{Player: crew[0].ID, Message: "doing wires"})
	s.handle(domain.TaskCompletedCommand{Player: crew[0].ID, TaskID: "wires", TasksCompleted: 1})

	// A body is found and the meeting convenes
	s.handle(domain.ReportBodyCommand{Player: crew[0].ID, Location: "cafeteria"})
	req.True(s.meeting.open)

	// The crew converges on the impostor, who deflects
	s.handle(domain.SubmitVoteCommand{Player: crew[0].ID, Ballot: domain.VoteFor(impostor.ID)})
	s.handle(domain.SubmitVoteCommand{Player: crew[1].ID, Ballot: domain.VoteFor(impostor.ID)})
	s.handle(domain.SubmitVoteCommand{Player: impostor.ID, Ballot: domain.VoteFor(crew[0].ID)})

	events := drainEvents(s)
	req.Len(eventsNamed(events, event.PlayerEjectedType), 1)
	ended := eventsNamed(events, event.RoundEndedType)
	req.Len(ended, 1)
	req.Equal("crewmates", ended[0].Payload.(event.RoundEnded).Winners)
	req.False(s.round.active)

	// The scheduled reset returns everyone to the lobby for the next round
	s.handleInternal(lobbyResetCommand{round: s.round.number})
	req.Len(eventsNamed(drainEvents(s), event.ReturnToLobbyType), 1)
	for _, p := range s.roster.All() {
		req.True(p.Alive)
	}
}
