package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"sus-lab/contract"
	"sus-lab/domain"
	"sus-lab/domain/event"
	"sus-lab/moderation"
)

var _ contract.Worker = (*Session)(nil)

// Session owns the whole game state: the roster, the kill-cooldown ledger,
// the round and meeting state and the timer handles. Every mutation happens
// on the single goroutine running the command loop; transport goroutines and
// timer callbacks only enqueue commands. That serialization is the
// correctness-critical invariant of the whole server.
type Session struct {
	log       *slog.Logger
	settings  Settings
	roster    *domain.Roster
	cooldowns *domain.KillCooldowns
	catalog   domain.Catalog
	rng       *rand.Rand
	now       func() time.Time
	moderator moderation.Moderator
	progress  contract.ProgressStore

	commands chan domain.Command
	internal chan internalCommand
	events   chan event.DomainEvent

	// loop context, set when Run starts; timer callbacks use it so a
	// scheduled transition is never lost while the loop is alive.
	ctx context.Context

	round   roundState
	meeting meetingState

	// health counters readable from any goroutine
	statParticipants atomic.Int64
	statRoundActive  atomic.Bool
	statRoundNumber  atomic.Int64
}

// roundState is round-scoped bookkeeping. The sequence number makes stale
// scheduled commands (ticks, lobby resets) harmless no-ops after a restart.
type roundState struct {
	active           bool
	number           int
	remainingSeconds int
	impostorExisted  bool
	stopTicker       context.CancelFunc
}

type meetingState struct {
	open   bool
	number int
}

// internalCommand is the session's private feedback vocabulary: timer and
// scheduler callbacks never touch state directly, they enqueue one of these.
type internalCommand interface {
	internalKind() string
}

type roundTickCommand struct{ round int }

func (roundTickCommand) internalKind() string { return "round-tick" }

type meetingTimeoutCommand struct{ meeting int }

func (meetingTimeoutCommand) internalKind() string { return "meeting-timeout" }

type lobbyResetCommand struct{ round int }

func (lobbyResetCommand) internalKind() string { return "lobby-reset" }

func NewSession(log *slog.Logger, settings Settings, catalog domain.Catalog,
	moderator moderation.Moderator, progress contract.ProgressStore,
	rng *rand.Rand, bufferSize int) *Session {
	return &Session{
		log:       log,
		settings:  settings,
		roster:    domain.NewRoster(),
		cooldowns: domain.NewKillCooldowns(settings.KillCooldownWindow),
		catalog:   catalog,
		rng:       rng,
		now:       func() time.Time { return time.Now().UTC() },
		moderator: moderator,
		progress:  progress,
		commands:  make(chan domain.Command, bufferSize),
		internal:  make(chan internalCommand, bufferSize),
		events:    make(chan event.DomainEvent, bufferSize),
	}
}

// Events exposes the outbound stream consumed by the fanout worker.
func (s *Session) Events() chan event.DomainEvent {
	return s.events
}

// Dispatch enqueues an inbound participant action without blocking. A full
// buffer means a client flood; dropping is preferable to stalling the
// transport goroutine.
func (s *Session) Dispatch(cmd domain.Command) {
	select {
	case s.commands <- cmd:
	default:
		s.log.Warn(fmt.Sprintf("Command channel full, dropping %s", cmd.Kind()))
	}
}

// Run consumes commands one at a time until the context is canceled.
// Both channels feed the same goroutine, so no two handlers ever run
// interleaved on the shared state.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	s.log.Info("Session loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd := <-s.commands:
			s.handle(cmd)
		case cmd := <-s.internal:
			s.handleInternal(cmd)
		}
	}
}

// Stats is a point-in-time health snapshot for /healthz.
func (s *Session) Stats() contract.SessionStats {
	return contract.SessionStats{
		Participants: int(s.statParticipants.Load()),
		RoundActive:  s.statRoundActive.Load(),
		RoundNumber:  int(s.statRoundNumber.Load()),
	}
}

// handle is the exhaustive dispatcher over the inbound action sum type.
func (s *Session) handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.JoinCommand:
		s.handleJoin(c)
	case domain.StartRoundCommand:
		s.handleStartRound(c)
	case domain.TaskProgressCommand:
		s.handleTaskProgress(c)
	case domain.SaveTaskProgressCommand:
		s.handleSaveTaskProgress(c)
	case domain.TaskCompletedCommand:
		s.handleTaskCompleted(c)
	case domain.AttemptSabotageCommand:
		s.handleAttemptSabotage(c)
	case domain.TriggerSabotageCommand:
		s.handleTriggerSabotage(c)
	case domain.ReportBodyCommand:
		s.handleReportBody(c)
	case domain.EmergencyMeetingCommand:
		s.handleEmergencyMeeting(c)
	case domain.SubmitVoteCommand:
		s.handleSubmitVote(c)
	case domain.ChatCommand:
		s.handleChat(c)
	case domain.RequestStateCommand:
		s.handleRequestState(c)
	case domain.DisconnectCommand:
		s.handleDisconnect(c)
	default:
		s.log.Warn(fmt.Sprintf("Unhandled command kind %s", cmd.Kind()))
	}
}

func (s *Session) handleInternal(cmd internalCommand) {
	switch c := cmd.(type) {
	case roundTickCommand:
		s.handleRoundTick(c)
	case meetingTimeoutCommand:
		s.handleMeetingTimeout(c)
	case lobbyResetCommand:
		s.handleLobbyReset(c)
	}
}

// emit hands an event to the fanout. The buffer gives the loop slack while
// fanout delivers; when it is truly full we drop rather than deadlock the
// game on a slow consumer.
func (s *Session) emit(name event.Name, audience event.Audience, payload any) {
	evt := event.DomainEvent{
		Name:     name,
		Audience: audience,
		At:       s.now(),
		Payload:  payload,
	}
	select {
	case s.events <- evt:
	default:
		s.log.Warn(fmt.Sprintf("Event channel full, dropping %s", name))
	}
}

// enqueueInternal routes a scheduled transition back into the loop. Unlike
// Dispatch it blocks (bounded by the loop context) because losing a timer
// command would wedge the round state machine.
func (s *Session) enqueueInternal(cmd internalCommand) {
	ctx := s.ctx
	if ctx == nil {
		// Loop not started: deliver best-effort so nothing blocks forever.
		select {
		case s.internal <- cmd:
		default:
			s.log.Warn(fmt.Sprintf("Internal channel full, dropping %s", cmd.internalKind()))
		}
		return
	}
	select {
	case s.internal <- cmd:
	case <-ctx.Done():
	}
}

func (s *Session) handleJoin(c domain.JoinCommand) {
	p, err := s.roster.Add(c.Player, c.Name, s.catalog.Sample(s.rng, domain.TasksPerPlayer))
	if err != nil {
		s.log.Warn("Join rejected", "player", c.Player, "error", err)
		return
	}
	s.statParticipants.Store(int64(s.roster.Len()))
	s.log.Info(fmt.Sprintf("%s joined as %s", p.Name, p.ID))

	s.emit(event.RosterUpdateType, event.ToAll(), s.rosterUpdate())
	s.hydrateProgress(p)
}

// hydrateProgress restores a previously saved task payload, keyed by display
// name so a fresh connection identity still finds it.
func (s *Session) hydrateProgress(p *domain.Participant) {
	if s.progress == nil {
		return
	}
	payload, err := s.progress.Load(p.Name)
	if err != nil || len(payload) == 0 {
		return
	}
	p.SavedProgress = payload
	s.emit(event.TaskProgressRestoreType, event.ToOnly(p.ID), event.TaskProgressRestore{
		TaskProgress: payload,
	})
}

func (s *Session) handleChat(c domain.ChatCommand) {
	p := s.roster.Get(c.Player)
	if p == nil {
		return
	}

	info := whatlanggo.Detect(c.Message)
	langCode := info.Lang.Iso6391()

	sanitized, foundWords := s.moderator.Censor(c.Message)
	if len(foundWords) > 0 {
		s.log.Warn("Chat censored",
			"author", p.Name,
			"lang", langCode,
			"words", len(foundWords))
	}

	s.emit(event.ChatMessageType, event.ToAll(), event.ChatMessage{
		ID:      uuid.New(),
		Player:  string(p.ID),
		Name:    p.Name,
		Color:   p.Color,
		Alive:   p.Alive,
		Role:    p.Role.String(),
		Message: sanitized,
		Lang:    langCode,
		At:      s.now(),
	})
}

func (s *Session) handleRequestState(c domain.RequestStateCommand) {
	p := s.roster.Get(c.Player)
	if p == nil {
		return
	}
	s.emit(event.StateSnapshotType, event.ToOnly(p.ID), event.StateSnapshot{
		Players:          s.playerSummaries(s.roster.All()),
		RoundActive:      s.round.active,
		RemainingSeconds: s.round.remainingSeconds,
	})
	if len(p.SavedProgress) > 0 {
		s.emit(event.TaskProgressRestoreType, event.ToOnly(p.ID), event.TaskProgressRestore{
			TaskProgress: p.SavedProgress,
		})
	}
}

func (s *Session) handleDisconnect(c domain.DisconnectCommand) {
	p, empty := s.roster.Remove(c.Player)
	if p == nil {
		return
	}
	s.statParticipants.Store(int64(s.roster.Len()))
	s.log.Info(fmt.Sprintf("%s disconnected", p.Name))

	s.emit(event.DisconnectedType, event.ToAll(), event.Disconnected{
		Player: string(p.ID),
		Name:   p.Name,
	})
	s.emit(event.RosterUpdateType, event.ToAll(), s.rosterUpdate())

	if empty {
		// Nobody left to play for: drop the round entirely. Bumping the
		// sequence numbers turns any pending tick, meeting resolution or
		// lobby reset into a no-op.
		s.stopRoundTicker()
		s.round.active = false
		s.round.number++
		s.meeting.open = false
		s.meeting.number++
		s.statRoundActive.Store(false)
		s.log.Info("Session empty, round timer cleared")
	}
}

func (s *Session) rosterUpdate() event.RosterUpdate {
	return event.RosterUpdate{Players: s.playerSummaries(s.roster.All())}
}

func (s *Session) playerSummaries(players []*domain.Participant) []event.PlayerSummary {
	out := make([]event.PlayerSummary, 0, len(players))
	for _, p := range players {
		out = append(out, event.PlayerSummary{
			ID:             string(p.ID),
			Name:           p.Name,
			Color:          p.Color,
			Alive:          p.Alive,
			TasksCompleted: p.TasksCompleted,
		})
	}
	return out
}

// savedProgressCount extracts the tasksCompleted counter a client embeds in
// its saved payload. The payload stays opaque otherwise; a malformed blob
// simply reports no count.
func savedProgressCount(payload json.RawMessage) (int, bool) {
	var probe struct {
		TasksCompleted *int `json:"tasksCompleted"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || probe.TasksCompleted == nil {
		return 0, false
	}
	return *probe.TasksCompleted, true
}
