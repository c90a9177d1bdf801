package runtime

import (
	"context"
	"fmt"
	"time"

	"sus-lab/domain"
	"sus-lab/domain/event"
)

// handleStartRound deals roles and tasks, resets the round-scoped state and
// starts the countdown. Starting while a round is already running is an
// idempotent restart: the previous ticker is always canceled first.
func (s *Session) handleStartRound(c domain.StartRoundCommand) {
	if s.roster.Get(c.Player) == nil {
		return
	}
	if s.roster.Len() < 1 {
		return
	}

	s.stopRoundTicker()
	s.round.number++
	s.round.active = true
	s.round.remainingSeconds = int(s.settings.RoundDuration.Seconds())
	s.round.impostorExisted = domain.AssignRoles(s.roster, s.catalog, s.rng)
	s.cooldowns.Reset()
	s.meeting.open = false

	s.statRoundActive.Store(true)
	s.statRoundNumber.Store(int64(s.round.number))
	s.log.Info(fmt.Sprintf("Round %d started with %d players", s.round.number, s.roster.Len()))

	// Private deal: each participant learns their own role and tasks, plus
	// the public roster. Crewmates with a saved payload get it back.
	roster := s.playerSummaries(s.roster.All())
	for _, p := range s.roster.All() {
		s.emit(event.RoundStartedType, event.ToOnly(p.ID), event.RoundStarted{
			Role:    p.Role.String(),
			Tasks:   taskInfos(p.Tasks),
			Players: roster,
		})
		if p.Role == domain.RoleCrewmate && len(p.SavedProgress) > 0 {
			s.emit(event.TaskProgressRestoreType, event.ToOnly(p.ID), event.TaskProgressRestore{
				TaskProgress: p.SavedProgress,
			})
		}
	}

	s.startRoundTicker()
}

func taskInfos(tasks []domain.Task) []event.TaskInfo {
	out := make([]event.TaskInfo, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, event.TaskInfo{ID: t.ID, Name: t.Name, Duration: t.Duration})
	}
	return out
}

// startRoundTicker owns the countdown goroutine. It never mutates session
// state: every tick is routed back into the command loop tagged with the
// round number so ticks from a replaced round are ignored.
func (s *Session) startRoundTicker() {
	base := s.ctx
	if base == nil {
		base = context.Background()
	}
	tickerCtx, cancel := context.WithCancel(base)
	s.round.stopTicker = cancel

	round := s.round.number
	interval := s.settings.TickInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				select {
				case s.internal <- roundTickCommand{round: round}:
				case <-tickerCtx.Done():
					return
				}
			}
		}
	}()
}

func (s *Session) stopRoundTicker() {
	if s.round.stopTicker != nil {
		s.round.stopTicker()
		s.round.stopTicker = nil
	}
}

func (s *Session) handleRoundTick(c roundTickCommand) {
	if !s.round.active || c.round != s.round.number {
		return
	}

	s.round.remainingSeconds--
	remaining := s.round.remainingSeconds
	s.emit(event.RoundTimerUpdateType, event.ToAll(), event.RoundTimerUpdate{
		Remaining: remaining,
		Minutes:   remaining / 60,
		Seconds:   remaining % 60,
	})

	if remaining <= 0 {
		s.stopRoundTicker()
		s.evaluateWin(true)
	}
}

// evaluateWin runs the pure win rules and ends the round on a verdict.
// Called after every elimination, after a qualifying task update and when
// the timer expires.
func (s *Session) evaluateWin(timerExpired bool) {
	if !s.round.active {
		return
	}
	verdict := domain.EvaluateWin(s.roster, s.round.impostorExisted, timerExpired, s.settings.TaskGoal)
	if !verdict.Decided() {
		return
	}
	s.endRound(verdict)
}

func (s *Session) endRound(verdict domain.Verdict) {
	s.stopRoundTicker()
	s.round.active = false
	s.meeting.open = false
	s.statRoundActive.Store(false)
	s.log.Info(fmt.Sprintf("Round %d ended: %s win (%s)",
		s.round.number, verdict.Winner, verdict.Reason))

	summary := make([]event.PlayerRoleSummary, 0, s.roster.Len())
	for _, p := range s.roster.All() {
		summary = append(summary, event.PlayerRoleSummary{
			Name:           p.Name,
			Role:           p.Role.String(),
			Alive:          p.Alive,
			TasksCompleted: p.TasksCompleted,
		})
	}
	s.emit(event.RoundEndedType, event.ToAll(), event.RoundEnded{
		Winners: verdict.Winner.String(),
		Reason:  verdict.Reason,
		Players: summary,
	})

	// Exactly one lobby reset per ended round; a newer round makes it stale.
	round := s.round.number
	time.AfterFunc(s.settings.LobbyResetDelay, func() {
		s.enqueueInternal(lobbyResetCommand{round: round})
	})
}

// handleLobbyReset clears every round-scoped field and sends everyone back
// to the lobby. Saved task payloads survive on purpose.
func (s *Session) handleLobbyReset(c lobbyResetCommand) {
	if c.round != s.round.number || s.round.active {
		return
	}
	for _, p := range s.roster.All() {
		p.ResetForRound(s.catalog.Sample(s.rng, domain.TasksPerPlayer))
	}
	s.cooldowns.Reset()
	s.round.remainingSeconds = 0
	s.log.Info("Returned to lobby")
	s.emit(event.ReturnToLobbyType, event.ToAll(), event.ReturnToLobby{})
}

func (s *Session) handleTaskProgress(c domain.TaskProgressCommand) {
	p := s.roster.Get(c.Player)
	if p == nil || p.Role != domain.RoleCrewmate {
		return
	}
	// Ephemeral relay: nothing to persist, the others just see the activity.
	s.emit(event.CrewmateActivityType, event.ToAllExcept(p.ID), event.CrewmateActivity{
		Player:     string(p.ID),
		Name:       p.Name,
		Task:       c.Task,
		Progress:   c.Progress,
		ScreenData: c.ScreenData,
	})
}

func (s *Session) handleSaveTaskProgress(c domain.SaveTaskProgressCommand) {
	p := s.roster.Get(c.Player)
	if p == nil || len(c.TaskProgress) == 0 {
		return
	}
	p.SavedProgress = c.TaskProgress
	if count, ok := savedProgressCount(c.TaskProgress); ok {
		p.TasksCompleted = clampTasks(count, s.settings.TaskGoal)
	}

	if s.progress != nil {
		if err := s.progress.Save(p.Name, c.TaskProgress); err != nil {
			s.log.Error("Failed to persist task progress", "player", p.Name, "error", err)
		}
	}

	if p.TasksCompleted >= s.settings.TaskGoal {
		s.evaluateWin(false)
	}
}

func (s *Session) handleTaskCompleted(c domain.TaskCompletedCommand) {
	p := s.roster.Get(c.Player)
	if p == nil || p.Role != domain.RoleCrewmate {
		return
	}

	p.TasksCompleted = clampTasks(c.TasksCompleted, s.settings.TaskGoal)
	for slot, t := range p.Tasks {
		if t.ID == c.TaskID {
			p.TaskDone[slot+1] = true
		}
	}

	s.emit(event.TaskCompletedUpdateType, event.ToAll(), event.TaskCompletedUpdate{
		Player:         string(p.ID),
		Name:           p.Name,
		TaskID:         c.TaskID,
		TasksCompleted: p.TasksCompleted,
	})
	s.evaluateWin(false)
}

func clampTasks(count, goal int) int {
	if count < 0 {
		return 0
	}
	if count > goal {
		return goal
	}
	return count
}
