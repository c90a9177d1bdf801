package runtime

import (
	"fmt"
	"math"

	"sus-lab/domain"
	"sus-lab/domain/event"
)

// handleAttemptSabotage applies one sabotage hit against a target.
//
// Role preconditions failing means a stale or non-authoritative client; the
// action is silently dropped, never answered. The cooldown guard engages
// only once the target already sits at the elimination threshold:
// sub-threshold hits accumulate freely regardless of cooldown. That
// asymmetry is observed game behavior, kept as-is.
func (s *Session) handleAttemptSabotage(c domain.AttemptSabotageCommand) {
	actor := s.roster.Get(c.Player)
	target := s.roster.Get(c.Target)
	if actor == nil || target == nil {
		return
	}
	if actor.Role != domain.RoleImpostor || target.Role != domain.RoleCrewmate {
		return
	}

	threshold := s.settings.EliminationThreshold
	if target.SabotageHits >= threshold {
		if remaining := s.cooldowns.Remaining(actor.ID, s.now()); remaining > 0 {
			s.emit(event.KillCooldownType, event.ToOnly(actor.ID), event.KillCooldown{
				RemainingSeconds: int(math.Ceil(remaining.Seconds())),
			})
			return
		}
	}

	target.SabotageHits++
	s.emit(event.SabotageAttemptType, event.ToAll(), event.SabotageAttempt{
		Attacker: actor.Name,
		Target:   target.Name,
		Hits:     target.SabotageHits,
		Success:  c.Success,
		Kind:     c.SabotageType,
	})

	// Elimination fires exactly once: the alive flag is monotonic, so a
	// target already past the threshold can never die twice.
	if target.SabotageHits >= threshold && target.Alive {
		target.Eliminate()
		s.cooldowns.Record(actor.ID, s.now())
		s.log.Info(fmt.Sprintf("%s was eliminated by %s", target.Name, actor.Name))

		s.emit(event.PlayerKilledType, event.ToAll(), event.PlayerKilled{
			Player: string(target.ID),
			Name:   target.Name,
		})
		s.emit(event.KillCooldownStartedType, event.ToOnly(actor.ID), event.KillCooldownStarted{
			DurationSeconds: int(s.settings.KillCooldownWindow.Seconds()),
		})
		s.evaluateWin(false)
	}
}

// handleTriggerSabotage relays an environmental sabotage to everyone except
// the saboteur. No health, cooldown or elimination state is touched.
func (s *Session) handleTriggerSabotage(c domain.TriggerSabotageCommand) {
	actor := s.roster.Get(c.Player)
	if actor == nil || actor.Role != domain.RoleImpostor {
		return
	}
	s.emit(event.SabotageTriggeredType, event.ToAllExcept(actor.ID), event.SabotageTriggered{
		Kind:   c.SabotageType,
		Target: string(c.Target),
	})
}
