package runtime

import (
	"fmt"
	"time"

	"sus-lab/domain"
	"sus-lab/domain/event"
)

// handleReportBody opens a meeting on behalf of an alive reporter and tells
// everyone where the body was found.
func (s *Session) handleReportBody(c domain.ReportBodyCommand) {
	reporter := s.roster.Get(c.Player)
	if reporter == nil || !reporter.Alive {
		return
	}
	if !s.round.active || s.meeting.open {
		return
	}
	s.emit(event.BodyReportedType, event.ToAll(), event.BodyReported{
		Reporter: string(reporter.ID),
		Name:     reporter.Name,
		Location: c.Location,
	})
	s.openMeeting()
}

func (s *Session) handleEmergencyMeeting(c domain.EmergencyMeetingCommand) {
	caller := s.roster.Get(c.Player)
	if caller == nil || !caller.Alive {
		return
	}
	if !s.round.active || s.meeting.open {
		return
	}
	s.openMeeting()
}

// openMeeting clears every ballot, snapshots the alive roster and schedules
// the deferred resolution. The meeting sequence number makes the scheduled
// resolution a no-op if the window already resolved early or the session
// emptied meanwhile.
func (s *Session) openMeeting() {
	domain.ClearVotes(s.roster)
	s.meeting.open = true
	s.meeting.number++
	s.log.Info(fmt.Sprintf("Meeting %d opened", s.meeting.number))

	s.emit(event.MeetingStartedType, event.ToAll(), event.MeetingStarted{
		Players:         s.playerSummaries(s.roster.Alive()),
		DurationSeconds: int(s.settings.MeetingDuration.Seconds()),
	})

	meeting := s.meeting.number
	time.AfterFunc(s.settings.MeetingDuration, func() {
		s.enqueueInternal(meetingTimeoutCommand{meeting: meeting})
	})
}

// handleSubmitVote records a ballot during an open meeting. Only alive
// participants may vote; the last ballot wins. Everyone learns that the
// voter voted, never what they chose.
func (s *Session) handleSubmitVote(c domain.SubmitVoteCommand) {
	if !s.meeting.open {
		return
	}
	voter := s.roster.Get(c.Player)
	if voter == nil || !voter.Alive {
		return
	}

	voter.Ballot = c.Ballot
	s.emit(event.VoteSubmittedType, event.ToAll(), event.VoteSubmitted{
		Player: string(voter.ID),
		Name:   voter.Name,
	})

	// Early resolution: once every living participant has a cast ballot
	// there is nothing left to wait for.
	for _, p := range s.roster.Alive() {
		if !p.Ballot.Cast {
			return
		}
	}
	s.resolveVotes()
}

func (s *Session) handleMeetingTimeout(c meetingTimeoutCommand) {
	if !s.meeting.open || c.meeting != s.meeting.number {
		return
	}
	s.resolveVotes()
}

// resolveVotes tallies the window and transitions back to Idle. Ballots are
// not filtered by voter aliveness at tally time: a voter who died after
// casting still counts. A unique strictly-highest target is ejected; a tie
// ejects nobody.
func (s *Session) resolveVotes() {
	s.meeting.open = false

	result := domain.TallyVotes(s.roster)
	votes := make(map[string]int, len(result.Counts))
	for target, hits := range result.Counts {
		votes[s.displayName(target)] = hits
	}
	voters := make(map[string]string, len(result.Choices))
	for voter, target := range result.Choices {
		voters[s.displayName(voter)] = s.displayName(target)
	}

	if result.Ejected == nil {
		s.log.Info(fmt.Sprintf("Meeting %d resolved, nobody ejected (tie=%t)",
			s.meeting.number, result.Tie))
		s.emit(event.NoOneEjectedType, event.ToAll(), event.NoOneEjected{
			Tie:   result.Tie,
			Votes: votes,
		})
		domain.ClearVotes(s.roster)
		return
	}

	ejected := result.Ejected
	ejected.Eliminate()
	s.log.Info(fmt.Sprintf("%s was ejected (%s)", ejected.Name, ejected.Role))
	s.emit(event.PlayerEjectedType, event.ToAll(), event.PlayerEjected{
		Player: string(ejected.ID),
		Name:   ejected.Name,
		Role:   ejected.Role.String(),
		Votes:  votes,
		Voters: voters,
	})
	domain.ClearVotes(s.roster)
	s.evaluateWin(false)
}

// displayName resolves an identity for the vote maps, falling back to the
// raw identity for participants that already left.
func (s *Session) displayName(id domain.ParticipantID) string {
	if p := s.roster.Get(id); p != nil {
		return p.Name
	}
	return string(id)
}
