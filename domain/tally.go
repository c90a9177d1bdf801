package domain

// VoteResult is the outcome of resolving a voting window.
// Counts and Choices may reference identities that already left the session;
// a dangling target accumulates votes but can never be ejected.
type VoteResult struct {
	Counts  map[ParticipantID]int           // target -> ballots received
	Choices map[ParticipantID]ParticipantID // voter -> chosen target
	Ejected *Participant                    // nil when nobody is ejected
	Tie     bool                            // two or more targets shared the maximum
}

// TallyVotes counts every cast ballot among the current participants.
// Ballots are not filtered by voter aliveness at tally time: a voter who
// died after casting still counts. A unique strictly-highest target with at
// least one vote is ejected; a shared maximum ejects nobody and flags a tie.
func TallyVotes(roster *Roster) VoteResult {
	res := VoteResult{
		Counts:  make(map[ParticipantID]int),
		Choices: make(map[ParticipantID]ParticipantID),
	}

	for _, p := range roster.All() {
		if !p.Ballot.Cast {
			continue
		}
		res.Counts[p.Ballot.Target]++
		res.Choices[p.ID] = p.Ballot.Target
	}

	var (
		top     ParticipantID
		topHits int
		tied    bool
	)
	for target, hits := range res.Counts {
		switch {
		case hits > topHits:
			top, topHits, tied = target, hits, false
		case hits == topHits && topHits > 0:
			tied = true
		}
	}

	if topHits == 0 {
		return res
	}
	if tied {
		res.Tie = true
		return res
	}
	// The winner of the tally may have disconnected since voting opened.
	res.Ejected = roster.Get(top)
	return res
}

// ClearVotes resets every ballot, at meeting start and after resolution.
func ClearVotes(roster *Roster) {
	for _, p := range roster.All() {
		p.Ballot = NoVote()
	}
}
