package domain

import (
	"math/rand"
)

// AssignRoles prepares every participant for a new round and deals roles:
// with two or more players exactly one uniformly random Impostor, the rest
// Crewmates; a single player becomes a solo Crewmate with no Impostor at all
// (practice mode). It reports whether an Impostor exists this round.
//
// Each participant receives a fresh task sample; saved task payloads are
// preserved by ResetForRound and restored separately by the session.
func AssignRoles(roster *Roster, catalog Catalog, rng *rand.Rand) bool {
	players := roster.All()
	if len(players) == 0 {
		return false
	}

	for _, p := range players {
		p.ResetForRound(catalog.Sample(rng, TasksPerPlayer))
		p.Role = RoleCrewmate
	}

	if len(players) < 2 {
		return false
	}
	players[rng.Intn(len(players))].Role = RoleImpostor
	return true
}
