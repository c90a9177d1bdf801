package runtime

import (
	"time"
)

// Settings bundles every game constant. The command loop never reads the
// environment itself; cmd/server resolves the configuration once and hands
// it over here.
type Settings struct {
	RoundDuration        time.Duration
	MeetingDuration      time.Duration
	KillCooldownWindow   time.Duration
	LobbyResetDelay      time.Duration
	TickInterval         time.Duration
	EliminationThreshold int
	TaskGoal             int
}

func DefaultSettings() Settings {
	return Settings{
		RoundDuration:        5 * time.Minute,
		MeetingDuration:      30 * time.Second,
		KillCooldownWindow:   30 * time.Second,
		LobbyResetDelay:      5 * time.Second,
		TickInterval:         1 * time.Second,
		EliminationThreshold: 3,
		TaskGoal:             3,
	}
}
