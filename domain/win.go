package domain

// Winner identifies which faction ended the round, if any.
type Winner int

const (
	WinnerNone Winner = iota
	WinnerCrewmates
	WinnerImpostors
)

func (w Winner) String() string {
	switch w {
	case WinnerCrewmates:
		return "crewmates"
	case WinnerImpostors:
		return "impostors"
	default:
		return "none"
	}
}

// Round-end reasons, also used verbatim on the wire.
const (
	ReasonImpostorsEliminated = "impostors eliminated"
	ReasonOutnumbered         = "outnumbered"
	ReasonTasksComplete       = "tasks complete"
	ReasonTimeExpired         = "time expired"
)

// Verdict is the win evaluator's answer. A zero Verdict means the round
// continues.
type Verdict struct {
	Winner Winner
	Reason string
}

func (v Verdict) Decided() bool {
	return v.Winner != WinnerNone
}

// EvaluateWin is a pure function over the current roster. It runs after
// every elimination and when the round timer expires. The rules are ordered;
// the first match wins.
//
// impostorExisted distinguishes "the impostor is gone" from solo practice
// rounds that never had one. taskGoal is the per-crewmate completion target.
func EvaluateWin(roster *Roster, impostorExisted, timerExpired bool, taskGoal int) Verdict {
	var aliveImpostors, aliveCrewmates int
	crewmates := 0
	crewTasksDone := true
	for _, p := range roster.All() {
		switch p.Role {
		case RoleImpostor:
			if p.Alive {
				aliveImpostors++
			}
		case RoleCrewmate:
			crewmates++
			if p.Alive {
				aliveCrewmates++
			}
			if p.TasksCompleted < taskGoal {
				crewTasksDone = false
			}
		}
	}

	if impostorExisted && aliveImpostors == 0 {
		return Verdict{Winner: WinnerCrewmates, Reason: ReasonImpostorsEliminated}
	}
	if aliveImpostors > 0 && aliveImpostors >= aliveCrewmates {
		return Verdict{Winner: WinnerImpostors, Reason: ReasonOutnumbered}
	}
	// Task completion counts dead crewmates too: finishing the last task
	// posthumously still wins the round.
	if crewmates > 0 && crewTasksDone {
		return Verdict{Winner: WinnerCrewmates, Reason: ReasonTasksComplete}
	}
	if timerExpired {
		return Verdict{Winner: WinnerImpostors, Reason: ReasonTimeExpired}
	}
	return Verdict{}
}
