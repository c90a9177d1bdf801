package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PlayerSummary is the public roster entry. Roles are not exposed here;
// the end-of-round summary is the only place roles become public.
type PlayerSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	Alive          bool   `json:"alive"`
	TasksCompleted int    `json:"tasksCompleted"`
}

type RosterUpdate struct {
	Players []PlayerSummary `json:"players"`
}

type TaskInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// RoundStarted is private: each participant receives their own role and
// task set, never anyone else's.
type RoundStarted struct {
	Role    string          `json:"role"`
	Tasks   []TaskInfo      `json:"tasks"`
	Players []PlayerSummary `json:"players"`
}

type TaskProgressRestore struct {
	TaskProgress json.RawMessage `json:"taskProgress"`
}

type CrewmateActivity struct {
	Player     string          `json:"playerId"`
	Name       string          `json:"playerName"`
	Task       string          `json:"task"`
	Progress   float64         `json:"progress"`
	ScreenData json.RawMessage `json:"screenData,omitempty"`
}

type TaskCompletedUpdate struct {
	Player         string `json:"playerId"`
	Name           string `json:"playerName"`
	TaskID         string `json:"taskId"`
	TasksCompleted int    `json:"tasksCompleted"`
}

type SabotageAttempt struct {
	Attacker string `json:"attacker"`
	Target   string `json:"target"`
	Hits     int    `json:"hits"`
	Success  bool   `json:"success"`
	Kind     string `json:"sabotageType"`
}

// KillCooldown is the guarded-retry notice sent to the acting impostor only.
type KillCooldown struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type PlayerKilled struct {
	Player string `json:"playerId"`
	Name   string `json:"playerName"`
}

type KillCooldownStarted struct {
	DurationSeconds int `json:"duration"`
}

type SabotageTriggered struct {
	Kind   string `json:"sabotageType"`
	Target string `json:"targetId,omitempty"`
}

type BodyReported struct {
	Reporter string `json:"reporterId"`
	Name     string `json:"reporterName"`
	Location string `json:"location,omitempty"`
}

type MeetingStarted struct {
	Players         []PlayerSummary `json:"players"`
	DurationSeconds int             `json:"duration"`
}

// VoteSubmitted reveals who voted, never what they chose.
type VoteSubmitted struct {
	Player string `json:"playerId"`
	Name   string `json:"playerName"`
}

type PlayerEjected struct {
	Player string            `json:"playerId"`
	Name   string            `json:"playerName"`
	Role   string            `json:"role"`
	Votes  map[string]int    `json:"votes"`
	Voters map[string]string `json:"voters"`
}

type NoOneEjected struct {
	Tie   bool           `json:"tie"`
	Votes map[string]int `json:"votes"`
}

type RoundTimerUpdate struct {
	Remaining int `json:"remaining"`
	Minutes   int `json:"minutes"`
	Seconds   int `json:"seconds"`
}

type RoundEnded struct {
	Winners string              `json:"winners"`
	Reason  string              `json:"reason"`
	Players []PlayerRoleSummary `json:"players"`
}

// PlayerRoleSummary is the end-of-round reveal including roles.
type PlayerRoleSummary struct {
	Name           string `json:"name"`
	Role           string `json:"role"`
	Alive          bool   `json:"alive"`
	TasksCompleted int    `json:"tasksCompleted"`
}

type ReturnToLobby struct{}

// ChatMessage deliberately exposes alive and role metadata to everyone;
// the game hides nothing on chat.
type ChatMessage struct {
	ID      uuid.UUID `json:"id"`
	Player  string    `json:"playerId"`
	Name    string    `json:"playerName"`
	Color   string    `json:"color"`
	Alive   bool      `json:"alive"`
	Role    string    `json:"role"`
	Message string    `json:"message"`
	Lang    string    `json:"lang,omitempty"`
	At      time.Time `json:"at"`
}

type Disconnected struct {
	Player string `json:"playerId"`
	Name   string `json:"playerName"`
}

// StateSnapshot answers a request-state action, to the requester only.
type StateSnapshot struct {
	Players          []PlayerSummary `json:"players"`
	RoundActive      bool            `json:"roundActive"`
	RemainingSeconds int             `json:"remaining"`
}
