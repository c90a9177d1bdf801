package domain

import (
	"encoding/json"
)

// Command is the tagged sum of every inbound participant action. The wire
// codec translates client frames into these variants and the session command
// loop dispatches them exhaustively, one at a time.
type Command interface {
	// Kind returns the wire action name, used for logging and telemetry.
	Kind() string
	// Actor identifies the connection the action came from.
	Actor() ParticipantID
}

type JoinCommand struct {
	Player ParticipantID
	Name   string
}

func (c JoinCommand) Kind() string         { return "join" }
func (c JoinCommand) Actor() ParticipantID { return c.Player }

type StartRoundCommand struct {
	Player ParticipantID
}

func (c StartRoundCommand) Kind() string         { return "start-round" }
func (c StartRoundCommand) Actor() ParticipantID { return c.Player }

// TaskProgressCommand is the ephemeral "currently working" relay. It never
// mutates state; the session rebroadcasts it to the other participants.
type TaskProgressCommand struct {
	Player     ParticipantID
	Task       string
	Progress   float64
	ScreenData json.RawMessage
}

func (c TaskProgressCommand) Kind() string         { return "task-progress" }
func (c TaskProgressCommand) Actor() ParticipantID { return c.Player }

// SaveTaskProgressCommand persists an opaque client payload so a player can
// restore their tasks after a reconnect or lobby reset.
type SaveTaskProgressCommand struct {
	Player       ParticipantID
	TaskProgress json.RawMessage
}

func (c SaveTaskProgressCommand) Kind() string         { return "save-task-progress" }
func (c SaveTaskProgressCommand) Actor() ParticipantID { return c.Player }

type TaskCompletedCommand struct {
	Player         ParticipantID
	TaskID         string
	TasksCompleted int
}

func (c TaskCompletedCommand) Kind() string         { return "task-completed" }
func (c TaskCompletedCommand) Actor() ParticipantID { return c.Player }

type AttemptSabotageCommand struct {
	Player       ParticipantID
	Target       ParticipantID
	Success      bool
	SabotageType string
}

func (c AttemptSabotageCommand) Kind() string         { return "attempt-sabotage" }
func (c AttemptSabotageCommand) Actor() ParticipantID { return c.Player }

// TriggerSabotageCommand is the stateless environmental-sabotage relay.
type TriggerSabotageCommand struct {
	Player       ParticipantID
	SabotageType string
	Target       ParticipantID
}

func (c TriggerSabotageCommand) Kind() string         { return "trigger-sabotage" }
func (c TriggerSabotageCommand) Actor() ParticipantID { return c.Player }

type ReportBodyCommand struct {
	Player   ParticipantID
	Location string
}

func (c ReportBodyCommand) Kind() string         { return "report-body" }
func (c ReportBodyCommand) Actor() ParticipantID { return c.Player }

type EmergencyMeetingCommand struct {
	Player ParticipantID
}

func (c EmergencyMeetingCommand) Kind() string         { return "emergency-meeting" }
func (c EmergencyMeetingCommand) Actor() ParticipantID { return c.Player }

type SubmitVoteCommand struct {
	Player ParticipantID
	Ballot Vote
}

func (c SubmitVoteCommand) Kind() string         { return "submit-vote" }
func (c SubmitVoteCommand) Actor() ParticipantID { return c.Player }

type ChatCommand struct {
	Player  ParticipantID
	Message string
}

func (c ChatCommand) Kind() string         { return "chat-message" }
func (c ChatCommand) Actor() ParticipantID { return c.Player }

type RequestStateCommand struct {
	Player ParticipantID
}

func (c RequestStateCommand) Kind() string         { return "request-state" }
func (c RequestStateCommand) Actor() ParticipantID { return c.Player }

// DisconnectCommand is synthesized by the transport layer when a socket
// closes; clients never send it themselves.
type DisconnectCommand struct {
	Player ParticipantID
}

func (c DisconnectCommand) Kind() string         { return "disconnect" }
func (c DisconnectCommand) Actor() ParticipantID { return c.Player }
