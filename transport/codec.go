// Package transport is the collaborator layer around the session core: it
// accepts WebSocket connections, frames messages and serves the static
// client assets. Identities are minted here; the core never sees a socket.
package transport

import (
	"encoding/json"
	"fmt"

	"sus-lab/domain"
	"sus-lab/domain/event"
)

// inboundFrame is the superset of every client action; Type selects which
// fields are meaningful.
type inboundFrame struct {
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	Task           string          `json:"task"`
	Progress       float64         `json:"progress"`
	ScreenData     json.RawMessage `json:"screenData"`
	TaskProgress   json.RawMessage `json:"taskProgress"`
	TaskID         string          `json:"taskId"`
	TasksCompleted int             `json:"tasksCompleted"`
	TargetID       string          `json:"targetId"`
	Success        bool            `json:"success"`
	SabotageType   string          `json:"sabotageType"`
	Location       string          `json:"location"`
	VotedFor       *string         `json:"votedFor"`
	Message        string          `json:"message"`
}

// DecodeCommand turns a client frame into the matching command variant.
// Unknown or malformed frames come back as errors; the endpoint drops them
// without touching the session.
func DecodeCommand(player domain.ParticipantID, data []byte) (domain.Command, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch frame.Type {
	case "join":
		return domain.JoinCommand{Player: player, Name: frame.Name}, nil
	case "start-round":
		return domain.StartRoundCommand{Player: player}, nil
	case "task-progress":
		return domain.TaskProgressCommand{
			Player:     player,
			Task:       frame.Task,
			Progress:   frame.Progress,
			ScreenData: frame.ScreenData,
		}, nil
	case "save-task-progress":
		return domain.SaveTaskProgressCommand{
			Player:       player,
			TaskProgress: frame.TaskProgress,
		}, nil
	case "task-completed":
		return domain.TaskCompletedCommand{
			Player:         player,
			TaskID:         frame.TaskID,
			TasksCompleted: frame.TasksCompleted,
		}, nil
	case "attempt-sabotage":
		return domain.AttemptSabotageCommand{
			Player:       player,
			Target:       domain.ParticipantID(frame.TargetID),
			Success:      frame.Success,
			SabotageType: frame.SabotageType,
		}, nil
	case "trigger-sabotage":
		return domain.TriggerSabotageCommand{
			Player:       player,
			SabotageType: frame.SabotageType,
			Target:       domain.ParticipantID(frame.TargetID),
		}, nil
	case "report-body":
		return domain.ReportBodyCommand{Player: player, Location: frame.Location}, nil
	case "emergency-meeting":
		return domain.EmergencyMeetingCommand{Player: player}, nil
	case "submit-vote":
		ballot := domain.NoVote()
		if frame.VotedFor != nil && *frame.VotedFor != "" {
			ballot = domain.VoteFor(domain.ParticipantID(*frame.VotedFor))
		}
		return domain.SubmitVoteCommand{Player: player, Ballot: ballot}, nil
	case "chat-message":
		return domain.ChatCommand{Player: player, Message: frame.Message}, nil
	case "request-state":
		return domain.RequestStateCommand{Player: player}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", frame.Type)
	}
}

// outboundFrame is the server-to-client envelope.
type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	At    string `json:"at"`
}

func EncodeEvent(evt event.DomainEvent) ([]byte, error) {
	return json.Marshal(outboundFrame{
		Event: string(evt.Name),
		Data:  evt.Payload,
		At:    evt.At.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
