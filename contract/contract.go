//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"sus-lab/domain"
	"sus-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	SinksFor(audience event.Audience) []EventSink
	Subscribe(participantID domain.ParticipantID, sink EventSink)
	Unsubscribe(participantID domain.ParticipantID)
}

type IOrchestrator interface {
	Dispatch(cmd domain.Command)
	RegisterParticipant(pID domain.ParticipantID, sink EventSink)
	UnregisterParticipant(pID domain.ParticipantID)
	Stats() SessionStats
	Start(ctx context.Context) error
	Stop()
}

// SessionStats is a point-in-time health snapshot, safe to read from any
// goroutine.
type SessionStats struct {
	Participants int
	RoundActive  bool
	RoundNumber  int
}

// ProgressStore persists opaque task-progress payloads across rounds and
// reconnects.
type ProgressStore interface {
	Save(playerName string, payload []byte) error
	Load(playerName string) ([]byte, error)
}
