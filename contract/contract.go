//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Supervision (panics, restarts) is the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding a manual naming method on
// the Worker interface.
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

// EventSink receives protocol events destined to one session.
// Consume must never block beyond the deadline carried by ctx.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// MessageStore is the durable side of the relay. Append is best effort
// from the pipeline's point of view: a failing store degrades the relay
// to its in-memory window, it never stops delivery.
type MessageStore interface {
	Append(ctx context.Context, m domain.Message) (string, error)
	Recent(ctx context.Context, room string, limit int) ([]domain.Message, error)
	Stats(ctx context.Context, room string) (domain.RoomStats, error)
}
