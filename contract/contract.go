//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"swarm-relay/domain"
	"swarm-relay/domain/event"
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

// Sink is one connected UI client, whatever the transport.
type Sink interface {
	ID() string
	Send(ctx context.Context, payload []byte) error
	Close() error
}

type IRegistry interface {
	Add(sink Sink)
	Remove(sink Sink)
	ForEach(fn func(sink Sink))
	Snapshot() []Sink
	Len() int
}

type IBroadcaster interface {
	Broadcast(ctx context.Context, msg domain.RelayMessage)
	SendTo(ctx context.Context, sink Sink, msg domain.RelayMessage) error
}

type IDispatcher interface {
	Dispatch(ctx context.Context, issuer Sink, line string)
}

// ISwarm is the peer-to-peer network seen from the relay.
// Discovery, topic derivation and peer wire messaging stay behind it.
type ISwarm interface {
	Events() <-chan event.SwarmEvent
	CreateRoom(ctx context.Context) (domain.RoomResult, error)
	JoinRoom(ctx context.Context, key string) (domain.RoomResult, error)
	SendMessage(ctx context.Context, text string) error
	PeerCount() int
	Version() string
	MemberID(peer domain.PeerID) string
	Close() error
}
