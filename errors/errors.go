package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidFrame     = fmt.Errorf("invalid frame")
	ErrUnknownFrameType = fmt.Errorf("unknown frame type")
	ErrEmptySender      = fmt.Errorf("chat message without sender")

	ErrNoActiveRoom = fmt.Errorf("no active room")
	ErrInvalidTopic = fmt.Errorf("invalid room topic")
	ErrSwarmClosed  = fmt.Errorf("swarm is closed")

	ErrSinkClosed = fmt.Errorf("sink is closed")
)
