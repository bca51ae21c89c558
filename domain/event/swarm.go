// Package event holds what the swarm backend reports to the relay.
package event

import (
	"swarm-relay/domain"
	"time"
)

// SwarmEvent is closed: PeerConnected, PeerData, PeerFailed, SwarmUpdated.
type SwarmEvent interface {
	OccurredAt() time.Time
	isSwarmEvent()
}

type PeerConnected struct {
	Peer     domain.PeerID
	MemberID string
	At       time.Time
}

// PeerData is a raw payload received from a peer, not decoded yet.
type PeerData struct {
	Peer     domain.PeerID
	MemberID string
	Payload  []byte
	At       time.Time
}

type PeerFailed struct {
	Peer     domain.PeerID
	MemberID string
	Err      error
	At       time.Time
}

// SwarmUpdated is emitted whenever the number of connected peers changes.
type SwarmUpdated struct {
	PeerCount int
	At        time.Time
}

func (e PeerConnected) OccurredAt() time.Time { return e.At }
func (e PeerData) OccurredAt() time.Time      { return e.At }
func (e PeerFailed) OccurredAt() time.Time    { return e.At }
func (e SwarmUpdated) OccurredAt() time.Time  { return e.At }

func (PeerConnected) isSwarmEvent() {}
func (PeerData) isSwarmEvent()      {}
func (PeerFailed) isSwarmEvent()    {}
func (SwarmUpdated) isSwarmEvent()  {}
