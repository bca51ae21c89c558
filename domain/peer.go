package domain

// PeerID is the identity the swarm assigns to a remote peer.
type PeerID string

// RoomResult is what the swarm answers to a create or join.
// Seq orders the room changes of one swarm; a later change has a higher Seq.
type RoomResult struct {
	Done  bool
	Topic string
	Seq   uint64
}

// RelayStatus is a point-in-time view used by the status endpoint and telemetry.
type RelayStatus struct {
	Room    string
	Peers   int
	Clients int
}
