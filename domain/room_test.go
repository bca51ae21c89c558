package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomState_SetAndClear(t *testing.T) {
	room := NewRoomState()

	_, ok := room.Current()
	require.False(t, ok)

	room.Set("aa")
	room.Set("bb")
	topic, ok := room.Current()
	require.True(t, ok)
	require.Equal(t, "bb", topic)

	room.Clear()
	topic, ok = room.Current()
	require.False(t, ok)
	require.Empty(t, topic)
}

func TestRoomState_ConcurrentReadersSeeACompleteWrite(t *testing.T) {
	room := NewRoomState()
	topics := map[string]bool{"aa": true, "bb": true}

	var wg sync.WaitGroup
	for topic := range topics {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				room.Set(topic)
			}
		}()
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if topic, ok := room.Current(); ok {
					require.True(t, topics[topic])
				}
			}
		}()
	}
	wg.Wait()

	topic, ok := room.Current()
	require.True(t, ok)
	require.True(t, topics[topic])
}

func TestRoomState_ApplyKeepsTheNewestResult(t *testing.T) {
	req := require.New(t)
	room := NewRoomState()

	// Given the swarm moved to bb after aa
	req.True(room.Apply(RoomResult{Done: true, Topic: "bb", Seq: 2}))

	// When the result for aa resolves late, it is ignored
	req.False(room.Apply(RoomResult{Done: true, Topic: "aa", Seq: 1}))
	topic, ok := room.Current()
	req.True(ok)
	req.Equal("bb", topic)

	// Then a repeated join of the same room is still applied
	req.True(room.Apply(RoomResult{Done: true, Topic: "bb", Seq: 2}))
	req.True(room.Apply(RoomResult{Done: true, Topic: "cc", Seq: 3}))
	topic, _ = room.Current()
	req.Equal("cc", topic)
}
