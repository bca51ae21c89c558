package runtime

import (
	"context"
	"fmt"
	"swarm-relay/contract"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	id string
}

func (s *fakeSink) ID() string                         { return s.id }
func (s *fakeSink) Send(context.Context, []byte) error { return nil }
func (s *fakeSink) Close() error                       { return nil }

func ids(sinks []contract.Sink) []string {
	result := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		result = append(result, sink.ID())
	}
	return result
}

func TestRegistry_AddRemove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	a, b, c := &fakeSink{id: "a"}, &fakeSink{id: "b"}, &fakeSink{id: "c"}

	// Given three clients, one added twice
	registry.Add(a)
	registry.Add(b)
	registry.Add(a)
	registry.Add(c)
	req.Equal(3, registry.Len())
	req.Equal([]string{"a", "b", "c"}, ids(registry.Snapshot()))

	// When one leaves, twice
	registry.Remove(b)
	registry.Remove(b)

	// Then the order of the others is kept
	req.Equal(2, registry.Len())
	req.Equal([]string{"a", "c"}, ids(registry.Snapshot()))

	// Removing an unknown sink is harmless
	registry.Remove(&fakeSink{id: "z"})
	req.Equal(2, registry.Len())
}

func TestRegistry_ForEachMayMutate(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Add(&fakeSink{id: "a"})
	registry.Add(&fakeSink{id: "b"})

	var visited []string
	registry.ForEach(func(sink contract.Sink) {
		visited = append(visited, sink.ID())
		registry.Remove(sink)
	})

	req.Equal([]string{"a", "b"}, visited)
	req.Zero(registry.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink := &fakeSink{id: fmt.Sprintf("client-%d", i)}
			registry.Add(sink)
			_ = registry.Snapshot()
			if i%2 == 0 {
				registry.Remove(sink)
			}
		}()
	}
	wg.Wait()

	req.Equal(25, registry.Len())
}
