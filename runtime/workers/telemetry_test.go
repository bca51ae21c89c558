package workers

import (
	"context"
	"log/slog"
	"swarm-relay/domain"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type countingStatus struct {
	calls atomic.Int32
}

func (c *countingStatus) Status() domain.RelayStatus {
	c.calls.Add(1)
	return domain.RelayStatus{Room: "abcd", Peers: 2, Clients: 1}
}

func TestTelemetryWorker_Reports(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	status := &countingStatus{}
	worker := NewTelemetryWorker(log, 10*time.Millisecond, status)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	req.Eventually(func() bool { return status.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

func TestTelemetryWorker_Disabled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	status := &countingStatus{}
	worker := NewTelemetryWorker(log, 0, status)

	err := worker.Run(context.Background())

	req.NoError(err)
	req.Zero(status.calls.Load())
}
