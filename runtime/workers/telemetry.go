package workers

import (
	"context"
	"log/slog"
	"os"
	"swarm-relay/contract"
	"swarm-relay/domain"
	"time"

	"github.com/shirou/gopsutil/process"
)

type statusProvider interface {
	Status() domain.RelayStatus
}

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker periodically logs the relay load and the process footprint.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	relay    statusProvider
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, relay statusProvider) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, relay: relay}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.log.Debug("Telemetry disabled")
		return nil
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	status := w.relay.Status()
	attrs := []any{
		"room", status.Room,
		"peers", status.Peers,
		"clients", status.Clients,
	}
	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu)
	}
	w.log.Info("Relay telemetry", attrs...)
}

// selfStats retrieves memory and CPU usage of the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
