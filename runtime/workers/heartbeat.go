package workers

import (
	"chat-relay/observability"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type HeartbeatWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	registry *runtime.Registry
	interval time.Duration
}

func NewHeartbeatWorker(
	log *slog.Logger,
	monitor *observability.Monitor,
	registry *runtime.Registry,
	interval time.Duration,
) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:      log,
		monitor:  monitor,
		registry: registry,
		interval: interval,
	}
}

// Run logs health metrics (CPU, RAM, session count, relay counters) on
// every tick until the context is canceled.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			counters := w.monitor.Snapshot()
			w.log.Info("Heartbeat",
				"pid", os.Getpid(),
				"pid_status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"sessions", w.registry.Count(),
				"messages_relayed", counters["messages_relayed"],
				"messages_fallback", counters["messages_fallback"],
				"events_delivered", counters["events_delivered"],
				"events_dropped", counters["events_dropped"],
				"auth_failures", counters["auth_failures"],
			)
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
