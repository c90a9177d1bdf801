package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"sus-lab/domain/event"
)

// TelemetryWorker counts event throughput by name and periodically logs the
// counters alongside the process's own resource usage (RSS, CPU, status).
// Pure observability: losing telemetry events never affects the game.
type TelemetryWorker struct {
	log           *slog.Logger
	interval      time.Duration
	telemetryChan chan event.DomainEvent
	counters      map[event.Name]uint64
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration,
	telemetryChan chan event.DomainEvent) *TelemetryWorker {
	return &TelemetryWorker{
		log:           log,
		interval:      interval,
		telemetryChan: telemetryChan,
		counters:      make(map[event.Name]uint64),
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case evt := <-w.telemetryChan:
			w.counters[evt.Name]++
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *TelemetryWorker) report(proc *process.Process) {
	var total uint64
	for _, n := range w.counters {
		total += n
	}

	rss, cpu, status, err := selfStats(proc)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
		w.log.Info(fmt.Sprintf("%d events fanned out since start", total))
		return
	}

	w.log.Info("Telemetry",
		"events_total", total,
		"ram_bytes", rss,
		"cpu_percent", fmt.Sprintf("%.1f", cpu),
		"status", status)
}

// selfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
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
