package workers

import (
	"chispa/domain/event"
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Telemetry samples the service's own process at a fixed interval and emits
// the readings as ProcessStats events. Samples carry no conversation id, only
// permanent sinks ever see them.
type Telemetry struct {
	log      *slog.Logger
	events   chan<- event.DomainEvent
	interval time.Duration
	proc     *process.Process
}

func NewTelemetry(log *slog.Logger, events chan<- event.DomainEvent, interval time.Duration) (*Telemetry, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Telemetry{log: log, events: events, interval: interval, proc: proc}, nil
}

func (w *Telemetry) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := w.sample()
			if err != nil {
				w.log.Warn("Process sampling failed", "error", err)
				continue
			}
			select {
			case w.events <- stats:
			default:
				w.log.Debug("Telemetry sample dropped, pipeline busy")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		}
	}
}

func (w *Telemetry) sample() (event.ProcessStats, error) {
	cpu, err := w.proc.CPUPercent()
	if err != nil {
		return event.ProcessStats{}, err
	}
	ram, err := w.proc.MemoryPercent()
	if err != nil {
		return event.ProcessStats{}, err
	}
	return event.ProcessStats{
		CPU:        cpu,
		RAM:        ram,
		Goroutines: runtime.NumGoroutine(),
		At:         time.Now().UTC(),
	}, nil
}
