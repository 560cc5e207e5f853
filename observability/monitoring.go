// Package observability aggregates the telemetry stream into counters and
// gauges served by the health endpoint.
package observability

import (
	"chispa/domain/event"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of the service.
type Stats struct {
	MessagesSent         int64     `json:"messages_sent"`
	ConversationsTouched int64     `json:"conversations_touched"`
	CPU                  float64   `json:"cpu_percent"`
	RAM                  float32   `json:"ram_percent"`
	Goroutines           int       `json:"goroutines"`
	SampledAt            time.Time `json:"sampled_at"`
}

// Monitor drains the telemetry stream in its own goroutine and keeps the
// latest process sample plus running counters. Reading Stats never touches
// the pipeline.
type Monitor struct {
	log *slog.Logger

	messagesSent         atomic.Int64
	conversationsTouched atomic.Int64

	mu     sync.RWMutex
	sample event.ProcessStats
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log}
}

// Run consumes telemetry events until the context is canceled. It runs as a
// supervised worker alongside the fanout.
func (m *Monitor) Run(ctx context.Context, events <-chan event.DomainEvent) {
	for {
		select {
		case e := <-events:
			m.record(e)
		case <-ctx.Done():
			m.log.Debug("Context done, stopping monitor")
			return
		}
	}
}

func (m *Monitor) record(e event.DomainEvent) {
	switch evt := e.(type) {
	case event.MessageSent:
		m.messagesSent.Add(1)
	case event.ConversationUpdated:
		m.conversationsTouched.Add(1)
	case event.ProcessStats:
		m.mu.Lock()
		m.sample = evt
		m.mu.Unlock()
	}
}

func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	sample := m.sample
	m.mu.RUnlock()

	return Stats{
		MessagesSent:         m.messagesSent.Load(),
		ConversationsTouched: m.conversationsTouched.Load(),
		CPU:                  sample.CPU,
		RAM:                  sample.RAM,
		Goroutines:           sample.Goroutines,
		SampledAt:            sample.At,
	}
}
