// Package telemetry aggregates frame-submission latency reports and pairs
// them with process resource usage for periodic logging. Reports are also
// forwarded to the streaming engine so the host sees the same numbers.
package telemetry

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Sink receives forwarded submit reports. *stream.Socket satisfies it.
type Sink interface {
	ReportSubmit(timestamp, latency time.Duration) error
}

// Collector keeps a rolling window of submit latencies. Safe for use from
// the frame pacer while the log loop runs.
type Collector struct {
	sink   Sink // nil disables forwarding
	window int

	mu        sync.Mutex
	latencies []time.Duration
	frames    uint64 // total real frames reported
	dropped   uint64 // forwarding failures since last summary
}

func NewCollector(sink Sink, window int) *Collector {
	if window <= 0 {
		window = 256
	}
	return &Collector{
		sink:   sink,
		window: window,
	}
}

// ReportSubmit records one real frame's display latency and forwards it.
func (c *Collector) ReportSubmit(timestamp, latency time.Duration) {
	var forwardErr error
	if c.sink != nil {
		forwardErr = c.sink.ReportSubmit(timestamp, latency)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++
	c.latencies = append(c.latencies, latency)
	if len(c.latencies) > c.window {
		c.latencies = c.latencies[len(c.latencies)-c.window:]
	}
	if forwardErr != nil {
		c.dropped++
	}
}

// Summary is a point-in-time aggregate of the rolling window.
type Summary struct {
	Frames      uint64
	Dropped     uint64
	MeanLatency time.Duration
	MaxLatency  time.Duration
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{Frames: c.frames, Dropped: c.dropped}
	if len(c.latencies) == 0 {
		return s
	}
	var sum time.Duration
	for _, l := range c.latencies {
		sum += l
		if l > s.MaxLatency {
			s.MaxLatency = l
		}
	}
	s.MeanLatency = sum / time.Duration(len(c.latencies))
	return s
}

// Run logs a summary plus process CPU/RSS every interval until ctx is done.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("telemetry: process handle unavailable: %v", err)
		proc = nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := c.Snapshot()
			cpu, rss := sampleProcess(proc)
			log.Printf("telemetry: frames=%d mean_latency=%v max_latency=%v dropped=%d cpu=%.1f%% rss=%dMiB",
				s.Frames, s.MeanLatency, s.MaxLatency, s.Dropped, cpu, rss/(1<<20))
		}
	}
}

func sampleProcess(proc *process.Process) (cpu float64, rss uint64) {
	if proc == nil {
		return 0, 0
	}
	if v, err := proc.CPUPercent(); err == nil {
		cpu = v
	}
	if mi, err := proc.MemoryInfo(); err == nil && mi != nil {
		rss = mi.RSS
	}
	return cpu, rss
}
