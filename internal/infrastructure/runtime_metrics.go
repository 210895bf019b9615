package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a snapshot of process health reported by /api/health
type RuntimeStats struct {
	GoRoutines    int64         `json:"goroutines"`
	HeapAlloc     int64         `json:"heap_alloc_bytes"`
	TotalAlloc    int64         `json:"total_alloc_bytes"`
	System        int64         `json:"sys_bytes"`
	GCCount       uint32        `json:"gc_count"`
	LastGCPause   time.Duration `json:"last_gc_pause_ns"`
	CPUCount      int           `json:"cpu_count"`
	ProcessUptime time.Duration `json:"uptime_ns"`
	Timestamp     time.Time     `json:"timestamp"`
}

// RuntimeMetrics records Go runtime gauges through OpenTelemetry
type RuntimeMetrics struct {
	goRoutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	system     metric.Int64Gauge
	gcPause    metric.Float64Histogram
	uptime     metric.Float64Gauge
}

// NewRuntimeMetrics registers the runtime instruments on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"runtime_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"runtime_heap_alloc_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	system, err := meter.Int64Gauge(
		"runtime_sys_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"runtime_gc_pause_seconds",
		metric.WithDescription("Most recent GC pause"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64Gauge(
		"process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goRoutines: goRoutines,
		heapAlloc:  heapAlloc,
		system:     system,
		gcPause:    gcPause,
		uptime:     uptime,
	}, nil
}

// ReadRuntimeStats takes a snapshot of the Go runtime
func ReadRuntimeStats(startTime time.Time) RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     int64(memStats.HeapAlloc),
		TotalAlloc:    int64(memStats.TotalAlloc),
		System:        int64(memStats.Sys),
		GCCount:       memStats.NumGC,
		LastGCPause:   time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(startTime),
		Timestamp:     time.Now().UTC(),
	}
}

// Record publishes a snapshot
func (rm *RuntimeMetrics) Record(ctx context.Context, stats RuntimeStats) {
	rm.goRoutines.Record(ctx, stats.GoRoutines)
	rm.heapAlloc.Record(ctx, stats.HeapAlloc)
	rm.system.Record(ctx, stats.System)
	rm.uptime.Record(ctx, stats.ProcessUptime.Seconds())
	if stats.LastGCPause > 0 {
		rm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}
}

// RuntimeCollector periodically records runtime metrics
type RuntimeCollector struct {
	metrics   *RuntimeMetrics
	startTime time.Time
	interval  time.Duration
}

// NewRuntimeCollector creates a collector sampling every interval
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &RuntimeCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
	}, nil
}

// Run samples until ctx is cancelled
func (rc *RuntimeCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	rc.Stats(ctx)
	for {
		select {
		case <-ticker.C:
			rc.Stats(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Stats samples, records and returns the current runtime statistics
func (rc *RuntimeCollector) Stats(ctx context.Context) RuntimeStats {
	stats := ReadRuntimeStats(rc.startTime)
	rc.metrics.Record(ctx, stats)
	return stats
}

// StartTime is when the collector was created
func (rc *RuntimeCollector) StartTime() time.Time {
	return rc.startTime
}
