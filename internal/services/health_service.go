package services

import (
	"context"
	"log/slog"
	"time"

	"regpulse/internal/infrastructure"
	"regpulse/pkg/contracts"
)

// DatasetSource reports the state of the served dataset
type DatasetSource interface {
	Status() DatasetStatus
}

// RuntimeSource provides process statistics
type RuntimeSource interface {
	Stats(ctx context.Context) infrastructure.RuntimeStats
	StartTime() time.Time
}

// HealthService provides health check functionality
type HealthService struct {
	dataset DatasetSource
	runtime RuntimeSource
	logger  *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Dataset *DatasetStatus `json:"dataset,omitempty"`
}

// NewHealthService creates a health service. runtime may be nil, in which
// case runtime figures are read directly.
func NewHealthService(dataset DatasetSource, runtime RuntimeSource, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		dataset: dataset,
		runtime: runtime,
		logger:  infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := hs.ReadinessCheck(ctx)
	if status.Status == "ready" {
		status.Status = "ok"
	} else {
		status.Status = "degraded"
	}
	stats := hs.stats(ctx)
	status.Runtime = &stats

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status))
	return status
}

// ReadinessCheck reports ready once a dataset is being served
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	data := hs.checkDataHealth()
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   contracts.GetVersionString(),
		Services:  map[string]ServiceHealth{"dataset": data},
	}
	if data.Status != "ready" {
		status.Status = "not_ready"
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := hs.stats(ctx)
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   contracts.GetVersionString(),
		Runtime:   &stats,
	}
}

// Version returns build information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) stats(ctx context.Context) infrastructure.RuntimeStats {
	if hs.runtime == nil {
		return infrastructure.ReadRuntimeStats(time.Now())
	}
	return hs.runtime.Stats(ctx)
}

// checkDataHealth checks whether a dataset is loaded
func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{Status: "not_ready", Message: "analytics service not initialized"}
	}

	ds := hs.dataset.Status()
	if !ds.Loaded {
		return ServiceHealth{Status: "not_ready", Message: "no dataset loaded", Dataset: &ds}
	}
	return ServiceHealth{Status: "ready", Dataset: &ds}
}
