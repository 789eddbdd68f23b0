package ops

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BackendState is the last observed backend availability.
type BackendState string

const (
	StateUnknown BackendState = "unknown"
	StateOnline  BackendState = "online"  // reachable, LLM ready
	StateLoading BackendState = "loading" // reachable, LLM not loaded yet
	StateOffline BackendState = "offline"
)

// DefaultHealthInterval is the polling period when none is configured.
const DefaultHealthInterval = 10 * time.Second

// HealthStatus is the result of the most recent health check.
type HealthStatus struct {
	State     BackendState `json:"state"`
	LLMLoaded bool         `json:"llm_loaded"`
	CheckedAt time.Time    `json:"checked_at,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Label is the human-readable status line shown in the UI.
func (s HealthStatus) Label() string {
	switch s.State {
	case StateOnline:
		return "Backend: Online | LLM: Ready"
	case StateLoading:
		return "Backend: Online | LLM: Loading..."
	case StateOffline:
		return "Backend: Offline - check that the backend is running"
	default:
		return "Backend: Checking..."
	}
}

// Online reports whether the backend answered the last check.
func (s HealthStatus) Online() bool {
	return s.State == StateOnline || s.State == StateLoading
}

// HealthMonitor polls the backend health endpoint and keeps the latest status.
// Failures are recorded as offline and retried on the next tick.
type HealthMonitor struct {
	backend  Backend
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	status HealthStatus
}

// NewHealthMonitor creates a monitor. A non-positive interval means DefaultHealthInterval.
func NewHealthMonitor(b Backend, interval time.Duration, logger *slog.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthMonitor{
		backend:  b,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		status:   HealthStatus{State: StateUnknown},
	}
}

// Status returns the latest recorded status.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check queries the backend once and records the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{CheckedAt: m.now()}

	res, err := m.backend.Health(ctx)
	switch {
	case err != nil:
		status.State = StateOffline
		status.Error = err.Error()
	case res.LLMLoaded:
		status.State = StateOnline
		status.LLMLoaded = true
	default:
		status.State = StateLoading
	}

	m.mu.Lock()
	prev := m.status.State
	m.status = status
	m.mu.Unlock()

	if prev != status.State {
		m.logger.Info("backend status changed", "from", prev, "to", status.State, "error", status.Error)
	}
	return status
}

// Run checks immediately and then on every interval until ctx is done.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
