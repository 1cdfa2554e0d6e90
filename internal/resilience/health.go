package resilience

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	LastCheck time.Time    `json:"lastCheck"`
	Latency   string       `json:"latency"`
}

// HealthCheck checks one component.
type HealthCheck func(ctx context.Context) ComponentHealth

// HealthReport is the result of running every registered check.
type HealthReport struct {
	Status     HealthStatus      `json:"status"`
	Uptime     string            `json:"uptime"`
	Components []ComponentHealth `json:"components"`
}

// HealthMonitor runs registered component checks on demand.
type HealthMonitor struct {
	mu         sync.RWMutex
	startTime  time.Time
	timeout    time.Duration
	components map[string]HealthCheck
	now        func() time.Time
}

// NewHealthMonitor creates a monitor whose checks are each bounded by timeout.
func NewHealthMonitor(timeout time.Duration) *HealthMonitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthMonitor{
		startTime:  time.Now(),
		timeout:    timeout,
		components: make(map[string]HealthCheck),
		now:        time.Now,
	}
}

// RegisterComponent registers a health check for a component.
func (m *HealthMonitor) RegisterComponent(name string, check HealthCheck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = check
}

// Check runs every check and reports the worst status seen.
func (m *HealthMonitor) Check(ctx context.Context) HealthReport {
	m.mu.RLock()
	names := make([]string, 0, len(m.components))
	for name := range m.components {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheck, len(m.components))
	for name, check := range m.components {
		checks[name] = check
	}
	m.mu.RUnlock()
	sort.Strings(names)

	report := HealthReport{
		Status: HealthStatusHealthy,
		Uptime: m.now().Sub(m.startTime).Round(time.Second).String(),
	}
	for _, name := range names {
		h := m.runCheck(ctx, name, checks[name])
		report.Components = append(report.Components, h)
		report.Status = worse(report.Status, h.Status)
	}
	return report
}

func (m *HealthMonitor) runCheck(ctx context.Context, name string, check HealthCheck) (h ComponentHealth) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := m.now()
	defer func() {
		if r := recover(); r != nil {
			h = ComponentHealth{Status: HealthStatusUnhealthy, Message: "health check panicked"}
		}
		h.Name = name
		h.LastCheck = m.now()
		h.Latency = m.now().Sub(start).String()
	}()
	return check(ctx)
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{
		HealthStatusHealthy:   0,
		HealthStatusDegraded:  1,
		HealthStatusUnhealthy: 2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// BreakerCheck reports a component as degraded while cb is not closed.
func BreakerCheck(cb *CircuitBreaker) HealthCheck {
	return func(context.Context) ComponentHealth {
		switch state := cb.State(); state {
		case CircuitClosed:
			return ComponentHealth{Status: HealthStatusHealthy}
		default:
			return ComponentHealth{Status: HealthStatusDegraded, Message: "circuit " + string(state)}
		}
	}
}

// ErrorCheck wraps a check that fails with an error as an unhealthy component.
func ErrorCheck(check func(ctx context.Context) error) HealthCheck {
	return func(ctx context.Context) ComponentHealth {
		if err := check(ctx); err != nil {
			return ComponentHealth{Status: HealthStatusUnhealthy, Message: err.Error()}
		}
		return ComponentHealth{Status: HealthStatusHealthy}
	}
}
