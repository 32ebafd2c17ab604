package observability

import (
	"strconv"
	"sync"
	"time"
)

type routeStats struct {
	requests      int64
	errors        int64
	totalDuration time.Duration
}

// Metrics keeps per-route request and error counters in memory. A nil
// receiver is a no-op so callers never have to branch on wiring.
type Metrics struct {
	mu     sync.Mutex
	routes map[string]*routeStats
}

// NewMetrics creates an empty counter set.
func NewMetrics() *Metrics {
	return &Metrics{routes: make(map[string]*routeStats)}
}

// RecordRequest accounts for one completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.route(path + "|" + method + "|" + strconv.Itoa(status))
	stats.requests++
	stats.totalDuration += duration
}

// RecordError accounts for one failed request by error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route(path + "|" + method + "|" + code).errors++
}

func (m *Metrics) route(key string) *routeStats {
	stats, ok := m.routes[key]
	if !ok {
		stats = &routeStats{}
		m.routes[key] = stats
	}
	return stats
}
