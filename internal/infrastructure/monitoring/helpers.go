package monitoring

import "time"

// Snapshot returns a copy of the aggregate counters for the JSON
// monitoring surface. Prometheus exposition stays on /metrics; this
// feeds the human-readable overview endpoint.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// AvgRequestDuration returns the mean request duration so far.
func (m *Metrics) AvgRequestDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot.RequestCount == 0 {
		return 0
	}
	avg := m.snapshot.TotalDuration / float64(m.snapshot.RequestCount)
	return time.Duration(avg * float64(time.Second))
}

// UptimeSeconds returns seconds since the collector was created.
func (m *Metrics) UptimeSeconds() float64 {
	return time.Since(m.startTime).Seconds()
}
