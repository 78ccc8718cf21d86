// Package metrics provides metrics implementations for reqdocx
package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/memtensor/reqdocx/pkg/interfaces"
)

// NoOpMetrics is a no-operation metrics implementation
type NoOpMetrics struct{}

// Counter increments a counter metric
func (m *NoOpMetrics) Counter(name string, value float64, labels map[string]string) {}

// Gauge sets a gauge metric
func (m *NoOpMetrics) Gauge(name string, value float64, labels map[string]string) {}

// Histogram records a histogram metric
func (m *NoOpMetrics) Histogram(name string, value float64, labels map[string]string) {}

// Timer records timing metrics
func (m *NoOpMetrics) Timer(name string, duration float64, labels map[string]string) {}

// Summary aggregates observations of a histogram or timer
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (s *Summary) observe(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
}

// Snapshot is a point-in-time copy of collected metrics, keyed by series name
type Snapshot struct {
	Counters   map[string]float64 `json:"counters"`
	Gauges     map[string]float64 `json:"gauges"`
	Histograms map[string]Summary `json:"histograms"`
	Timers     map[string]Summary `json:"timers"`
}

// InMemoryMetrics keeps every series in process memory
type InMemoryMetrics struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string]*Summary
	timers     map[string]*Summary
}

// NewInMemoryMetrics creates an empty collector
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string]*Summary),
		timers:     make(map[string]*Summary),
	}
}

// Counter increments a counter metric
func (m *InMemoryMetrics) Counter(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[seriesKey(name, labels)] += value
}

// Gauge sets a gauge metric
func (m *InMemoryMetrics) Gauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[seriesKey(name, labels)] = value
}

// Histogram records a histogram metric
func (m *InMemoryMetrics) Histogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	observe(m.histograms, seriesKey(name, labels), value)
}

// Timer records timing metrics in milliseconds
func (m *InMemoryMetrics) Timer(name string, duration float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	observe(m.timers, seriesKey(name, labels), duration)
}

// Snapshot copies the current state
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Counters:   make(map[string]float64, len(m.counters)),
		Gauges:     make(map[string]float64, len(m.gauges)),
		Histograms: make(map[string]Summary, len(m.histograms)),
		Timers:     make(map[string]Summary, len(m.timers)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, v := range m.histograms {
		s.Histograms[k] = *v
	}
	for k, v := range m.timers {
		s.Timers[k] = *v
	}
	return s
}

func observe(series map[string]*Summary, key string, v float64) {
	s, ok := series[key]
	if !ok {
		s = &Summary{}
		series[key] = s
	}
	s.observe(v)
}

// seriesKey renders name{k=v,...} with labels in key order
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

var _ interfaces.Metrics = (*NoOpMetrics)(nil)
var _ interfaces.Metrics = (*InMemoryMetrics)(nil)

// NewNoOpMetrics creates a new no-op metrics implementation
func NewNoOpMetrics() interfaces.Metrics {
	return &NoOpMetrics{}
}

// NewTestMetrics creates a metrics implementation for testing
func NewTestMetrics() *InMemoryMetrics {
	return NewInMemoryMetrics()
}
