package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memtensor/reqdocx/pkg/interfaces"
)

func TestNoOpMetrics(t *testing.T) {
	var m interfaces.Metrics = NewNoOpMetrics()
	assert.NotPanics(t, func() {
		m.Counter("c", 1, nil)
		m.Gauge("g", 1, map[string]string{"a": "b"})
		m.Histogram("h", 1, nil)
		m.Timer("t", 1, nil)
	})
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("Counter", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("requirements_emitted", 2, nil)
		m.Counter("requirements_emitted", 3, nil)
		assert.Equal(t, 5.0, m.Snapshot().Counters["requirements_emitted"])
	})

	t.Run("LabelsFormSeparateSeries", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("tables", 1, map[string]string{"kind": "kv"})
		m.Counter("tables", 1, map[string]string{"kind": "loose"})
		m.Counter("tables", 1, map[string]string{"kind": "loose"})

		s := m.Snapshot()
		assert.Equal(t, 1.0, s.Counters["tables{kind=kv}"])
		assert.Equal(t, 2.0, s.Counters["tables{kind=loose}"])
	})

	t.Run("LabelOrderIsStable", func(t *testing.T) {
		assert.Equal(t, "x{a=1,b=2}", seriesKey("x", map[string]string{"b": "2", "a": "1"}))
	})

	t.Run("Gauge", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Gauge("last_run_size", 10, nil)
		m.Gauge("last_run_size", 4, nil)
		assert.Equal(t, 4.0, m.Snapshot().Gauges["last_run_size"])
	})

	t.Run("Timer", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Timer("parse_ms", 20, nil)
		m.Timer("parse_ms", 10, nil)
		m.Timer("parse_ms", 30, nil)

		s := m.Snapshot().Timers["parse_ms"]
		assert.Equal(t, 3, s.Count)
		assert.Equal(t, 60.0, s.Sum)
		assert.Equal(t, 10.0, s.Min)
		assert.Equal(t, 30.0, s.Max)
	})

	t.Run("SnapshotIsACopy", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Histogram("h", 1, nil)
		s := m.Snapshot()
		m.Histogram("h", 1, nil)
		assert.Equal(t, 1, s.Histograms["h"].Count)
	})

	t.Run("ConcurrentUse", func(t *testing.T) {
		m := NewInMemoryMetrics()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Counter("n", 1, nil)
			}()
		}
		wg.Wait()
		assert.Equal(t, 50.0, m.Snapshot().Counters["n"])
	})
}
