package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

// Package metrics keeps operational gauges and counters in an embedded
// time-series store under <workdir>/metrics. Writers never block on
// collection errors; a nil storage (InitMetrics not called or failed)
// turns every operation into a no-op.

var (
	mu       sync.Mutex
	storage  tstorage.Storage
	counters = map[string]float64{}
)

// InitMetrics opens the embedded metrics storage under workdir.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(7*24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// SetGauge records the current value of a gauge metric.
func SetGauge(name string, value int64) {
	insert(name, float64(value))
}

// IncrCounter increments a monotonic counter and records its new value.
func IncrCounter(name string) {
	mu.Lock()
	counters[name]++
	v := counters[name]
	mu.Unlock()
	insert(name, v)
}

// CounterValue returns the in-process value of a counter.
func CounterValue(name string) int64 {
	mu.Lock()
	defer mu.Unlock()
	return int64(counters[name])
}

// Query returns the data points of a metric in [start, end].
func Query(name string, start, end int64) ([]*tstorage.DataPoint, error) {
	mu.Lock()
	s := storage
	mu.Unlock()
	if s == nil {
		return nil, nil
	}
	points, err := s.Select(name, nil, start, end)
	if err != nil {
		if err == tstorage.ErrNoDataPoints {
			return nil, nil
		}
		return nil, err
	}
	return points, nil
}

// Close flushes and closes the metrics storage.
func Close() error {
	mu.Lock()
	s := storage
	storage = nil
	mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}

func insert(name string, value float64) {
	mu.Lock()
	s := storage
	mu.Unlock()
	if s == nil {
		return
	}
	_ = s.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
	}})
}
