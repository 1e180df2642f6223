package rngfab

import (
	"sort"
	"sync"
	"time"
)

// PerfSink is a capability for observing engine internals: counters,
// durations, and arbitrary values. A NullSink disables all observation
// without branching in any hot path.
type PerfSink interface {
	Increment(name string)
	ObserveDurationMS(name string, ms float64)
	ObserveValue(name string, v float64)
}

// nullSink is the zero-overhead default.
type nullSink struct{}

func (nullSink) Increment(string)                {}
func (nullSink) ObserveDurationMS(string, float64) {}
func (nullSink) ObserveValue(string, float64)      {}

// NullSink is the shared no-op PerfSink instance.
var NullSink PerfSink = nullSink{}

// RecordingSink is a PerfSink that retains every observation, for tests and
// benchmark harnesses that need to assert on instrumentation.
type RecordingSink struct {
	mu         sync.Mutex
	counters   map[string]int
	durationsMS map[string][]float64
	values     map[string][]float64
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{
		counters:    make(map[string]int),
		durationsMS: make(map[string][]float64),
		values:      make(map[string][]float64),
	}
}

func (r *RecordingSink) Increment(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name]++
}

func (r *RecordingSink) ObserveDurationMS(name string, ms float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durationsMS[name] = append(r.durationsMS[name], ms)
}

func (r *RecordingSink) ObserveValue(name string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] = append(r.values[name], v)
}

// Count returns how many times Increment(name) was called.
func (r *RecordingSink) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Durations returns a copy of the recorded durations for name, sorted.
func (r *RecordingSink) Durations(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]float64(nil), r.durationsMS[name]...)
	sort.Float64s(out)
	return out
}

// Values returns a copy of the recorded values for name.
func (r *RecordingSink) Values(name string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.values[name]...)
}

// Timer starts a duration observation, to be stopped with the returned func.
func Timer(sink PerfSink, name string) func() {
	start := time.Now()
	return func() {
		sink.ObserveDurationMS(name, float64(time.Since(start).Microseconds())/1000.0)
	}
}
