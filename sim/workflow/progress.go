package workflow

import (
	"sync/atomic"
	"time"
)

// atomicCounter is a monotonically-increasing counter the progress sidecar
// reads without synchronizing with the workers that advance it.
type atomicCounter struct {
	v int64
}

func (c *atomicCounter) add(n int64) { atomic.AddInt64(&c.v, n) }
func (c *atomicCounter) set(n int64) { atomic.StoreInt64(&c.v, n) }
func (c *atomicCounter) get() int64  { return atomic.LoadInt64(&c.v) }

// startProgressSidecar fires a ProgressEvent on sink every interval (plus a
// final event at stop time), reflecting the live processed count alongside
// the stage's fixed cache hit/miss split. It returns a stop function that
// must be called once the stage's evaluation completes; the stop function
// blocks briefly for the sidecar goroutine to exit.
func startProgressSidecar(
	sink ProgressSink,
	interval time.Duration,
	stageIndex, stageCount int,
	kind string,
	total int,
	processed *atomicCounter,
	cacheHits, cacheMisses int,
	start time.Time,
) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	report := func() {
		sink.Report(ProgressEvent{
			StageIndex:  stageIndex,
			StageCount:  stageCount,
			StageKind:   kind,
			Processed:   int(processed.get()),
			Total:       total,
			CacheHits:   cacheHits,
			CacheMisses: cacheMisses,
			ElapsedMS:   time.Since(start).Milliseconds(),
		})
	}

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				report() // final event
				return
			case <-ticker.C:
				report()
			}
		}
	}()

	return func() {
		close(done)
		select {
		case <-stopped:
		case <-time.After(time.Second):
		}
	}
}
