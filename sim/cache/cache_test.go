package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farkle-sim/farkle-sim/sim/rngfab"
)

func syncStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, Options{Async: false, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown(time.Second) })
	return s
}

func TestCache_SyncSaveLoad(t *testing.T) {
	s := syncStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Key: "k1", Kind: KindFull, Payload: []byte("payload-one"), UpdatedUnixS: 1},
		{Key: "k2", Kind: KindPilot, Payload: []byte("payload-two"), UpdatedUnixS: 2},
	}
	require.NoError(t, s.Save(ctx, entries))

	got, err := s.Load(ctx, []string{"k1", "k2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload-one"), got["k1"])
	assert.Equal(t, []byte("payload-two"), got["k2"])
	_, ok := got["missing"]
	assert.False(t, ok)
}

func TestCache_AsyncOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, Options{Async: true, MaxPendingEntries: 1000, WriterFlushInterval: time.Hour, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	defer s.Shutdown(time.Second)
	ctx := context.Background()

	entries := []Entry{
		{Key: "k1", Kind: KindFull, Payload: []byte("one"), UpdatedUnixS: 1},
	}
	require.NoError(t, s.Save(ctx, entries))

	got, err := s.Load(ctx, []string{"k1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got["k1"], "pending overlay must surface un-drained writes")

	require.NoError(t, s.ClearAll(ctx))
	got, err = s.Load(ctx, []string{"k1"})
	require.NoError(t, err)
	_, ok := got["k1"]
	assert.False(t, ok, "clear_all must hide entries even before the writer drains")
}

func TestCache_ClearKind(t *testing.T) {
	s := syncStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []Entry{
		{Key: "k1", Kind: KindPilot, Payload: []byte("a"), UpdatedUnixS: 1},
		{Key: "k2", Kind: KindFull, Payload: []byte("b"), UpdatedUnixS: 1},
		{Key: "k3", Kind: KindPilot, Payload: []byte("c"), UpdatedUnixS: 1},
	}))

	require.NoError(t, s.ClearKind(ctx, KindPilot))
	got, err := s.Load(ctx, []string{"k1", "k2", "k3"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []byte("b"), got["k2"])

	require.NoError(t, s.ClearKind(ctx, KindFull))
	got, err = s.Load(ctx, []string{"k1", "k2", "k3"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCache_Stats(t *testing.T) {
	s := syncStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []Entry{
		{Key: "k1", Kind: KindPilot, Payload: []byte("a"), UpdatedUnixS: 1},
		{Key: "k2", Kind: KindFull, Payload: []byte("b"), UpdatedUnixS: 1},
		{Key: "k3", Kind: KindPilot, Payload: []byte("c"), UpdatedUnixS: 1},
	}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[KindPilot])
	assert.Equal(t, int64(1), stats[KindFull])
}

func TestCache_ShutdownDrainsPendingWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, Options{Async: true, MaxPendingEntries: 1000, WriterFlushInterval: time.Hour, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []Entry{
		{Key: "k1", Kind: KindFull, Payload: []byte("persisted"), UpdatedUnixS: 1},
	}))
	require.NoError(t, s.Shutdown(time.Second))

	reopened, err := Open(path, Options{Async: false, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	defer reopened.Shutdown(time.Second)

	got, err := reopened.Load(ctx, []string{"k1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got["k1"])
}

func TestCache_DropsPilotEntriesUnderPressure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, Options{Async: true, MaxPendingEntries: 1, WriterFlushInterval: time.Hour, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	defer s.Shutdown(time.Second)
	ctx := context.Background()

	sink := rngfab.NewRecordingSink()
	s.Perf = sink

	require.NoError(t, s.Save(ctx, []Entry{{Key: "k1", Kind: KindPilot, Payload: []byte("a"), UpdatedUnixS: 1}}))
	require.NoError(t, s.Save(ctx, []Entry{{Key: "k2", Kind: KindPilot, Payload: []byte("b"), UpdatedUnixS: 1}}))

	assert.Equal(t, int64(1), s.DroppedCount())
	assert.Equal(t, 1, sink.Count("cache_pilot_dropped"))
}

func TestCache_RecordsDrainPerfObservations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path, Options{Async: true, MaxPendingEntries: 1000, WriterFlushInterval: time.Hour, BusyTimeoutMS: 1000})
	require.NoError(t, err)
	sink := rngfab.NewRecordingSink()
	s.Perf = sink
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []Entry{{Key: "k1", Kind: KindFull, Payload: []byte("a"), UpdatedUnixS: 1}}))
	// Shutdown waits for the writer goroutine to exit, which happens-after
	// its final drainOnce, so the perf observations below are guaranteed
	// to be recorded by the time it returns.
	require.NoError(t, s.Shutdown(time.Second))

	assert.Equal(t, []float64{1}, sink.Values("cache_drain_batch"))
	assert.Len(t, sink.Durations("cache_drain_ms"), 1)
}
