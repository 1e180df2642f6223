// Package cache persists evaluated results in a keyed, embedded database
// with optional asynchronous write-behind and epoch-based invalidation of
// in-flight buffered writes.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/rngfab"
)

// Entry kinds: pilot-stage evaluations are cheap and disposable under
// pending-buffer pressure; full-stage evaluations are the authoritative result.
const (
	KindPilot = "pilot"
	KindFull  = "full"
)

// batchSize bounds the number of bound parameters per Load statement, well
// under SQLite's default host-parameter limit.
const batchSize = 900

// Entry is one cache row.
type Entry struct {
	Key          string
	Kind         string
	Payload      []byte
	UpdatedUnixS int64
}

// Options configures a Store.
type Options struct {
	// Async enables write-behind buffering; when false, Save upserts
	// synchronously and there is no writer goroutine.
	Async bool
	// MaxPendingEntries bounds the write-behind buffer; once reached, new
	// pilot-kind saves are dropped and counted rather than queued.
	MaxPendingEntries int
	// WriterFlushInterval is how often the writer goroutine wakes even
	// without an explicit signal.
	WriterFlushInterval time.Duration
	// BusyTimeoutMS bounds how long a writer waits on a locked database
	// before giving up; the resulting error wraps ErrCacheUnavailable.
	BusyTimeoutMS int
}

// DefaultOptions mirrors the recommended defaults.
func DefaultOptions() Options {
	return Options{
		Async:               true,
		MaxPendingEntries:   10000,
		WriterFlushInterval: 200 * time.Millisecond,
		BusyTimeoutMS:       5000,
	}
}

type pendingEntry struct {
	entry Entry
	epoch int64
}

// Store is the persistent keyed cache: a single-writer SQLite database, an
// optional write-behind buffer, and a monotonic epoch used to invalidate
// buffered entries on delete/clear without scanning them.
type Store struct {
	db   *sql.DB
	opts Options

	// Perf observes write-behind activity: the writer's upsert batches and
	// the pilot-entry drops made by Save. Defaults to rngfab.NullSink; callers needing to observe it
	// should set it right after Open, before any Save.
	Perf rngfab.PerfSink

	epoch int64 // atomic

	pendingMu sync.Mutex
	pending   map[string]pendingEntry
	dropped   int64 // atomic; pilot entries dropped under pending pressure

	signal chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
	closed int32 // atomic
}

// Open creates (if absent) and opens the SQLite database at path, applies
// the recommended pragmas, ensures the schema exists, and — if opts.Async —
// starts the write-behind writer goroutine.
func Open(path string, opts Options) (*Store, error) {
	dsn := fmt.Sprintf("file:%s", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", sim.ErrCacheUnavailable, path, err)
	}
	db.SetMaxOpenConns(1) // single-writer embedded database

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeoutMS),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: pragma %q: %v", sim.ErrCacheUnavailable, p, err)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	payload BLOB NOT NULL,
	updated_utc INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_kind_updated ON cache_entries(kind, updated_utc);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", sim.ErrCacheUnavailable, err)
	}

	s := &Store{
		db:      db,
		opts:    opts,
		Perf:    rngfab.NullSink,
		pending: make(map[string]pendingEntry),
		signal:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	if opts.Async {
		s.wg.Add(1)
		go s.writerLoop()
	}
	return s, nil
}

// Load returns the payloads for the requested keys that exist, deduplicating
// the key list and querying in batches of at most 900 parameters. With
// async writes enabled, pending entries whose epoch matches the current
// epoch overlay (take precedence over) persisted rows.
func (s *Store) Load(ctx context.Context, keys []string) (map[string][]byte, error) {
	unique := dedupe(keys)
	out := make(map[string][]byte, len(unique))

	for start := 0; start < len(unique); start += batchSize {
		end := start + batchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]
		if err := s.loadBatch(ctx, batch, out); err != nil {
			return nil, err
		}
	}

	if s.opts.Async {
		currentEpoch := atomic.LoadInt64(&s.epoch)
		s.pendingMu.Lock()
		for _, k := range unique {
			if pe, ok := s.pending[k]; ok && pe.epoch == currentEpoch {
				out[k] = pe.entry.Payload
			}
		}
		s.pendingMu.Unlock()
	}
	return out, nil
}

func (s *Store) loadBatch(ctx context.Context, keys []string, out map[string][]byte) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = "?"
		args[i] = k
	}
	query := fmt.Sprintf("SELECT key, payload FROM cache_entries WHERE key IN (%s)", strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: load: %v", sim.ErrCacheUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return fmt.Errorf("%w: scan: %v", sim.ErrCacheUnavailable, err)
		}
		out[key] = payload
	}
	return rows.Err()
}

// Save persists entries. If async writes are disabled, it upserts
// transactionally and returns once committed. If enabled, it buffers each
// entry tagged with the current epoch; once the buffer reaches
// MaxPendingEntries, further pilot-kind entries are dropped and counted
// rather than queued (full-kind entries are never dropped, since the
// authoritative final stage must not silently lose results).
func (s *Store) Save(ctx context.Context, entries []Entry) error {
	if atomic.LoadInt32(&s.closed) != 0 {
		return fmt.Errorf("%w: store is shut down", sim.ErrCacheUnavailable)
	}
	if !s.opts.Async {
		return s.upsert(ctx, entries)
	}

	epoch := atomic.LoadInt64(&s.epoch)
	s.pendingMu.Lock()
	for _, e := range entries {
		if len(s.pending) >= s.opts.MaxPendingEntries && e.Kind == KindPilot {
			atomic.AddInt64(&s.dropped, 1)
			s.Perf.Increment("cache_pilot_dropped")
			continue
		}
		s.pending[e.Key] = pendingEntry{entry: e, epoch: epoch}
	}
	s.pendingMu.Unlock()
	s.wake()
	return nil
}

func (s *Store) upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", sim.ErrCacheUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO cache_entries (key, kind, payload, updated_utc) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET kind=excluded.kind, payload=excluded.payload, updated_utc=excluded.updated_utc`)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %v", sim.ErrCacheUnavailable, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Key, e.Kind, e.Payload, e.UpdatedUnixS); err != nil {
			return fmt.Errorf("%w: upsert %s: %v", sim.ErrCacheUnavailable, e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", sim.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes the given keys. It bumps the epoch first, which makes every
// write buffered before the call (not only writes for these keys) invisible
// to subsequent loads and ineligible for the writer's next drain, then clears
// these keys from the pending buffer and executes the persisted removal.
func (s *Store) Delete(ctx context.Context, keys []string) error {
	s.bumpEpochAndDropPending(func(k string) bool { return contains(keys, k) })

	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = "?"
		args[i] = k
	}
	query := fmt.Sprintf("DELETE FROM cache_entries WHERE key IN (%s)", strings.Join(placeholders, ","))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: delete: %v", sim.ErrCacheUnavailable, err)
	}
	return nil
}

// ClearKind removes every persisted and pending entry of the given kind. Like
// Delete, it also hides pending writes of other kinds buffered before the call.
func (s *Store) ClearKind(ctx context.Context, kind string) error {
	s.bumpEpochAndDropPending(func(k string) bool {
		pe, ok := s.pending[k]
		return ok && pe.entry.Kind == kind
	})
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE kind = ?", kind); err != nil {
		return fmt.Errorf("%w: clear kind %s: %v", sim.ErrCacheUnavailable, kind, err)
	}
	return nil
}

// ClearAll empties the store: every persisted row and every pending write.
func (s *Store) ClearAll(ctx context.Context) error {
	s.bumpEpochAndDropPending(func(string) bool { return true })
	if _, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("%w: clear all: %v", sim.ErrCacheUnavailable, err)
	}
	return nil
}

// Stats returns the persisted row count per kind. Pending (un-drained) async
// writes are not reflected.
func (s *Store) Stats(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM cache_entries GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", sim.ErrCacheUnavailable, err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("%w: stats scan: %v", sim.ErrCacheUnavailable, err)
		}
		out[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: stats: %v", sim.ErrCacheUnavailable, err)
	}
	return out, nil
}

// bumpEpochAndDropPending increments the epoch, then drops every pending
// entry matching pred from the buffer. Every entry buffered under the old
// epoch, whether it matches pred or not, is from then on hidden from Load and
// discarded at drain time; a Save that reads the epoch after the bump tags
// its entries with the new epoch and survives.
func (s *Store) bumpEpochAndDropPending(pred func(key string) bool) {
	atomic.AddInt64(&s.epoch, 1)
	s.pendingMu.Lock()
	for k := range s.pending {
		if pred(k) {
			delete(s.pending, k)
		}
	}
	s.pendingMu.Unlock()
}

// Flush blocks until the pending buffer drains or timeout elapses, signaling
// the writer goroutine to run immediately.
func (s *Store) Flush(timeout time.Duration) error {
	if !s.opts.Async {
		return nil
	}
	deadline := time.Now().Add(timeout)
	for {
		s.pendingMu.Lock()
		empty := len(s.pending) == 0
		s.pendingMu.Unlock()
		if empty {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: flush did not drain within %s", sim.ErrCacheUnavailable, timeout)
		}
		s.wake()
		time.Sleep(10 * time.Millisecond)
	}
}

// Shutdown stops accepting new writes, drains the pending buffer (bounded by
// drainTimeout), stops the writer goroutine, and closes the database.
func (s *Store) Shutdown(drainTimeout time.Duration) error {
	atomic.StoreInt32(&s.closed, 1)
	var flushErr error
	if s.opts.Async {
		flushErr = s.Flush(drainTimeout)
		close(s.stopCh)
		s.wg.Wait()
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", sim.ErrCacheUnavailable, err)
	}
	return flushErr
}

// DroppedCount returns the number of pilot entries dropped under pending
// buffer pressure since the store was opened.
func (s *Store) DroppedCount() int64 {
	return atomic.LoadInt64(&s.dropped)
}

func (s *Store) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// writerLoop drains the pending buffer on a timer or on-demand signal,
// snapshotting and swapping it for an empty map, filtering out entries
// whose epoch has been superseded, and upserting the rest.
func (s *Store) writerLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.WriterFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			s.drainOnce()
			return
		case <-ticker.C:
			s.drainOnce()
		case <-s.signal:
			s.drainOnce()
		}
	}
}

func (s *Store) drainOnce() {
	s.pendingMu.Lock()
	snapshot := s.pending
	s.pending = make(map[string]pendingEntry)
	s.pendingMu.Unlock()

	if len(snapshot) == 0 {
		return
	}
	currentEpoch := atomic.LoadInt64(&s.epoch)
	entries := make([]Entry, 0, len(snapshot))
	for _, pe := range snapshot {
		if pe.epoch != currentEpoch {
			continue // stale: invalidated by a delete/clear since buffering
		}
		entries = append(entries, pe.entry)
	}
	if len(entries) == 0 {
		return
	}
	defer rngfab.Timer(s.Perf, "cache_drain_ms")()
	s.Perf.ObserveValue("cache_drain_batch", float64(len(entries)))
	// Best-effort: a write error here is counted as dropped rather than
	// propagated, since there is no caller left to receive it.
	if err := s.upsert(context.Background(), entries); err != nil {
		atomic.AddInt64(&s.dropped, int64(len(entries)))
		s.Perf.Increment("cache_drain_failed")
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func contains(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
