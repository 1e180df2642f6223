// Package workflow orchestrates staged pruning evaluation: pilot stages
// narrow a loadout population with cheap low-turn-count runs, a final full
// stage restores ranking quality, and cache-aware parallel dispatch keeps
// repeated runs of the same configuration nearly free.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/cache"
	"github.com/farkle-sim/farkle-sim/sim/eval"
	"github.com/farkle-sim/farkle-sim/sim/keybuilder"
	"github.com/farkle-sim/farkle-sim/sim/policy"
	"github.com/farkle-sim/farkle-sim/sim/rank"
	"github.com/farkle-sim/farkle-sim/sim/rngfab"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
	"github.com/farkle-sim/farkle-sim/sim/settings"
)

// ProgressEvent is emitted by the sidecar reporter during a stage's
// evaluation.
type ProgressEvent struct {
	StageIndex  int
	StageCount  int
	StageKind   string
	Processed   int
	Total       int
	CacheHits   int
	CacheMisses int
	ElapsedMS   int64
}

// ProgressSink receives progress events; callers that don't want progress
// reporting simply pass a nil sink.
type ProgressSink interface {
	Report(ProgressEvent)
}

// StageTelemetry records one stage's execution cost and cache behavior.
type StageTelemetry struct {
	CandidateCount int
	EvaluatedCount int
	CacheHits      int
	CacheMisses    int
	WallMS         float64
	EvaluationMS   float64
	CacheLoadMS    float64
	CacheSaveMS    float64
	PeakPending    int
}

// OptimizationTelemetry aggregates every stage a Run executed.
type OptimizationTelemetry struct {
	Stages []StageTelemetry
}

// Workflow ties together the scoring table, policy estimator, and cache
// store that evaluate_stage needs. The dice signature used to key every
// evaluation is computed from the catalog on each Run.
type Workflow struct {
	Table *scoring.Table
	Est   *policy.Estimator
	Cache *cache.Store

	// Perf observes per-stage evaluation counts and durations. Defaults to
	// rngfab.NullSink; set it directly on the returned *Workflow to observe.
	Perf rngfab.PerfSink
}

// New builds a Workflow sharing one scoring table and policy estimator
// across every stage and loadout (both are read-only after construction).
func New(table *scoring.Table, est *policy.Estimator, store *cache.Store) *Workflow {
	return &Workflow{Table: table, Est: est, Cache: store, Perf: rngfab.NullSink}
}

// clampProgressInterval bounds the sidecar reporter's tick interval to
// 10..5000 ms.
func clampProgressInterval(d time.Duration) time.Duration {
	if d < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	if d > 5000*time.Millisecond {
		return 5000 * time.Millisecond
	}
	return d
}

// Run executes the staged pruning algorithm when efficiency pruning is
// enabled and there is more than one loadout; otherwise it evaluates every
// loadout once at full fidelity. Cancellation is checked at stage entry and
// before each loadout evaluation; on cancellation it returns sim.ErrCanceled
// without issuing a cache save.
func (w *Workflow) Run(
	ctx context.Context,
	loadouts []sim.CountVector,
	catalog *sim.Catalog,
	s settings.OptimizationSettings,
	workerCount int,
	progress ProgressSink,
	progressInterval time.Duration,
) ([]*sim.SimulationResult, OptimizationTelemetry, error) {
	if err := s.Validate(); err != nil {
		return nil, OptimizationTelemetry{}, err
	}
	signature := keybuilder.DiceSignature(catalog)
	progressInterval = clampProgressInterval(progressInterval)

	if !s.EfficiencyEnabled || len(loadouts) <= 1 || len(s.Stages) == 0 {
		if err := checkCanceled(ctx); err != nil {
			return nil, OptimizationTelemetry{}, err
		}
		logrus.WithField("candidates", len(loadouts)).Info("running flat (single full-fidelity stage)")
		results, tel, err := w.evaluateStage(ctx, loadouts, catalog, signature, s, nil, cache.KindFull, 0, 1, workerCount, progress, progressInterval)
		if err != nil {
			return nil, OptimizationTelemetry{}, err
		}
		return results, OptimizationTelemetry{Stages: []StageTelemetry{tel}}, nil
	}

	candidates := loadouts
	var lastResults []*sim.SimulationResult
	var telemetry OptimizationTelemetry

	for idx, stage := range s.Stages {
		if err := checkCanceled(ctx); err != nil {
			return nil, telemetry, err
		}
		if len(candidates) < stage.MinTotal {
			logrus.WithFields(logrus.Fields{"stage": idx, "candidates": len(candidates), "min_total": stage.MinTotal}).
				Info("skipping stage: below min_total")
			continue
		}
		isFinal := idx == len(s.Stages)-1

		var seedBase *int64
		if !isFinal {
			sb := s.EfficiencySeed + int64(idx)
			seedBase = &sb
		}
		stageSettings := s
		stageSettings.NumTurns = stage.PilotTurns
		kind := cache.KindPilot
		if isFinal {
			kind = cache.KindFull
		}

		logrus.WithFields(logrus.Fields{
			"stage": idx, "kind": kind, "candidates": len(candidates), "pilot_turns": stage.PilotTurns,
		}).Info("evaluating stage")

		results, tel, err := w.evaluateStage(ctx, candidates, catalog, signature, stageSettings, seedBase, kind, idx, len(s.Stages), workerCount, progress, progressInterval)
		if err != nil {
			return nil, telemetry, err
		}
		telemetry.Stages = append(telemetry.Stages, tel)
		lastResults = results

		candidates = filterSurvivors(candidates, results, s.Objective, stage.KeepPercent, stage.Epsilon, stage.MinSurvivors)
		logrus.WithFields(logrus.Fields{
			"stage": idx, "cache_hits": tel.CacheHits, "cache_misses": tel.CacheMisses, "survivors": len(candidates),
		}).Info("stage complete")
		if len(candidates) <= 1 {
			break
		}
	}

	final := intersectByCountVector(lastResults, candidates)
	return final, telemetry, nil
}

func checkCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return sim.ErrCanceled
	default:
		return nil
	}
}

// evaluateStage is the hot core: build keys, load cache hits, dispatch
// misses across a bounded worker pool, save the newly-computed results, and
// return them in input order.
func (w *Workflow) evaluateStage(
	ctx context.Context,
	candidates []sim.CountVector,
	catalog *sim.Catalog,
	signature string,
	s settings.OptimizationSettings,
	seedBase *int64,
	kind string,
	stageIndex, stageCount int,
	requestedWorkers int,
	progress ProgressSink,
	progressInterval time.Duration,
) ([]*sim.SimulationResult, StageTelemetry, error) {
	defer rngfab.Timer(w.Perf, "stage_wall_ms")()
	start := time.Now()
	tel := StageTelemetry{CandidateCount: len(candidates)}

	ctxParams := keybuilder.ContextParams{
		Target:      s.Target,
		RiskProfile: string(s.RiskProfile),
		NumTurns:    s.NumTurns,
		Cap:         s.TurnCap,
		SeedBase:    seedBase,
	}
	keyCtx := keybuilder.Context(signature, ctxParams)
	keys := make([]string, len(candidates))
	for i, counts := range candidates {
		keys[i] = keybuilder.Key(keyCtx, counts)
	}

	loadStart := time.Now()
	hits, err := w.Cache.Load(ctx, keys)
	if err != nil {
		hits = map[string][]byte{} // degrade to empty results on cache I/O failure
	}
	tel.CacheLoadMS = elapsedMS(loadStart)

	results := make([]*sim.SimulationResult, len(candidates))
	missIdx := make([]int, 0, len(candidates))
	for i, key := range keys {
		if payload, ok := hits[key]; ok {
			res, err := deserializeResult(payload)
			if err == nil {
				results[i] = res
				tel.CacheHits++
				continue
			}
		}
		missIdx = append(missIdx, i)
		tel.CacheMisses++
	}
	w.Perf.ObserveValue("stage_cache_hits", float64(tel.CacheHits))
	w.Perf.ObserveValue("stage_cache_misses", float64(tel.CacheMisses))

	var processedCount atomicCounter
	processedCount.set(int64(tel.CacheHits)) // cache hits count as already-processed for progress purposes
	total := len(candidates)
	cacheHits, cacheMisses := tel.CacheHits, tel.CacheMisses

	var stopProgress func()
	if progress != nil {
		stopProgress = startProgressSidecar(progress, progressInterval, stageIndex, stageCount, kind, total, &processedCount, cacheHits, cacheMisses, start)
	}

	evalStart := time.Now()
	if len(missIdx) > 0 {
		if err := w.dispatchMisses(ctx, missIdx, candidates, catalog, s, seedBase, results, requestedWorkers, &processedCount); err != nil {
			if stopProgress != nil {
				stopProgress()
			}
			return nil, tel, err
		}
	}
	tel.EvaluationMS = elapsedMS(evalStart)
	tel.EvaluatedCount = len(missIdx)

	if stopProgress != nil {
		stopProgress()
	}

	saveStart := time.Now()
	entries := make([]cache.Entry, 0, len(missIdx))
	for _, i := range missIdx {
		if results[i] == nil {
			continue
		}
		payload, err := serializeResult(results[i])
		if err != nil {
			continue
		}
		entries = append(entries, cache.Entry{Key: keys[i], Kind: kind, Payload: payload, UpdatedUnixS: nowUnix()})
	}
	if len(entries) > 0 {
		_ = w.Cache.Save(ctx, entries) // best-effort persistence; a cache-store failure never fails the stage
	}
	tel.CacheSaveMS = elapsedMS(saveStart)
	tel.WallMS = elapsedMS(start)

	return results, tel, nil
}

// dispatchMisses fans misses out across clamp(requestedWorkers, 1, hardware
// parallelism) workers in dynamic chunks, writing each result to its
// disjoint slot so no synchronization is required for aggregation.
func (w *Workflow) dispatchMisses(
	ctx context.Context,
	missIdx []int,
	candidates []sim.CountVector,
	catalog *sim.Catalog,
	s settings.OptimizationSettings,
	seedBase *int64,
	results []*sim.SimulationResult,
	requestedWorkers int,
	processed *atomicCounter,
) error {
	workers := clampWorkerCount(requestedWorkers)

	chunkSize := len(missIdx) / (8 * workers)
	if chunkSize < 16 {
		chunkSize = 16
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))
	acquireFailed := false

	for start := 0; start < len(missIdx); start += chunkSize {
		end := start + chunkSize
		if end > len(missIdx) {
			end = len(missIdx)
		}
		chunk := missIdx[start:end]

		if err := sem.Acquire(gctx, 1); err != nil {
			acquireFailed = true
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			for _, i := range chunk {
				select {
				case <-gctx.Done():
					return sim.ErrCanceled
				default:
				}
				res, err := eval.EvaluateSingle(w.Table, w.Est, catalog, candidates[i], s, seedBase)
				if err != nil {
					return err
				}
				results[i] = res
				processed.add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if acquireFailed {
		return sim.ErrCanceled
	}
	return nil
}

// clampWorkerCount bounds a requested worker count to [1, hardware
// parallelism]; a non-positive request defaults to 1.
func clampWorkerCount(requested int) int {
	if requested < 1 {
		requested = 1
	}
	if max := runtime.GOMAXPROCS(0); requested > max {
		requested = max
	}
	return requested
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func nowUnix() int64 {
	return time.Now().Unix()
}

func serializeResult(res *sim.SimulationResult) ([]byte, error) {
	return json.Marshal(res)
}

func deserializeResult(payload []byte) (*sim.SimulationResult, error) {
	var res sim.SimulationResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrCacheUnavailable, err)
	}
	return &res, nil
}

// filterSurvivors ranks results by objective and keeps the top
// clamp(min_survivors, ceil(len*keep_percent/100), len), widened to every
// result within epsilon of the cutoff.
func filterSurvivors(candidates []sim.CountVector, results []*sim.SimulationResult, objective sim.Objective, keepPercent, epsilon float64, minSurvivors int) []sim.CountVector {
	type row struct {
		counts sim.CountVector
		result *sim.SimulationResult
	}
	rows := make([]row, 0, len(results))
	for i, res := range results {
		if res == nil {
			continue
		}
		rows = append(rows, row{counts: candidates[i], result: res})
	}
	if len(rows) == 0 {
		return nil
	}

	sort.Slice(rows, func(i, j int) bool {
		return rank.Less(rows[i].result, rows[j].result, objective)
	})

	keep := int(math.Ceil(float64(len(rows)) * keepPercent / 100))
	if keep < minSurvivors {
		keep = minSurvivors
	}
	if keep > len(rows) {
		keep = len(rows)
	}
	if keep < 1 {
		keep = 1
	}
	cutoff := rows[keep-1].result

	survivors := make([]sim.CountVector, 0, keep)
	if objective == sim.ObjectiveMaxScore {
		cutoffEVTurns := cutoff.Metrics.EVTurns
		for _, r := range rows {
			if r.result.Metrics.EVTurns <= cutoffEVTurns+epsilon {
				survivors = append(survivors, r.counts)
			}
		}
	} else {
		cutoffScore := rank.ObjectiveScore(cutoff, objective)
		for _, r := range rows {
			if rank.ObjectiveScore(r.result, objective) >= cutoffScore-epsilon {
				survivors = append(survivors, r.counts)
			}
		}
	}
	if len(survivors) == 0 {
		return []sim.CountVector{rows[0].counts}
	}
	return survivors
}

// intersectByCountVector returns the subset of results whose count vector
// identity appears in survivors.
func intersectByCountVector(results []*sim.SimulationResult, survivors []sim.CountVector) []*sim.SimulationResult {
	want := make(map[string]struct{}, len(survivors))
	for _, c := range survivors {
		want[c.Fingerprint()] = struct{}{}
	}
	out := make([]*sim.SimulationResult, 0, len(survivors))
	for _, r := range results {
		if r == nil {
			continue
		}
		if _, ok := want[r.Counts.Fingerprint()]; ok {
			out = append(out, r)
		}
	}
	return out
}
