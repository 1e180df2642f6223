package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/cache"
	"github.com/farkle-sim/farkle-sim/sim/policy"
	"github.com/farkle-sim/farkle-sim/sim/rank"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
	"github.com/farkle-sim/farkle-sim/sim/search"
	"github.com/farkle-sim/farkle-sim/sim/settings"
	"github.com/farkle-sim/farkle-sim/sim/workflow"
)

var (
	optCatalogPath string
	optConfigPath  string
	optInventory   string
	optCacheDBPath string
	optWorkers     int
	optTop         int
	optLimit       int
	optSeed        int64
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search loadouts and rank them by an optimization objective",
	Run:   runOptimize,
}

// consoleProgress renders a one-line progress update to stderr.
type consoleProgress struct{}

func (consoleProgress) Report(ev workflow.ProgressEvent) {
	logrus.WithFields(logrus.Fields{
		"stage": fmt.Sprintf("%d/%d", ev.StageIndex+1, ev.StageCount),
		"kind":  ev.StageKind,
	}).Infof("progress %d/%d (cache hits=%d misses=%d, %dms elapsed)",
		ev.Processed, ev.Total, ev.CacheHits, ev.CacheMisses, ev.ElapsedMS)
}

func runOptimize(cmd *cobra.Command, args []string) {
	catalogData, err := os.ReadFile(optCatalogPath)
	if err != nil {
		logrus.Fatalf("reading catalog %s: %v", optCatalogPath, err)
	}
	catalog, err := sim.LoadCatalogJSON(catalogData)
	if err != nil {
		logrus.Fatalf("parsing catalog: %v", err)
	}

	s, err := settings.LoadFile(optConfigPath)
	if err != nil {
		logrus.Fatalf("loading run config %s: %v", optConfigPath, err)
	}

	inventory, err := parseInventory(optInventory, catalog.Len())
	if err != nil {
		logrus.Fatalf("invalid --inventory: %v", err)
	}
	inventory, err = search.NormalizeInventory(catalog, inventory)
	if err != nil {
		logrus.Fatalf("normalizing inventory: %v", err)
	}

	var loadouts []sim.CountVector
	if optLimit <= 0 || search.CountCombinations(inventory, 6) <= int64(optLimit) {
		loadouts = search.EnumerateLoadouts(inventory, 6, optLimit)
	} else {
		qualities := make([]float64, catalog.Len())
		for i, d := range catalog.Dice {
			qualities[i] = d.Quality()
		}
		loadouts, err = search.RandomLoadouts(inventory, qualities, 6, optLimit, optSeed)
		if err != nil {
			logrus.Fatalf("sampling loadouts: %v", err)
		}
	}
	if len(loadouts) == 0 {
		logrus.Fatal("no loadouts to evaluate: check --inventory")
	}
	logrus.Infof("evaluating %d loadouts", len(loadouts))

	store, err := cache.Open(optCacheDBPath, cache.DefaultOptions())
	if err != nil {
		logrus.Fatalf("opening cache at %s: %v", optCacheDBPath, err)
	}
	defer store.Shutdown(10 * time.Second)

	table := scoring.Global()
	est := policy.NewEstimator(table)
	w := workflow.New(table, est, store)

	results, tel, err := w.Run(context.Background(), loadouts, catalog, s, optWorkers, consoleProgress{}, 250*time.Millisecond)
	if err != nil {
		logrus.Fatalf("optimize: %v", err)
	}

	for i, st := range tel.Stages {
		logrus.Infof("stage %d: evaluated=%d cache_hits=%d cache_misses=%d wall=%.0fms",
			i, st.EvaluatedCount, st.CacheHits, st.CacheMisses, st.WallMS)
	}

	sortResults(results, s.Objective)
	top := optTop
	if top <= 0 || top > len(results) {
		top = len(results)
	}
	for i := 0; i < top; i++ {
		r := results[i]
		fmt.Printf("%2d. %-20s ev_turns=%.3f ev_points=%.1f mean_points=%.1f objective_score=%.4f\n",
			i+1, r.Counts.Fingerprint(), r.Metrics.EVTurns, r.Metrics.EVPoints, r.MeanPoints, rank.ObjectiveScore(r, s.Objective))
	}
}

func sortResults(results []*sim.SimulationResult, objective sim.Objective) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && rank.Less(results[j], results[j-1], objective); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

// parseInventory parses a comma-separated list of per-die caps, expanding
// a single "*" (meaning "6 for every die") to a full-length vector.
func parseInventory(raw string, n int) ([]int, error) {
	if raw == "*" {
		out := make([]int, n)
		for i := range out {
			out[i] = 6
		}
		return out, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated caps, got %d", n, len(parts))
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("cap %d (%q) is not an integer: %w", i+1, p, err)
		}
		out[i] = v
	}
	return out, nil
}

func init() {
	optimizeCmd.Flags().StringVar(&optCatalogPath, "catalog", "", "Path to the dice-probability catalog JSON (required)")
	optimizeCmd.Flags().StringVar(&optConfigPath, "config", "", "Path to the run config YAML (required)")
	optimizeCmd.Flags().StringVar(&optInventory, "inventory", "*", "Per-die caps as n1,n2,... or \"*\" for unlimited")
	optimizeCmd.Flags().StringVar(&optCacheDBPath, "cache-db", "farkle-cache.db", "Path to the cache database")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", 4, "Number of concurrent evaluation workers")
	optimizeCmd.Flags().IntVar(&optTop, "top", 20, "Number of best loadouts to print (0 for all)")
	optimizeCmd.Flags().IntVar(&optLimit, "limit", 5000, "Maximum number of loadouts to evaluate (0 for unbounded exhaustive search)")
	optimizeCmd.Flags().Int64Var(&optSeed, "sample-seed", 1, "RNG seed for weighted loadout sampling when the search space exceeds --limit")

	_ = optimizeCmd.MarkFlagRequired("catalog")
	_ = optimizeCmd.MarkFlagRequired("config")
}
