package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/farkle-sim/farkle-sim/sim/cache"
)

var cacheDBPath string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the evaluation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the persisted row count per entry kind",
	Run: func(cmd *cobra.Command, args []string) {
		store := openCache()
		defer store.Shutdown(5 * time.Second)

		stats, err := store.Stats(context.Background())
		if err != nil {
			logrus.Fatalf("cache stats: %v", err)
		}
		fmt.Printf("pilot: %d\n", stats[cache.KindPilot])
		fmt.Printf("full:  %d\n", stats[cache.KindFull])
	},
}

var cacheClearKindCmd = &cobra.Command{
	Use:   "clear-kind [pilot|full]",
	Short: "Delete every entry of one kind",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind := args[0]
		if kind != cache.KindPilot && kind != cache.KindFull {
			logrus.Fatalf("unknown kind %q (want %q or %q)", kind, cache.KindPilot, cache.KindFull)
		}
		store := openCache()
		defer store.Shutdown(5 * time.Second)

		if err := store.ClearKind(context.Background(), kind); err != nil {
			logrus.Fatalf("cache clear-kind: %v", err)
		}
	},
}

var cacheClearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Delete every cache entry",
	Run: func(cmd *cobra.Command, args []string) {
		store := openCache()
		defer store.Shutdown(5 * time.Second)

		if err := store.ClearAll(context.Background()); err != nil {
			logrus.Fatalf("cache clear-all: %v", err)
		}
	},
}

func openCache() *cache.Store {
	store, err := cache.Open(cacheDBPath, cache.DefaultOptions())
	if err != nil {
		logrus.Fatalf("opening cache at %s: %v", cacheDBPath, err)
	}
	return store
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheDBPath, "db", "farkle-cache.db", "Path to the cache database")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearKindCmd)
	cacheCmd.AddCommand(cacheClearAllCmd)
}
