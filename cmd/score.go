package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
)

var scoreCounts string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print every undominated scoring selection for one roll",
	Run: func(cmd *cobra.Command, args []string) {
		fc, err := parseFaceCount(scoreCounts)
		if err != nil {
			logrus.Fatalf("invalid --counts: %v", err)
		}
		selections, err := scoring.Global().Score(fc)
		if err != nil {
			logrus.Fatalf("scoring %v: %v", fc, err)
		}
		if len(selections) == 0 {
			fmt.Printf("%v: bust\n", fc)
			return
		}
		for _, sel := range selections {
			tags := make([]string, len(sel.Tags))
			for i, tc := range sel.Tags {
				tags[i] = fmt.Sprintf("%s x%d", tc.Tag, tc.Count)
			}
			fmt.Printf("used=%v dice=%d points=%d tags=[%s]\n", sel.UsedCounts, sel.UsedDice, sel.Points, strings.Join(tags, ", "))
		}
	},
}

// parseFaceCount parses a comma-separated "n1,n2,n3,n4,n5,n6" string into a
// sim.FaceCount.
func parseFaceCount(raw string) (sim.FaceCount, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 6 {
		return sim.FaceCount{}, fmt.Errorf("expected 6 comma-separated counts, got %d", len(parts))
	}
	var fc sim.FaceCount
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return sim.FaceCount{}, fmt.Errorf("count %d (%q) is not an integer: %w", i+1, p, err)
		}
		fc[i] = n
	}
	return fc, fc.Validate()
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCounts, "counts", "0,0,0,0,0,0", "Face counts as n1,n2,n3,n4,n5,n6")
}
