// Package report renders run results for human consumption.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ftruzzi/urlwatch/internal/worker"
)

// Write renders a plain-text summary of one run.
func Write(w io.Writer, runID string, results []worker.Result) {
	fmt.Fprintf(w, "urlwatch run %s (%s)\n", runID, time.Now().Format(time.RFC1123))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	counts := map[worker.Outcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
		switch r.Outcome {
		case worker.OutcomeError:
			fmt.Fprintf(w, "ERROR     %s: %v\n", r.Job.PrettyName(), r.Err)
		default:
			fmt.Fprintf(w, "%-9s %s\n", strings.ToUpper(string(r.Outcome)), r.Job.PrettyName())
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%d jobs: %d new, %d changed, %d unchanged, %d failed\n",
		len(results),
		counts[worker.OutcomeNew],
		counts[worker.OutcomeChanged],
		counts[worker.OutcomeUnchanged],
		counts[worker.OutcomeError],
	)
}
