package risk

import (
	"sync"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-risk/internal/borrower"
	"github.com/iwvelando/loan-risk/pkg/metrics"
	"go.uber.org/zap"
)

// Options controls batch evaluation.
type Options struct {
	// Workers is the number of goroutines used to evaluate rows. Values
	// below 2 evaluate sequentially.
	Workers int
	// Strict collects a FieldIssue for every defaulted numeric field.
	Strict bool
}

// Batch is the evaluation of an ordered set of borrower rows.
type Batch struct {
	ID      string
	Results []Result
	// Issues maps a row index to the fields defaulted on that row. It is
	// only populated in strict mode.
	Issues map[int][]FieldIssue
}

// Counts returns the number of results per tier.
func (b Batch) Counts() map[Tier]int {
	counts := map[Tier]int{TierLow: 0, TierMedium: 0, TierHigh: 0}
	for _, r := range b.Results {
		counts[r.Risk]++
	}
	return counts
}

// EvaluateBatch evaluates every record. Results[i] always belongs to
// records[i], whatever the number of workers.
func EvaluateBatch(logger *zap.Logger, records []borrower.Record, opts Options) Batch {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]Result, len(records))
	rowIssues := make([][]FieldIssue, len(records))

	workers := opts.Workers
	if workers > len(records) {
		workers = len(records)
	}

	if workers < 2 {
		for i, record := range records {
			results[i], rowIssues[i] = evaluate(record)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					results[i], rowIssues[i] = evaluate(records[i])
				}
			}()
		}
		for i := range records {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	batch := Batch{
		ID:      uuid.NewString(),
		Results: results,
	}
	if opts.Strict {
		batch.Issues = make(map[int][]FieldIssue)
		for i, issues := range rowIssues {
			if len(issues) > 0 {
				batch.Issues[i] = issues
			}
		}
	}

	for _, r := range results {
		metrics.BorrowersEvaluated.WithLabelValues(string(r.Risk)).Inc()
		for _, reason := range r.Reasons {
			metrics.RiskChecksTriggered.WithLabelValues(checkName(reason)).Inc()
		}
	}

	counts := batch.Counts()
	logger.Debug("evaluated borrower batch",
		zap.String("op", "risk.EvaluateBatch"),
		zap.String("batch", batch.ID),
		zap.Int("rows", len(records)),
		zap.Int("workers", workers),
		zap.Int("low", counts[TierLow]),
		zap.Int("medium", counts[TierMedium]),
		zap.Int("high", counts[TierHigh]),
	)

	return batch
}
