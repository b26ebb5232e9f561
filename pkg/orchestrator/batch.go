package orchestrator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/richochetclementine1315/chain-lens/pkg/blockdecoder"
	"github.com/richochetclementine1315/chain-lens/pkg/report"
)

// BlockFileTriple names the three files one AnalyzeBlockFile call needs.
type BlockFileTriple struct {
	BlkPath string
	RevPath string
	XorPath string
}

// BatchResult is one triple's outcome: either a list of block reports or
// the error that stopped its analysis.
type BatchResult struct {
	Triple  BlockFileTriple
	Reports []*report.Block
	Err     error
}

// AnalyzeDir runs AnalyzeBlockFile over every triple concurrently, bounded
// by workers, and returns one BatchResult per triple in input order.
// Cancelling ctx stops dispatching new work; triples already in flight
// finish (or themselves observe cancellation at their own block
// boundary) before AnalyzeDir returns.
func (a *Analyzer) AnalyzeDir(ctx context.Context, triples []BlockFileTriple, workers int, mode blockdecoder.Mode) []BatchResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(triples))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				t := triples[idx]
				reports, err := a.AnalyzeBlockFile(ctx, t.BlkPath, t.RevPath, t.XorPath, mode)
				results[idx] = BatchResult{Triple: t, Reports: reports, Err: err}
			}
		}()
	}

dispatch:
	for i := range triples {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(triples); j++ {
				results[j] = BatchResult{Triple: triples[j], Err: ctx.Err()}
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	a.Logger.Info("batch analysis complete", zap.Int("triples", len(triples)), zap.Int("workers", workers))
	return results
}
