// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainer

import (
	"context"
	"runtime"
	"sync"

	"github.com/emer/snn/datasets"
	"github.com/emer/snn/encode"
	"github.com/emer/snn/snn"
	"github.com/goki/ki/ints"
)

// EvalResult is the classification of a whole set, in set order
type EvalResult struct {
	Accuracy float32     `desc:"percent correct"`
	NCorrect int         `desc:"number of correct predictions"`
	Pred     []int       `desc:"predicted class per sample"`
	Labels   []int       `desc:"true class per sample"`
	Rates    [][]float32 `desc:"output spike rates per sample = counts / NSteps"`
}

// Evaluate classifies every sample of ds with forward passes only, in
// batches of batchSize split over nThreads goroutines (0 = GOMAXPROCS).
// Batch i is encoded with an encoder seeded by seed+i, so results do not
// depend on the number of threads.  Weights are only read.
func Evaluate(ctx context.Context, net *snn.Network, ds *datasets.Set, batchSize int, seed uint64, nThreads int) (*EvalResult, error) {
	batches := ds.Batches(batchSize, nil)
	if len(batches) == 0 {
		return nil, snn.ErrEmptyBatch
	}
	if nThreads <= 0 {
		nThreads = runtime.GOMAXPROCS(0)
	}
	nThreads = ints.MinInt(nThreads, len(batches))

	preds := make([]*snn.Prediction, len(batches))
	errs := make([]error, len(batches))
	next := make(chan int)
	var wg sync.WaitGroup
	for th := 0; th < nThreads; th++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for bi := range next {
				enc := encode.NewEncoder(seed + uint64(bi))
				preds[bi], errs[bi] = net.Predict(&batches[bi], enc)
			}
		}()
	}
feed:
	for bi := range batches {
		select {
		case next <- bi:
		case <-ctx.Done():
			break feed
		}
	}
	close(next)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	ev := &EvalResult{}
	for bi, pd := range preds {
		b := &batches[bi]
		ev.NCorrect += pd.Correct
		ev.Pred = append(ev.Pred, pd.Pred...)
		ev.Labels = append(ev.Labels, b.Labels...)
		ev.Rates = append(ev.Rates, snn.RowsOf(pd.Rates)...)
	}
	ev.Accuracy = 100 * float32(ev.NCorrect) / float32(len(ev.Pred))
	return ev, nil
}
