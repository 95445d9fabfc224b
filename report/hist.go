// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"math"
	"sort"

	"github.com/emer/etable/minmax"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NBins is the default number of histogram bins
const NBins = 100

// Hist is a histogram of values over equal-width bins.  BinEdges has one
// more entry than Counts, and the last bin includes its upper edge.
type Hist struct {
	Counts   []int     `json:"counts"`
	BinEdges []float64 `json:"bin_edges"`
}

// Histogram bins vals into nBins equal-width bins spanning their range.
// If all values are equal the range is widened by 0.5 on each side, and an
// empty input is binned over [0,1].
func Histogram(vals []float32, nBins int) Hist {
	rng := minmax.F32{}
	rng.SetInfinity()
	for _, v := range vals {
		rng.FitValInRange(v)
	}
	lo, hi := float64(rng.Min), float64(rng.Max)
	switch {
	case len(vals) == 0:
		lo, hi = 0, 1
	case lo == hi:
		lo, hi = lo-0.5, hi+0.5
	}
	hs := Hist{BinEdges: floats.Span(make([]float64, nBins+1), lo, hi), Counts: make([]int, nBins)}
	if len(vals) == 0 {
		return hs
	}
	xs := make([]float64, len(vals))
	for i, v := range vals {
		xs[i] = float64(v)
	}
	sort.Float64s(xs)
	divs := append([]float64(nil), hs.BinEdges...)
	divs[0] = math.Min(divs[0], xs[0])
	divs[nBins] = math.Nextafter(math.Max(hi, xs[len(xs)-1]), math.Inf(1))
	cnt := stat.Histogram(nil, divs, xs, nil)
	for i, c := range cnt {
		hs.Counts[i] = int(c)
	}
	return hs
}

// Flatten returns the values of a nested matrix as one slice
func Flatten(m [][]float32) []float32 {
	var n int
	for _, r := range m {
		n += len(r)
	}
	vs := make([]float32, 0, n)
	for _, r := range m {
		vs = append(vs, r...)
	}
	return vs
}

// BinRecord returns histograms of every weight matrix in the record
func BinRecord(rc *Record, nBins int) map[string]Hist {
	bins := map[string]Hist{}
	for nm, m := range rc.Matrices() {
		bins[nm] = Histogram(Flatten(m), nBins)
	}
	return bins
}

// SaveBinnedJSON saves histograms to a JSON file
func SaveBinnedJSON(filename string, bins map[string]Hist) error {
	return saveJSON(filename, bins)
}

// Summary holds summary statistics of a set of values
type Summary struct {
	N    int
	Mean float64
	Std  float64
	Min  float32
	Max  float32
}

// Summarize returns the summary statistics of vals
func Summarize(vals []float32) Summary {
	sm := Summary{N: len(vals)}
	if len(vals) == 0 {
		return sm
	}
	xs := make([]float64, len(vals))
	rng := minmax.F32{}
	rng.SetInfinity()
	for i, v := range vals {
		xs[i] = float64(v)
		rng.FitValInRange(v)
	}
	sm.Mean, sm.Std = stat.MeanStdDev(xs, nil)
	sm.Min, sm.Max = rng.Min, rng.Max
	return sm
}
