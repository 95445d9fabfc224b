// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/goki/mat32"
	"gonum.org/v1/gonum/blas/blas32"
)

// LogEps is added to probabilities before taking the log in the loss
const LogEps = 1.0e-9

// Readout is the softmax cross-entropy readout over summed output spike counts.
type Readout struct {
	Probs  blas32.General `desc:"softmax class probabilities, NSamples x NOut"`
	GLogit blas32.General `desc:"dLoss / dAcc = (Probs - onehot) / NSamples -- the same gradient applies to every step's output spikes"`
	Losses []float32      `desc:"per-sample cross-entropy loss"`
	Loss   float32        `desc:"mean loss over samples"`
}

// Softmax returns row-wise softmax probabilities of acc, computed with the
// row max subtracted so that large counts cannot overflow.
func Softmax(acc blas32.General) blas32.General {
	pr := NewMat(acc.Rows, acc.Cols)
	for r := 0; r < acc.Rows; r++ {
		row := acc.Data[r*acc.Stride : r*acc.Stride+acc.Cols]
		prow := pr.Data[r*pr.Stride : r*pr.Stride+pr.Cols]
		mx := row[0]
		for _, v := range row[1:] {
			mx = mat32.Max(mx, v)
		}
		var sum float32
		for c, v := range row {
			e := mat32.Exp(v - mx)
			prow[c] = e
			sum += e
		}
		for c := range prow {
			prow[c] /= sum
		}
	}
	return pr
}

// ReadoutFmAcc computes class probabilities, loss, and the gradient of the
// loss with respect to the output spike counts.
func ReadoutFmAcc(acc blas32.General, labels []int) (*Readout, error) {
	n := acc.Rows
	if n == 0 || len(labels) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d labels for %d samples", ErrShape, len(labels), n)
	}
	if !finite(acc.Data) {
		return nil, fmt.Errorf("%w: non-finite output counts", ErrNumeric)
	}
	for i, lb := range labels {
		if lb < 0 || lb >= acc.Cols {
			return nil, fmt.Errorf("%w: label %d = %d out of range [0, %d)", ErrShape, i, lb, acc.Cols)
		}
	}
	ro := &Readout{Probs: Softmax(acc), Losses: make([]float32, n)}
	if !finite(ro.Probs.Data) {
		return nil, fmt.Errorf("%w: non-finite probabilities", ErrNumeric)
	}
	ro.GLogit = CloneMat(ro.Probs)
	inv := 1 / float32(n)
	var sum float32
	for r, lb := range labels {
		l := -mat32.Log(ro.Probs.Data[r*ro.Probs.Stride+lb] + LogEps)
		ro.Losses[r] = l
		sum += l
		ro.GLogit.Data[r*ro.GLogit.Stride+lb] -= 1
	}
	for i := range ro.GLogit.Data {
		ro.GLogit.Data[i] *= inv
	}
	ro.Loss = sum * inv
	if !finite(ro.Losses) || !finite([]float32{ro.Loss}) {
		return nil, fmt.Errorf("%w: non-finite loss", ErrNumeric)
	}
	return ro, nil
}

// Predictions returns the class with the highest count for each sample,
// taking the lowest index among ties.
func Predictions(acc blas32.General) []int {
	pred := make([]int, acc.Rows)
	for r := range pred {
		row := acc.Data[r*acc.Stride : r*acc.Stride+acc.Cols]
		mi := 0
		for c, v := range row {
			if v > row[mi] {
				mi = c
			}
		}
		pred[r] = mi
	}
	return pred
}
