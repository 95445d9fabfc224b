// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package encode converts static real-valued images into binary spike trains
by independent Bernoulli (rate / "Poisson") sampling: at every time step each
pixel spikes when a uniform draw in [0,1) is strictly less than its intensity.

Intensity 0 never spikes.  Intensity 1 spikes on every step because the
uniform source never returns 1.0 -- a draw of exactly 1.0 would not spike
under the strict comparison, which is the intended boundary policy.
Nothing is carried over between calls other than the state of the random
source, so results are reproducible only when the caller seeds it.
*/
package encode

import (
	"errors"
	"fmt"

	"github.com/emer/etable/minmax"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/blas/blas32"
)

// ErrInput is returned for images that cannot be encoded.
var ErrInput = errors.New("encode: invalid input")

// SpikeTrain is a (sample, step, input) tensor of 0 / 1 spikes.
// Values are stored step-major so that every step is a contiguous
// NSamples x NIn matrix that can be used directly in matrix products.
type SpikeTrain struct {
	NSamples int
	NSteps   int
	NIn      int
	Values   []float32
}

// NewSpikeTrain returns an all-zero spike train of given dimensions
func NewSpikeTrain(nSamples, nSteps, nIn int) *SpikeTrain {
	return &SpikeTrain{NSamples: nSamples, NSteps: nSteps, NIn: nIn, Values: make([]float32, nSamples*nSteps*nIn)}
}

// Idx returns the flat index for sample s, step t, input unit i
func (st *SpikeTrain) Idx(s, t, i int) int {
	return (t*st.NSamples+s)*st.NIn + i
}

// At returns the spike (0 or 1) for sample s, step t, input unit i
func (st *SpikeTrain) At(s, t, i int) float32 {
	return st.Values[st.Idx(s, t, i)]
}

// Step returns the NSamples x NIn matrix of spikes at step t.
// The returned matrix shares memory with the spike train and must be
// treated as read-only.
func (st *SpikeTrain) Step(t int) blas32.General {
	n := st.NSamples * st.NIn
	return blas32.General{Rows: st.NSamples, Cols: st.NIn, Stride: st.NIn, Data: st.Values[t*n : (t+1)*n]}
}

// Rate returns the fraction of steps on which input i of sample s spiked
func (st *SpikeTrain) Rate(s, i int) float32 {
	if st.NSteps == 0 {
		return 0
	}
	var n float32
	for t := 0; t < st.NSteps; t++ {
		n += st.At(s, t, i)
	}
	return n / float32(st.NSteps)
}

// Encoder draws Bernoulli spike trains from pixel intensities.
// An Encoder is not safe for concurrent use: give each goroutine its own.
type Encoder struct {
	Range minmax.F32 `desc:"valid range of pixel intensities -- anything outside (or NaN) is rejected"`
	Rand  *rand.Rand `view:"-" desc:"uniform random source"`
}

// NewEncoder returns an encoder over [0,1] intensities with a source seeded by seed
func NewEncoder(seed uint64) *Encoder {
	en := &Encoder{}
	en.Defaults()
	en.Rand = rand.New(rand.NewSource(seed))
	return en
}

func (en *Encoder) Defaults() {
	en.Range.Set(0, 1)
}

// Encode returns a spike train with steps time steps for given images,
// which must all have the same length.
func (en *Encoder) Encode(images [][]float32, steps int) (*SpikeTrain, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be > 0 (got %d)", ErrInput, steps)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images", ErrInput)
	}
	nIn := len(images[0])
	for si, img := range images {
		if len(img) != nIn {
			return nil, fmt.Errorf("%w: image %d has %d pixels, expected %d", ErrInput, si, len(img), nIn)
		}
		for pi, px := range img {
			if !en.Range.InRange(px) {
				return nil, fmt.Errorf("%w: image %d pixel %d = %v outside of [%v, %v]", ErrInput, si, pi, px, en.Range.Min, en.Range.Max)
			}
		}
	}
	st := NewSpikeTrain(len(images), steps, nIn)
	for si, img := range images {
		for t := 0; t < steps; t++ {
			off := st.Idx(si, t, 0)
			for pi, px := range img {
				if en.Rand.Float64() < float64(px) {
					st.Values[off+pi] = 1
				}
			}
		}
	}
	return st, nil
}
