// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "gonum.org/v1/gonum/blas/blas32"

// Arena holds all of the transient state for one batch's forward and
// backward pass.  A new Arena is made for each batch and dropped at the
// end of it: nothing here carries over across batches.
type Arena struct {
	NSamples int
	NSteps   int

	VmHid  blas32.General `desc:"hidden membrane potentials, NSamples x NHid"`
	VmOut  blas32.General `desc:"output membrane potentials, NSamples x NOut"`
	CurOut blas32.General `desc:"output layer input current at the current step"`
	SpkOut blas32.General `desc:"output layer spikes at the current step"`
	Acc    blas32.General `desc:"output spike counts summed over steps, NSamples x NOut -- the readout signal"`

	HidSpk []blas32.General `desc:"hidden spikes per step, cached for the backward pass"`
	HidCur []blas32.General `desc:"hidden input current per step, cached for the backward pass"`

	// backward pass scratch
	ZeroHid blas32.General
	ZeroOut blas32.General
	ScrHid  blas32.General
	ScrOut  blas32.General
	SGHid   blas32.General
	SGOut   blas32.General
	GOut    blas32.General
	GHid    blas32.General
}

// NewArena allocates the per-batch buffers
func NewArena(nSamples, nSteps, nHid, nOut int) *Arena {
	ar := &Arena{NSamples: nSamples, NSteps: nSteps}
	ar.VmHid = NewMat(nSamples, nHid)
	ar.VmOut = NewMat(nSamples, nOut)
	ar.CurOut = NewMat(nSamples, nOut)
	ar.SpkOut = NewMat(nSamples, nOut)
	ar.Acc = NewMat(nSamples, nOut)
	ar.HidSpk = make([]blas32.General, nSteps)
	ar.HidCur = make([]blas32.General, nSteps)
	for t := 0; t < nSteps; t++ {
		ar.HidSpk[t] = NewMat(nSamples, nHid)
		ar.HidCur[t] = NewMat(nSamples, nHid)
	}
	return ar
}

// allocBackward allocates the scratch buffers used by Backward, if not yet done
func (ar *Arena) allocBackward() {
	if ar.GHid.Data != nil {
		return
	}
	nHid, nOut := ar.VmHid.Cols, ar.VmOut.Cols
	ar.ZeroHid = NewMat(ar.NSamples, nHid)
	ar.ZeroOut = NewMat(ar.NSamples, nOut)
	ar.ScrHid = NewMat(ar.NSamples, nHid)
	ar.ScrOut = NewMat(ar.NSamples, nOut)
	ar.SGHid = NewMat(ar.NSamples, nHid)
	ar.SGOut = NewMat(ar.NSamples, nOut)
	ar.GOut = NewMat(ar.NSamples, nOut)
	ar.GHid = NewMat(ar.NSamples, nHid)
}

// ArenaFloats returns the number of float32 values held for one batch,
// including the spike train and gradient accumulators.
func ArenaFloats(nSamples, nSteps, nIn, nHid, nOut int) int {
	train := nSamples * nSteps * nIn
	hist := 2 * nSteps * nSamples * nHid
	state := nSamples * (2*nHid + 4*nOut)
	scratch := nSamples * (4*nHid + 4*nOut)
	grads := nIn*nHid + nHid*nOut
	return train + hist + state + scratch + grads
}

// Grads are the gradient accumulators, shaped like the Weights.
type Grads struct {
	InHid  blas32.General `desc:"dLoss / dInHid, NIn x NHid"`
	HidOut blas32.General `desc:"dLoss / dHidOut, NHid x NOut"`
}

// NewGrads returns zeroed gradients for given layer sizes
func NewGrads(nIn, nHid, nOut int) *Grads {
	return &Grads{InHid: NewMat(nIn, nHid), HidOut: NewMat(nHid, nOut)}
}

// Norms returns the Frobenius norms of the two gradient matrices
func (gr *Grads) Norms() (inHid, hidOut float32) {
	return Norm(gr.InHid), Norm(gr.HidOut)
}
