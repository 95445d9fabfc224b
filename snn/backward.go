// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/snn/encode"
	"github.com/emer/snn/lif"
	"gonum.org/v1/gonum/blas/blas32"
)

// Backward computes weight gradients by backpropagation through time,
// replaying the steps cached by Forward in reverse order.  gLogit is the
// loss gradient with respect to the summed output counts, which applies
// unchanged to every step's output spikes.
//
// At each step the surrogate gradients of both layers are recomputed by
// re-running the LIF step on the cached current with a zero potential,
// not on the potential the neurons actually had during Forward.  The spike
// train is a constant input: no gradient flows into the encoder.
func Backward(ac *lif.Params, wt *Weights, st *encode.SpikeTrain, ar *Arena, gLogit blas32.General) (*Grads, error) {
	wt.RLock()
	defer wt.RUnlock()
	return backward(ac, wt, st, ar, gLogit)
}

// backward is Backward with the weights read lock already held
func backward(ac *lif.Params, wt *Weights, st *encode.SpikeTrain, ar *Arena, gLogit blas32.General) (*Grads, error) {
	if err := checkTrain(wt, st); err != nil {
		return nil, err
	}
	nOut := wt.HidOut.Cols
	if ar.NSamples != st.NSamples || ar.NSteps != st.NSteps || len(ar.HidSpk) != st.NSteps {
		return nil, fmt.Errorf("%w: arena is %d samples x %d steps, spike train is %d x %d", ErrShape, ar.NSamples, ar.NSteps, st.NSamples, st.NSteps)
	}
	if gLogit.Rows != st.NSamples || gLogit.Cols != nOut {
		return nil, fmt.Errorf("%w: logit gradient is %d x %d, expected %d x %d", ErrShape, gLogit.Rows, gLogit.Cols, st.NSamples, nOut)
	}
	ar.allocBackward()
	gr := NewGrads(wt.InHid.Rows, wt.InHid.Cols, nOut)
	for t := st.NSteps - 1; t >= 0; t-- {
		ar.CycleBwd(ac, wt, st, gLogit, gr, t)
	}
	if !finite(gr.InHid.Data) || !finite(gr.HidOut.Data) {
		return nil, fmt.Errorf("%w: non-finite gradient", ErrNumeric)
	}
	return gr, nil
}

// CycleBwd accumulates the gradient contributions of time step t into gr.
// Caller must hold the weights read lock.
func (ar *Arena) CycleBwd(ac *lif.Params, wt *Weights, st *encode.SpikeTrain, gLogit blas32.General, gr *Grads, t int) {
	hspk := ar.HidSpk[t]

	mulInto(ar.CurOut, hspk, wt.HidOut)
	ac.StepInto(ar.CurOut.Data, ar.ZeroOut.Data, ar.ScrOut.Data, ar.ScrOut.Data, ar.SGOut.Data)
	mulElemInto(ar.GOut, gLogit, ar.SGOut)
	mulATAdd(gr.HidOut, hspk, ar.GOut)

	mulBTInto(ar.GHid, ar.GOut, wt.HidOut)
	ac.StepInto(ar.HidCur[t].Data, ar.ZeroHid.Data, ar.ScrHid.Data, ar.ScrHid.Data, ar.SGHid.Data)
	mulElemInto(ar.GHid, ar.GHid, ar.SGHid)
	mulATAdd(gr.InHid, st.Step(t), ar.GHid)
}
