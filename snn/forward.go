// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/snn/encode"
	"github.com/emer/snn/lif"
)

// Forward runs the spike train through the hidden and output LIF layers
// over all of its time steps, returning a new Arena holding the output
// spike counts (Acc) and the per-step hidden spikes and currents needed
// by Backward.  Both layers start from zero potential.
// Forward only reads the weights: given the same spike train and weights
// it always produces identical results.
func Forward(ac *lif.Params, wt *Weights, st *encode.SpikeTrain) (*Arena, error) {
	wt.RLock()
	defer wt.RUnlock()
	return forward(ac, wt, st)
}

// forward is Forward with the weights read lock already held
func forward(ac *lif.Params, wt *Weights, st *encode.SpikeTrain) (*Arena, error) {
	if err := checkTrain(wt, st); err != nil {
		return nil, err
	}
	nHid, nOut := wt.InHid.Cols, wt.HidOut.Cols
	ar := NewArena(st.NSamples, st.NSteps, nHid, nOut)
	for t := 0; t < st.NSteps; t++ {
		ar.CycleFwd(ac, wt, st, t)
	}
	return ar, nil
}

// CycleFwd runs one time step t of the forward pass, updating membrane
// potentials and output counts in place and caching hidden state for step t.
// Caller must hold the weights read lock.
func (ar *Arena) CycleFwd(ac *lif.Params, wt *Weights, st *encode.SpikeTrain, t int) {
	hcur := ar.HidCur[t]
	hspk := ar.HidSpk[t]
	mulInto(hcur, st.Step(t), wt.InHid)
	ac.StepInto(hcur.Data, ar.VmHid.Data, hspk.Data, ar.VmHid.Data, nil)

	mulInto(ar.CurOut, hspk, wt.HidOut)
	ac.StepInto(ar.CurOut.Data, ar.VmOut.Data, ar.SpkOut.Data, ar.VmOut.Data, nil)
	for i, s := range ar.SpkOut.Data {
		ar.Acc.Data[i] += s
	}
}

func checkTrain(wt *Weights, st *encode.SpikeTrain) error {
	if st == nil || st.NSamples == 0 {
		return ErrEmptyBatch
	}
	if st.NSteps <= 0 {
		return fmt.Errorf("%w: spike train has %d steps", ErrShape, st.NSteps)
	}
	if st.NIn != wt.InHid.Rows {
		return fmt.Errorf("%w: spike train has %d inputs, InHid expects %d", ErrShape, st.NIn, wt.InHid.Rows)
	}
	if wt.InHid.Cols != wt.HidOut.Rows {
		return fmt.Errorf("%w: InHid has %d hidden units, HidOut has %d", ErrShape, wt.InHid.Cols, wt.HidOut.Rows)
	}
	if len(st.Values) != st.NSamples*st.NSteps*st.NIn {
		return fmt.Errorf("%w: spike train has %d values, expected %d", ErrShape, len(st.Values), st.NSamples*st.NSteps*st.NIn)
	}
	return nil
}
