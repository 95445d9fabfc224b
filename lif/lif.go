// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package lif provides the leaky integrate-and-fire (LIF) spiking neuron update
used by the snn network, together with the smooth surrogate derivative of its
spike threshold that is used in place of the (undefined) derivative of the
hard threshold during learning.

Each step the membrane potential decays geometrically toward 0 and integrates
the input current.  If the result exceeds the threshold the neuron emits a
spike and the potential is hard-reset to exactly 0 (not reduced by the
threshold).

The surrogate is the derivative of a logistic sigmoid centered at the
threshold, evaluated at the potential before reset.  It is computed from
exp(-steep*|v-thr|), which is symmetric in v-thr and never overflows, so large
potentials give a surrogate of 0 rather than NaN.
*/
package lif

import "github.com/chewxy/math32"

// Params are the LIF neuron parameters.
type Params struct {
	Thr   float32 `def:"1" desc:"spiking threshold -- a spike is emitted when the integrated potential is strictly greater than this value"`
	Decay float32 `def:"0.95" min:"0" max:"1" desc:"membrane decay factor applied to the previous potential each step -- 1 = no leak"`
	Steep float32 `def:"5" min:"0" desc:"steepness of the logistic surrogate -- higher values concentrate the surrogate gradient closer to threshold"`

	PeakSG float32 `view:"-" json:"-" desc:"surrogate value at threshold = Steep / 4"`
}

func (lp *Params) Defaults() {
	lp.Thr = 1
	lp.Decay = 0.95
	lp.Steep = 5
	lp.Update()
}

// Update must be called after any changes to parameters
func (lp *Params) Update() {
	lp.PeakSG = 0.25 * lp.Steep
}

// VmFmI returns the integrated potential from previous potential and input current
func (lp *Params) VmFmI(vm, inet float32) float32 {
	return lp.Decay*vm + inet
}

// Spiked returns true if the integrated (pre-reset) potential crosses threshold
func (lp *Params) Spiked(vm float32) bool {
	return vm > lp.Thr
}

// Surrogate returns the derivative of a logistic sigmoid centered at Thr,
// evaluated at the pre-reset potential vm.
func (lp *Params) Surrogate(vm float32) float32 {
	e := math32.Exp(-lp.Steep * math32.Abs(vm-lp.Thr))
	d := 1 + e
	return lp.Steep * e / (d * d)
}

// NeurStep advances a single neuron, returning spike (0 or 1), the post-reset
// potential and the surrogate gradient at the pre-reset potential.
func (lp *Params) NeurStep(inet, vm float32) (spk, nvm, sg float32) {
	nvm = lp.VmFmI(vm, inet)
	sg = lp.Surrogate(nvm)
	if lp.Spiked(nvm) {
		return 1, 0, sg
	}
	return 0, nvm, sg
}

// Step advances a layer of neurons by one time step.
// inet and vm must be the same length (samples * units, in any layout).
// Neither input is modified: fresh spike, potential and surrogate slices
// are returned.
func (lp *Params) Step(inet, vm []float32) (spk, nvm, sg []float32) {
	n := len(inet)
	spk = make([]float32, n)
	nvm = make([]float32, n)
	sg = make([]float32, n)
	lp.StepInto(inet, vm, spk, nvm, sg)
	return
}

// StepInto is Step writing into caller-owned destinations.  nvm may be the
// same slice as vm (updating in place), since each unit only depends on itself.
// sg may be nil when the surrogate is not needed (e.g., forward-only passes).
// All non-nil slices must have len(inet) elements.
func (lp *Params) StepInto(inet, vm, spk, nvm, sg []float32) {
	for i, in := range inet {
		v := lp.VmFmI(vm[i], in)
		if sg != nil {
			sg[i] = lp.Surrogate(v)
		}
		if lp.Spiked(v) {
			spk[i] = 1
			nvm[i] = 0
		} else {
			spk[i] = 0
			nvm[i] = v
		}
	}
}
