// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lif

import (
	"testing"

	"github.com/chewxy/math32"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = float32(1.0e-6)

func TestNoLeakNoInput(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	lp.Decay = 1

	vm := []float32{0, 0.25, 0.5, 0.999, 1, -0.3}
	inet := make([]float32, len(vm))
	spk, nvm, _ := lp.Step(inet, vm)
	for i := range vm {
		if spk[i] != 0 {
			t.Errorf("idx: %d vm: %v spiked with no input", i, vm[i])
		}
		if nvm[i] != vm[i] {
			t.Errorf("idx: %d vm: %v changed to: %v", i, vm[i], nvm[i])
		}
	}
}

func TestSpikeReset(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	lp.Decay = 0.5

	// integrated potentials: 0.5*vm + inet
	vm := []float32{0, 0, 0, 1, 2, 0.4}
	inet := []float32{1, 1.0001, 0.3, 0.5, 0.1, 0.9}
	corspk := []float32{0, 1, 0, 0, 1, 1}
	cornvm := []float32{1, 0, 0.3, 1, 0, 0}

	spk, nvm, sg := lp.Step(inet, vm)
	for i := range vm {
		if spk[i] != corspk[i] {
			t.Errorf("spike err: idx: %d vm: %v inet: %v spk: %v cor: %v", i, vm[i], inet[i], spk[i], corspk[i])
		}
		if math32.Abs(nvm[i]-cornvm[i]) > difTol {
			t.Errorf("vm err: idx: %d nvm: %v cor: %v", i, nvm[i], cornvm[i])
		}
		if spk[i] == 1 && nvm[i] != 0 {
			t.Errorf("idx: %d spiked but not reset to exactly 0: %v", i, nvm[i])
		}
		if sg[i] <= 0 {
			t.Errorf("idx: %d surrogate not positive: %v", i, sg[i])
		}
	}
	// surrogate is taken before reset: unit 4 integrates to exactly 1.1
	if math32.Abs(sg[4]-lp.Surrogate(1.1)) > difTol {
		t.Errorf("surrogate not at pre-reset potential: %v vs %v", sg[4], lp.Surrogate(1.1))
	}
}

func TestStepValueSemantics(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	vm := []float32{0.9, 0.2}
	inet := []float32{0.5, 0.1}
	_, nvm, _ := lp.Step(inet, vm)
	if vm[0] != 0.9 || vm[1] != 0.2 {
		t.Errorf("input potential was modified: %v", vm)
	}
	nvm[0] = 42
	if vm[0] == 42 {
		t.Errorf("returned potential aliases input")
	}
}

func TestStepIntoInPlace(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	inet := []float32{0.3, 2, 0.1}
	vm := []float32{0.5, 0.5, 0.5}
	spk := make([]float32, 3)
	cspk, cvm, _ := lp.Step(inet, vm)
	lp.StepInto(inet, vm, spk, vm, nil)
	for i := range vm {
		if vm[i] != cvm[i] || spk[i] != cspk[i] {
			t.Errorf("in-place step differs at %d: vm %v vs %v, spk %v vs %v", i, vm[i], cvm[i], spk[i], cspk[i])
		}
	}
}

func TestSurrogate(t *testing.T) {
	lp := Params{}
	lp.Defaults()

	peak := lp.Surrogate(lp.Thr)
	if math32.Abs(peak-lp.PeakSG) > difTol {
		t.Errorf("peak surrogate: %v, expected Steep/4: %v", peak, lp.PeakSG)
	}
	dists := []float32{0.001, 0.01, 0.1, 0.5, 1, 2, 5}
	prv := peak
	for _, d := range dists {
		hi := lp.Surrogate(lp.Thr + d)
		lo := lp.Surrogate(lp.Thr - d)
		if math32.Abs(hi-lo) > difTol {
			t.Errorf("not symmetric at +/- %v: %v vs %v", d, hi, lo)
		}
		if hi <= 0 {
			t.Errorf("not positive at %v: %v", d, hi)
		}
		if hi >= peak {
			t.Errorf("not maximal at threshold: d %v: %v >= %v", d, hi, peak)
		}
		if hi >= prv {
			t.Errorf("not decreasing with distance: d %v: %v >= %v", d, hi, prv)
		}
		prv = hi
	}
	if far := lp.Surrogate(lp.Thr + 20); far > 1.0e-30 {
		t.Errorf("surrogate does not vanish far from threshold: %v", far)
	}
}

func TestSurrogateNoOverflow(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	lp.Steep = 1000
	lp.Update()
	for _, v := range []float32{-1e30, -1e6, -100, 100, 1e6, 1e30} {
		sg := lp.Surrogate(v)
		if math32.IsNaN(sg) || math32.IsInf(sg, 0) || sg < 0 {
			t.Errorf("surrogate at %v is not finite / non-negative: %v", v, sg)
		}
	}
}

func TestSurrogateValues(t *testing.T) {
	lp := Params{}
	lp.Defaults()
	// direct logistic derivative: s * e / (1+e)^2, e = exp(-s*(v-1)), s = 5
	tstv := []float32{0, 0.5, 0.8, 1, 1.2, 1.5, 2}
	cory := []float32{0.033240283, 0.35051858, 0.98305967, 1.25, 0.98305967, 0.35051858, 0.033240283}
	for i, v := range tstv {
		sg := lp.Surrogate(v)
		if dif := math32.Abs(sg - cory[i]); dif > 1.0e-5 {
			t.Errorf("surrogate err: v: %v sg: %v cor: %v dif: %v", v, sg, cory[i], dif)
		}
	}
}
