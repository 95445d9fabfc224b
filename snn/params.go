// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"errors"
	"fmt"

	"github.com/emer/snn/lif"
)

var (
	// ErrShape is returned when batch, label or weight dimensions are inconsistent.
	ErrShape = errors.New("snn: shape mismatch")

	// ErrEmptyBatch is returned for batches with no samples.
	ErrEmptyBatch = errors.New("snn: empty batch")

	// ErrNumeric is returned when NaN or Inf values reach probabilities, loss or gradients.
	ErrNumeric = errors.New("snn: numerical instability")

	// ErrParams is returned for invalid parameters.
	ErrParams = errors.New("snn: invalid params")
)

// Params are the overall network and learning parameters.
type Params struct {
	NSteps int          `def:"100" min:"1" desc:"number of discrete time steps each image is presented for"`
	NIn    int          `def:"784" min:"1" desc:"number of input units (flattened pixels)"`
	NHid   int          `def:"100" min:"1" desc:"number of hidden LIF neurons"`
	NOut   int          `def:"10" min:"1" desc:"number of output LIF neurons = number of classes"`
	LRate  float32      `def:"0.01" min:"0" desc:"gradient descent learning rate"`
	Act    lif.Params   `view:"inline" desc:"LIF neuron parameters, shared by hidden and output layers"`
	WtInit WtInitParams `view:"inline" desc:"initial weight distribution"`
}

func (pr *Params) Defaults() {
	pr.NSteps = 100
	pr.NIn = 784
	pr.NHid = 100
	pr.NOut = 10
	pr.LRate = 0.01
	pr.Act.Defaults()
	pr.WtInit.Defaults()
	pr.Update()
}

// Update must be called after any changes to parameters
func (pr *Params) Update() {
	pr.Act.Update()
}

// Validate returns an error wrapping ErrParams if any parameter is out of range
func (pr *Params) Validate() error {
	switch {
	case pr.NSteps <= 0:
		return fmt.Errorf("%w: NSteps must be > 0 (got %d)", ErrParams, pr.NSteps)
	case pr.NIn <= 0 || pr.NHid <= 0 || pr.NOut <= 0:
		return fmt.Errorf("%w: unit counts must be > 0 (got %d, %d, %d)", ErrParams, pr.NIn, pr.NHid, pr.NOut)
	case !(pr.LRate > 0):
		return fmt.Errorf("%w: LRate must be > 0 (got %v)", ErrParams, pr.LRate)
	case !(pr.Act.Decay > 0 && pr.Act.Decay <= 1):
		return fmt.Errorf("%w: Act.Decay must be in (0,1] (got %v)", ErrParams, pr.Act.Decay)
	case !(pr.Act.Steep > 0):
		return fmt.Errorf("%w: Act.Steep must be > 0 (got %v)", ErrParams, pr.Act.Steep)
	case !(pr.WtInit.Sigma >= 0):
		return fmt.Errorf("%w: WtInit.Sigma must be >= 0 (got %v)", ErrParams, pr.WtInit.Sigma)
	}
	return nil
}

// WtInitParams are weight initialization parameters: weights are drawn
// independently from a normal distribution.
type WtInitParams struct {
	Mean  float64 `def:"0" desc:"mean of the initial weights"`
	Sigma float64 `def:"0.1" min:"0" desc:"standard deviation of the initial weights -- 0 gives constant Mean weights"`
}

func (wp *WtInitParams) Defaults() {
	wp.Mean = 0
	wp.Sigma = 0.1
}
