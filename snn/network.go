// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/snn/encode"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/blas/blas32"
)

// Batch is one minibatch of images (pixel intensities in [0,1]) and
// the class label of each image, aligned by position.
type Batch struct {
	Images [][]float32
	Labels []int
}

// Len returns the number of samples
func (b *Batch) Len() int { return len(b.Images) }

// Validate checks the batch against given input and class counts
func (b *Batch) Validate(nIn, nOut int) error {
	if len(b.Images) == 0 {
		return ErrEmptyBatch
	}
	if len(b.Labels) != len(b.Images) {
		return fmt.Errorf("%w: %d labels for %d images", ErrShape, len(b.Labels), len(b.Images))
	}
	for i, img := range b.Images {
		if len(img) != nIn {
			return fmt.Errorf("%w: image %d has %d pixels, expected %d", ErrShape, i, len(img), nIn)
		}
	}
	for i, lb := range b.Labels {
		if lb < 0 || lb >= nOut {
			return fmt.Errorf("%w: label %d = %d out of range [0, %d)", ErrShape, i, lb, nOut)
		}
	}
	return nil
}

// Network is the two-layer spiking classifier: params, the weights it
// exclusively owns, and the encoder used for training batches.
type Network struct {
	Params Params          `desc:"network and learning parameters"`
	Wts    *Weights        `desc:"synaptic weights -- the only state that persists across batches"`
	Enc    *encode.Encoder `view:"-" desc:"spike encoder used by TrainBatch"`
}

// NewNetwork validates params and returns a network with weights drawn
// from params.WtInit and an encoder, all seeded from seed.
func NewNetwork(pr Params, seed uint64) (*Network, error) {
	pr.Update()
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	nt := &Network{Params: pr}
	nt.Wts = NewWeights(pr.NIn, pr.NHid, pr.NOut)
	nt.Wts.InitWts(&nt.Params.WtInit, rand.NewSource(seed))
	nt.Enc = encode.NewEncoder(seed + 1)
	return nt, nil
}

// BatchResult holds everything computed for one batch
type BatchResult struct {
	Arena   *Arena             `desc:"per-batch forward state"`
	Train   *encode.SpikeTrain `desc:"encoded input"`
	Readout *Readout           `desc:"probabilities, loss and logit gradient"`
	Grads   *Grads             `desc:"weight gradients"`
	Pred    []int              `desc:"predicted class per sample"`
	Correct int                `desc:"number of correct predictions"`
}

// Loss returns the mean batch loss
func (br *BatchResult) Loss() float32 { return br.Readout.Loss }

// ComputeGrads encodes the batch with enc and runs the forward pass,
// readout and backward pass, without modifying the weights.  The weights
// read lock is held across the forward and backward passes, so both see
// the same weights even if another goroutine calls ApplyGrads.
func (nt *Network) ComputeGrads(b *Batch, enc *encode.Encoder) (*BatchResult, error) {
	pr := &nt.Params
	if err := b.Validate(pr.NIn, pr.NOut); err != nil {
		return nil, err
	}
	st, err := enc.Encode(b.Images, pr.NSteps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShape, err)
	}
	nt.Wts.RLock()
	defer nt.Wts.RUnlock()
	if err := nt.Wts.CheckShape(pr.NIn, pr.NHid, pr.NOut); err != nil {
		return nil, err
	}
	ar, err := forward(&pr.Act, nt.Wts, st)
	if err != nil {
		return nil, err
	}
	ro, err := ReadoutFmAcc(ar.Acc, b.Labels)
	if err != nil {
		return nil, err
	}
	gr, err := backward(&pr.Act, nt.Wts, st, ar, ro.GLogit)
	if err != nil {
		return nil, err
	}
	br := &BatchResult{Arena: ar, Train: st, Readout: ro, Grads: gr}
	br.Pred = Predictions(ar.Acc)
	br.Correct = countCorrect(br.Pred, b.Labels)
	return br, nil
}

// ApplyGrads performs the gradient descent update with the network's
// learning rate.  This is the only place the weights are modified.
func (nt *Network) ApplyGrads(gr *Grads) error {
	return nt.Wts.Apply(gr, nt.Params.LRate)
}

// TrainBatch runs one full training step on the batch: encode, forward,
// readout, backward, and weight update.  Any error aborts the batch
// before the weights are touched.
func (nt *Network) TrainBatch(b *Batch) (*BatchResult, error) {
	br, err := nt.ComputeGrads(b, nt.Enc)
	if err != nil {
		return nil, err
	}
	if err := nt.ApplyGrads(br.Grads); err != nil {
		return nil, err
	}
	return br, nil
}

// Prediction is the forward-only classification of a batch
type Prediction struct {
	Pred    []int          `desc:"predicted class per sample (argmax of counts, lowest index on ties)"`
	Rates   blas32.General `desc:"output spike rates = counts / NSteps, NSamples x NOut"`
	Correct int            `desc:"number of correct predictions, if labels were given"`
}

// Predict classifies the batch using only the forward pass, encoding it
// with enc.  Labels are optional: if present they are validated and used
// to count correct predictions.  Safe to call concurrently with other
// Predict calls as long as each uses its own encoder.
func (nt *Network) Predict(b *Batch, enc *encode.Encoder) (*Prediction, error) {
	pr := &nt.Params
	if len(b.Images) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(b.Labels) > 0 {
		if err := b.Validate(pr.NIn, pr.NOut); err != nil {
			return nil, err
		}
	}
	st, err := enc.Encode(b.Images, pr.NSteps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShape, err)
	}
	nt.Wts.RLock()
	if err := nt.Wts.CheckShape(pr.NIn, pr.NHid, pr.NOut); err != nil {
		nt.Wts.RUnlock()
		return nil, err
	}
	ar, err := forward(&pr.Act, nt.Wts, st)
	nt.Wts.RUnlock()
	if err != nil {
		return nil, err
	}
	pd := &Prediction{Pred: Predictions(ar.Acc), Rates: CloneMat(ar.Acc)}
	inv := 1 / float32(pr.NSteps)
	for i := range pd.Rates.Data {
		pd.Rates.Data[i] *= inv
	}
	if len(b.Labels) > 0 {
		pd.Correct = countCorrect(pd.Pred, b.Labels)
	}
	return pd, nil
}

func countCorrect(pred, labels []int) int {
	n := 0
	for i, p := range pred {
		if p == labels[i] {
			n++
		}
	}
	return n
}
