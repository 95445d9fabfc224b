// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"errors"
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/snn/encode"
)

func testParams(nIn, nHid, nOut, nSteps int) Params {
	pr := Params{}
	pr.Defaults()
	pr.NIn, pr.NHid, pr.NOut, pr.NSteps = nIn, nHid, nOut, nSteps
	return pr
}

func testBatch(nSamples, nIn, nOut int) *Batch {
	b := &Batch{}
	for s := 0; s < nSamples; s++ {
		img := make([]float32, nIn)
		for i := range img {
			img[i] = float32((s+i)%5) / 4
		}
		b.Images = append(b.Images, img)
		b.Labels = append(b.Labels, s%nOut)
	}
	return b
}

func TestNewNetworkParams(t *testing.T) {
	pr := testParams(4, 3, 2, 0)
	if _, err := NewNetwork(pr, 1); !errors.Is(err, ErrParams) {
		t.Errorf("zero steps: got %v", err)
	}
	pr = testParams(4, 3, 2, 5)
	pr.Act.Decay = 1.5
	if _, err := NewNetwork(pr, 1); !errors.Is(err, ErrParams) {
		t.Errorf("decay > 1: got %v", err)
	}
	pr = testParams(4, 3, 2, 5)
	pr.LRate = 0
	if _, err := NewNetwork(pr, 1); !errors.Is(err, ErrParams) {
		t.Errorf("zero lrate: got %v", err)
	}
}

// TestZeroWeightsBatch runs a full batch with all-zero weights: nothing
// spikes, so both classes are equally likely and the loss is -log(0.5).
func TestZeroWeightsBatch(t *testing.T) {
	pr := testParams(6, 4, 2, 5)
	pr.WtInit.Sigma = 0
	nt, err := NewNetwork(pr, 3)
	if err != nil {
		t.Fatal(err)
	}
	b := testBatch(2, 6, 2)
	br, err := nt.ComputeGrads(b, encode.NewEncoder(9))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range br.Arena.Acc.Data {
		if v != 0 {
			t.Errorf("idx: %d count: %v", i, v)
		}
	}
	cor := -math32.Log(0.5 + LogEps)
	for i, l := range br.Readout.Losses {
		if math32.Abs(l-cor) > difTol {
			t.Errorf("sample: %d loss: %v cor: %v", i, l, cor)
		}
	}
	if math32.Abs(br.Loss()-cor) > difTol {
		t.Errorf("loss: %v cor: %v", br.Loss(), cor)
	}
	if br.Correct != 1 {
		t.Errorf("correct: %d -- ties go to class 0, labels are 0, 1", br.Correct)
	}
}

func TestTrainBatch(t *testing.T) {
	pr := testParams(8, 6, 3, 10)
	pr.WtInit.Mean, pr.WtInit.Sigma = 0.3, 0.3
	nt, err := NewNetwork(pr, 5)
	if err != nil {
		t.Fatal(err)
	}
	before := nt.Wts.Clone()
	b := testBatch(4, 8, 3)
	br, err := nt.TrainBatch(b)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range nt.Wts.HidOut.Data {
		cor := before.HidOut.Data[i] - pr.LRate*br.Grads.HidOut.Data[i]
		if math32.Abs(v-cor) > difTol {
			t.Errorf("HidOut idx: %d val: %v cor: %v", i, v, cor)
		}
	}
	for i, v := range nt.Wts.InHid.Data {
		cor := before.InHid.Data[i] - pr.LRate*br.Grads.InHid.Data[i]
		if math32.Abs(v-cor) > difTol {
			t.Errorf("InHid idx: %d val: %v cor: %v", i, v, cor)
		}
	}
	if len(br.Pred) != 4 || br.Correct < 0 || br.Correct > 4 {
		t.Errorf("pred: %v correct: %d", br.Pred, br.Correct)
	}
}

func TestTrainBatchErrors(t *testing.T) {
	pr := testParams(4, 3, 2, 5)
	nt, err := NewNetwork(pr, 1)
	if err != nil {
		t.Fatal(err)
	}
	before := nt.Wts.Clone()
	cases := []struct {
		name string
		b    *Batch
		err  error
	}{
		{"empty", &Batch{}, ErrEmptyBatch},
		{"labels", &Batch{Images: [][]float32{{0, 0, 0, 0}}}, ErrShape},
		{"pixels", &Batch{Images: [][]float32{{0, 0, 0}}, Labels: []int{0}}, ErrShape},
		{"label range", &Batch{Images: [][]float32{{0, 0, 0, 0}}, Labels: []int{2}}, ErrShape},
		{"intensity", &Batch{Images: [][]float32{{0, 1.5, 0, 0}}, Labels: []int{1}}, encode.ErrInput},
	}
	for _, c := range cases {
		if _, err := nt.TrainBatch(c.b); !errors.Is(err, c.err) {
			t.Errorf("%s: got %v want %v", c.name, err, c.err)
		}
	}
	for i := range before.InHid.Data {
		if nt.Wts.InHid.Data[i] != before.InHid.Data[i] {
			t.Fatalf("failed batch modified weights at %d", i)
		}
	}
}

func TestPredict(t *testing.T) {
	pr := testParams(8, 6, 3, 12)
	pr.WtInit.Mean, pr.WtInit.Sigma = 0.3, 0.3
	nt, err := NewNetwork(pr, 2)
	if err != nil {
		t.Fatal(err)
	}
	b := testBatch(5, 8, 3)
	p1, err := nt.Predict(b, encode.NewEncoder(4))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := nt.Predict(&Batch{Images: b.Images}, encode.NewEncoder(4))
	if err != nil {
		t.Fatal(err)
	}
	for i := range p1.Pred {
		if p1.Pred[i] != p2.Pred[i] {
			t.Errorf("sample: %d same encoder seed gave %d and %d", i, p1.Pred[i], p2.Pred[i])
		}
	}
	if p2.Correct != 0 {
		t.Errorf("correct without labels: %d", p2.Correct)
	}
	for i, r := range p1.Rates.Data {
		if r < 0 || r > 1 {
			t.Errorf("idx: %d rate out of range: %v", i, r)
		}
	}
}

func TestPredictWeightShape(t *testing.T) {
	pr := testParams(8, 6, 3, 4)
	nt, err := NewNetwork(pr, 2)
	if err != nil {
		t.Fatal(err)
	}
	// as if opened from a weights file saved with 4 outputs
	nt.Wts = NewWeights(8, 6, 4)
	b := testBatch(3, 8, 3)
	if _, err := nt.Predict(b, encode.NewEncoder(1)); !errors.Is(err, ErrShape) {
		t.Errorf("predict with 4-output weights: got %v", err)
	}
	if _, err := nt.Predict(&Batch{Images: b.Images}, encode.NewEncoder(1)); !errors.Is(err, ErrShape) {
		t.Errorf("predict without labels with 4-output weights: got %v", err)
	}
	if _, err := nt.ComputeGrads(b, encode.NewEncoder(1)); !errors.Is(err, ErrShape) {
		t.Errorf("compute grads with 4-output weights: got %v", err)
	}
}

// TestConcurrentPredict runs predictions while training updates the weights.
// Run with -race.
func TestConcurrentPredict(t *testing.T) {
	pr := testParams(8, 6, 3, 6)
	nt, err := NewNetwork(pr, 2)
	if err != nil {
		t.Fatal(err)
	}
	b := testBatch(4, 8, 3)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			enc := encode.NewEncoder(uint64(g))
			for i := 0; i < 5; i++ {
				if _, err := nt.Predict(b, enc); err != nil {
					t.Error(err)
				}
			}
		}(g)
	}
	for i := 0; i < 5; i++ {
		if _, err := nt.TrainBatch(b); err != nil {
			t.Error(err)
		}
	}
	wg.Wait()
}
