// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/emer/snn/encode"
)

func TestBackwardShapes(t *testing.T) {
	ac := testAct()
	st := testTrain(t, 4, 5, 10, 9)
	wt := testWeights(8, 9, 7, 3, 0.6)
	ar, err := Forward(&ac, wt, st)
	if err != nil {
		t.Fatal(err)
	}
	ro, err := ReadoutFmAcc(ar.Acc, []int{0, 1, 2, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	gr, err := Backward(&ac, wt, st, ar, ro.GLogit)
	if err != nil {
		t.Fatal(err)
	}
	if !sameShape(gr.InHid, wt.InHid) || !sameShape(gr.HidOut, wt.HidOut) {
		t.Errorf("gradient shapes %dx%d %dx%d do not match weights", gr.InHid.Rows, gr.InHid.Cols, gr.HidOut.Rows, gr.HidOut.Cols)
	}
	if !finite(gr.InHid.Data) || !finite(gr.HidOut.Data) {
		t.Errorf("non-finite gradients")
	}
}

// TestBackwardKnown checks the gradients for the same single path as
// TestForwardKnown over two steps, where the first output never spikes.
// The output surrogate is taken at the recomputed current alone (0.5),
// not the 0.975 potential the unit actually reached on the second step.
func TestBackwardKnown(t *testing.T) {
	ac := testAct()
	st, err := encode.NewEncoder(1).Encode([][]float32{{1}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	wt := NewWeights(1, 1, 2)
	wt.InHid.Data[0] = 2
	wt.HidOut.Data[0], wt.HidOut.Data[1] = 0.5, 1.5
	ar, err := Forward(&ac, wt, st)
	if err != nil {
		t.Fatal(err)
	}
	if ar.Acc.Data[0] != 0 || ar.Acc.Data[1] != 2 {
		t.Fatalf("counts: %v", ar.Acc.Data)
	}
	ro, err := ReadoutFmAcc(ar.Acc, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if math32.Abs(ro.Loss-2.126928) > difTol {
		t.Errorf("loss: %v cor: %v", ro.Loss, 2.126928)
	}
	gr, err := Backward(&ac, wt, st, ar, ro.GLogit)
	if err != nil {
		t.Fatal(err)
	}
	corHO := []float32{-0.61747149, 0.61747149}
	for i := range corHO {
		if math32.Abs(gr.HidOut.Data[i]-corHO[i]) > difTol {
			t.Errorf("HidOut grad idx: %d val: %v cor: %v", i, gr.HidOut.Data[i], corHO[i])
		}
	}
	corIH := float32(0.020524927)
	if math32.Abs(gr.InHid.Data[0]-corIH) > difTol {
		t.Errorf("InHid grad: %v cor: %v", gr.InHid.Data[0], corIH)
	}
}

func TestBackwardZeroLogit(t *testing.T) {
	ac := testAct()
	st := testTrain(t, 9, 3, 8, 5)
	wt := testWeights(1, 5, 4, 2, 0.7)
	ar, err := Forward(&ac, wt, st)
	if err != nil {
		t.Fatal(err)
	}
	gr, err := Backward(&ac, wt, st, ar, NewMat(3, 2))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range append(gr.InHid.Data, gr.HidOut.Data...) {
		if v != 0 {
			t.Errorf("idx: %d nonzero gradient from zero logit gradient: %v", i, v)
		}
	}
}

func TestBackwardErrors(t *testing.T) {
	ac := testAct()
	st := testTrain(t, 2, 2, 4, 3)
	wt := testWeights(3, 3, 2, 2, 0.5)
	ar, err := Forward(&ac, wt, st)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Backward(&ac, wt, st, ar, NewMat(3, 2)); !errors.Is(err, ErrShape) {
		t.Errorf("logit rows mismatch: got %v", err)
	}
	other := testTrain(t, 2, 2, 6, 3)
	if _, err := Backward(&ac, wt, other, ar, NewMat(2, 2)); !errors.Is(err, ErrShape) {
		t.Errorf("arena steps mismatch: got %v", err)
	}
	on, err := encode.NewEncoder(1).Encode([][]float32{{1, 1, 1}, {1, 1, 1}}, 4)
	if err != nil {
		t.Fatal(err)
	}
	oar, err := Forward(&ac, wt, on)
	if err != nil {
		t.Fatal(err)
	}
	gl := NewMat(2, 2)
	gl.Data[0] = math32.NaN()
	if _, err := Backward(&ac, wt, on, oar, gl); !errors.Is(err, ErrNumeric) {
		t.Errorf("NaN logit gradient: got %v", err)
	}
}
