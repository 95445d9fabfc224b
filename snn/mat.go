// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// All matrices here are dense row-major with Stride == Cols, so Data can be
// treated as a flat vector of Rows*Cols values.

// NewMat returns a zeroed rows x cols matrix
func NewMat(rows, cols int) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: make([]float32, rows*cols)}
}

// CloneMat returns a deep copy of m
func CloneMat(m blas32.General) blas32.General {
	cm := NewMat(m.Rows, m.Cols)
	copy(cm.Data, m.Data)
	return cm
}

// RowsOf returns the matrix as a nested slice copy, one slice per row
func RowsOf(m blas32.General) [][]float32 {
	rs := make([][]float32, m.Rows)
	for r := range rs {
		rs[r] = append([]float32(nil), m.Data[r*m.Stride:r*m.Stride+m.Cols]...)
	}
	return rs
}

func vecOf(m blas32.General) blas32.Vector {
	return blas32.Vector{N: len(m.Data), Inc: 1, Data: m.Data}
}

func zeroMat(m blas32.General) {
	for i := range m.Data {
		m.Data[i] = 0
	}
}

func sameShape(a, b blas32.General) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols
}

// mulInto sets c = a * b
func mulInto(c, a, b blas32.General) {
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a, b, 0, c)
}

// mulATAdd accumulates c += a^T * b
func mulATAdd(c, a, b blas32.General) {
	blas32.Gemm(blas.Trans, blas.NoTrans, 1, a, b, 1, c)
}

// mulBTInto sets c = a * b^T
func mulBTInto(c, a, b blas32.General) {
	blas32.Gemm(blas.NoTrans, blas.Trans, 1, a, b, 0, c)
}

// mulElemInto sets dst = a .* b elementwise
func mulElemInto(dst, a, b blas32.General) {
	for i := range dst.Data {
		dst.Data[i] = a.Data[i] * b.Data[i]
	}
}

// Norm returns the Frobenius norm of m
func Norm(m blas32.General) float32 {
	if len(m.Data) == 0 {
		return 0
	}
	return blas32.Nrm2(vecOf(m))
}

// finite returns false if any value is NaN or Inf
func finite(vals []float32) bool {
	for _, v := range vals {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return false
		}
	}
	return true
}
