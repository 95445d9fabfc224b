// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/goki/ki/indent"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/stat/distuv"
)

// Weights are the two synaptic weight matrices of the network.
// They are the only state that persists across batches, and the only
// state modified by learning.  Readers (Forward, Backward) hold the read
// lock for the duration of a pass, and Apply holds the write lock, so an
// update is never observed half-done.
// Weights must not be copied after first use -- use Clone.
type Weights struct {
	InHid  blas32.General `desc:"input -> hidden weights, NIn x NHid"`
	HidOut blas32.General `desc:"hidden -> output weights, NHid x NOut"`

	mu sync.RWMutex
}

// NewWeights returns zero weights for given layer sizes
func NewWeights(nIn, nHid, nOut int) *Weights {
	return &Weights{InHid: NewMat(nIn, nHid), HidOut: NewMat(nHid, nOut)}
}

// InitWts draws all weights from the WtInit distribution using src
func (wt *Weights) InitWts(wp *WtInitParams, src rand.Source) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	dist := distuv.Normal{Mu: wp.Mean, Sigma: wp.Sigma, Src: src}
	for _, m := range []blas32.General{wt.InHid, wt.HidOut} {
		for i := range m.Data {
			m.Data[i] = float32(dist.Rand())
		}
	}
}

// Clone returns a deep copy of the weights
func (wt *Weights) Clone() *Weights {
	wt.mu.RLock()
	defer wt.mu.RUnlock()
	return &Weights{InHid: CloneMat(wt.InHid), HidOut: CloneMat(wt.HidOut)}
}

// RLock acquires the read lock, for callers that read the matrices directly
func (wt *Weights) RLock() { wt.mu.RLock() }

// RUnlock releases the read lock
func (wt *Weights) RUnlock() { wt.mu.RUnlock() }

// CheckShape returns ErrShape unless the weights match given layer sizes
func (wt *Weights) CheckShape(nIn, nHid, nOut int) error {
	if wt.InHid.Rows != nIn || wt.InHid.Cols != nHid {
		return fmt.Errorf("%w: InHid is %d x %d, expected %d x %d", ErrShape, wt.InHid.Rows, wt.InHid.Cols, nIn, nHid)
	}
	if wt.HidOut.Rows != nHid || wt.HidOut.Cols != nOut {
		return fmt.Errorf("%w: HidOut is %d x %d, expected %d x %d", ErrShape, wt.HidOut.Rows, wt.HidOut.Cols, nHid, nOut)
	}
	return nil
}

// Apply performs one gradient descent step: W -= lrate * dW for both matrices.
// The gradients are checked for shape and finiteness before anything is
// modified, so a failed Apply leaves the weights untouched.
func (wt *Weights) Apply(gr *Grads, lrate float32) error {
	if !sameShape(gr.InHid, wt.InHid) || !sameShape(gr.HidOut, wt.HidOut) {
		return fmt.Errorf("%w: gradients do not match weights", ErrShape)
	}
	if !finite(gr.InHid.Data) || !finite(gr.HidOut.Data) {
		return fmt.Errorf("%w: non-finite gradient", ErrNumeric)
	}
	wt.mu.Lock()
	defer wt.mu.Unlock()
	blas32.Axpy(-lrate, vecOf(gr.InHid), vecOf(wt.InHid))
	blas32.Axpy(-lrate, vecOf(gr.HidOut), vecOf(wt.HidOut))
	return nil
}

// SizeReport returns a string reporting the size of each weight matrix
// and the per-batch arena for nSamples samples and nSteps steps.
func (wt *Weights) SizeReport(nSamples, nSteps int) string {
	var b strings.Builder
	fsz := int(unsafe.Sizeof(float32(0)))
	nIn, nHid, nOut := wt.InHid.Rows, wt.InHid.Cols, wt.HidOut.Cols
	ihMem := len(wt.InHid.Data) * fsz
	hoMem := len(wt.HidOut.Data) * fsz
	fmt.Fprintf(&b, "%14s:\t Syns: %d\t SynMem: %v\n", "InHid", len(wt.InHid.Data), (datasize.ByteSize)(ihMem).HumanReadable())
	fmt.Fprintf(&b, "%14s:\t Syns: %d\t SynMem: %v\n", "HidOut", len(wt.HidOut.Data), (datasize.ByteSize)(hoMem).HumanReadable())
	arMem := ArenaFloats(nSamples, nSteps, nIn, nHid, nOut) * fsz
	fmt.Fprintf(&b, "%14s:\t Samples: %d\t Steps: %d\t Mem: %v\n", "Batch", nSamples, nSteps, (datasize.ByteSize)(arMem).HumanReadable())
	return b.String()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Weights File

// wtsJSON is the decoded form of the weights file
type wtsJSON struct {
	Network  string
	MetaData map[string]string
	InHid    [][]float32
	HidOut   [][]float32
}

// SaveWtsJSON saves the weights to a JSON-formatted file.
// If filename has .gz extension, then file is gzip compressed.
func (wt *Weights) SaveWtsJSON(filename string) error {
	fp, err := os.Create(filename)
	if err != nil {
		log.Println(err)
		return err
	}
	defer fp.Close()
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr := gzip.NewWriter(fp)
		err = wt.WriteWtsJSON(gzr, "snn")
		if cerr := gzr.Close(); err == nil {
			err = cerr
		}
	} else {
		bw := bufio.NewWriter(fp)
		err = wt.WriteWtsJSON(bw, "snn")
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

// OpenWtsJSON opens weights from a JSON-formatted file.
// If filename has .gz extension, then file is gzip uncompressed.
func (wt *Weights) OpenWtsJSON(filename string) error {
	fp, err := os.Open(filename)
	if err != nil {
		log.Println(err)
		return err
	}
	defer fp.Close()
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			log.Println(err)
			return err
		}
		defer gzr.Close()
		return wt.ReadWtsJSON(gzr)
	}
	return wt.ReadWtsJSON(bufio.NewReader(fp))
}

// WriteWtsJSON writes the weights in a JSON text format, one matrix row
// per line.  We build in the indentation logic to make it much faster and
// more efficient than generic marshaling of large matrices.
func (wt *Weights) WriteWtsJSON(w io.Writer, name string) error {
	wt.mu.RLock()
	defer wt.mu.RUnlock()
	bw := &errWriter{w: w}
	depth := 0
	bw.write(indent.TabBytes(depth))
	bw.write([]byte("{\n"))
	depth++
	bw.write(indent.TabBytes(depth))
	bw.write([]byte(fmt.Sprintf("\"Network\": %q,\n", name)))
	bw.write(indent.TabBytes(depth))
	bw.write([]byte(fmt.Sprintf("\"MetaData\": {\"NIn\": \"%d\", \"NHid\": \"%d\", \"NOut\": \"%d\"},\n", wt.InHid.Rows, wt.InHid.Cols, wt.HidOut.Cols)))
	writeMatJSON(bw, depth, "InHid", wt.InHid)
	bw.write([]byte(",\n"))
	writeMatJSON(bw, depth, "HidOut", wt.HidOut)
	bw.write([]byte("\n"))
	depth--
	bw.write(indent.TabBytes(depth))
	bw.write([]byte("}\n"))
	return bw.err
}

func writeMatJSON(bw *errWriter, depth int, name string, m blas32.General) {
	bw.write(indent.TabBytes(depth))
	bw.write([]byte(fmt.Sprintf("%q: [\n", name)))
	depth++
	buf := make([]byte, 0, 16*m.Cols)
	for r := 0; r < m.Rows; r++ {
		buf = buf[:0]
		buf = append(buf, '[')
		for c := 0; c < m.Cols; c++ {
			if c > 0 {
				buf = append(buf, ", "...)
			}
			buf = strconv.AppendFloat(buf, float64(m.Data[r*m.Stride+c]), 'g', -1, 32)
		}
		buf = append(buf, ']')
		if r < m.Rows-1 {
			buf = append(buf, ',')
		}
		buf = append(buf, '\n')
		bw.write(indent.TabBytes(depth))
		bw.write(buf)
	}
	depth--
	bw.write(indent.TabBytes(depth))
	bw.write([]byte("]"))
}

// ReadWtsJSON reads weights in the format written by WriteWtsJSON.
// The matrices are replaced by the decoded values, which must be rectangular.
func (wt *Weights) ReadWtsJSON(r io.Reader) error {
	var wj wtsJSON
	if err := json.NewDecoder(r).Decode(&wj); err != nil {
		log.Println(err)
		return err
	}
	ih, err := matFromRows(wj.InHid)
	if err != nil {
		return fmt.Errorf("InHid: %w", err)
	}
	ho, err := matFromRows(wj.HidOut)
	if err != nil {
		return fmt.Errorf("HidOut: %w", err)
	}
	if ih.Cols != ho.Rows {
		return fmt.Errorf("%w: InHid has %d hidden units, HidOut has %d", ErrShape, ih.Cols, ho.Rows)
	}
	wt.mu.Lock()
	wt.InHid, wt.HidOut = ih, ho
	wt.mu.Unlock()
	return nil
}

func matFromRows(rows [][]float32) (blas32.General, error) {
	if len(rows) == 0 {
		return blas32.General{}, fmt.Errorf("%w: no rows", ErrShape)
	}
	m := NewMat(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != m.Cols {
			return blas32.General{}, fmt.Errorf("%w: row %d has %d values, expected %d", ErrShape, r, len(row), m.Cols)
		}
		copy(m.Data[r*m.Stride:], row)
	}
	return m, nil
}

// errWriter keeps the first write error so a long sequence of writes can be checked once
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) write(b []byte) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.w.Write(b)
}
