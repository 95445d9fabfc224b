// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package report writes the results of a training run to files for later
analysis and plotting:

  - training_results.json: start and end weights, gradient norms, epoch
    losses and test accuracies (Record)
  - binned_data.json: 100-bin histograms of each weight matrix (Hist)
  - epoch_log.csv and analysis.csv: the epoch log and the per-sample test
    classification, as etable CSV files
  - weights.json.gz: the final weights in the snn weights format
  - spike_encoding_data.json: spike trains of the first test images
    (SpikeEncoding)

JSON files with a .gz extension are gzip compressed.
*/
package report

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/emer/snn/snn"
	"github.com/emer/snn/trainer"
)

// Record is the JSON training record
type Record struct {
	InHidStart    [][]float32       `json:"weights_input_to_hidden_start"`
	HidOutStart   [][]float32       `json:"weights_hidden_to_output_start"`
	InHidEnd      [][]float32       `json:"weights_input_to_hidden_end"`
	HidOutEnd     [][]float32       `json:"weights_hidden_to_output_end"`
	GradNorms     trainer.GradNorms `json:"grad_norms"`
	Losses        []float32         `json:"losses"`
	Accuracies    []float32         `json:"accuracies"`
	FinalAccuracy float32           `json:"final_accuracy"`
}

// NewRecord copies the results of a run into a Record
func NewRecord(res *trainer.Result) *Record {
	rc := &Record{GradNorms: res.GradNorms, Losses: res.Losses, Accuracies: res.Accuracies}
	if res.WtsStart != nil {
		rc.InHidStart, rc.HidOutStart = wtsRows(res.WtsStart)
	}
	if res.WtsEnd != nil {
		rc.InHidEnd, rc.HidOutEnd = wtsRows(res.WtsEnd)
	}
	if res.Final != nil {
		rc.FinalAccuracy = res.Final.Accuracy
	}
	return rc
}

func wtsRows(wt *snn.Weights) (inHid, hidOut [][]float32) {
	wt.RLock()
	defer wt.RUnlock()
	return snn.RowsOf(wt.InHid), snn.RowsOf(wt.HidOut)
}

// Matrices returns the weight matrices by their JSON names, skipping absent ones
func (rc *Record) Matrices() map[string][][]float32 {
	ms := map[string][][]float32{}
	add := func(nm string, m [][]float32) {
		if len(m) > 0 {
			ms[nm] = m
		}
	}
	add("weights_input_to_hidden_start", rc.InHidStart)
	add("weights_hidden_to_output_start", rc.HidOutStart)
	add("weights_input_to_hidden_end", rc.InHidEnd)
	add("weights_hidden_to_output_end", rc.HidOutEnd)
	return ms
}

// SaveJSON saves the record to a JSON file
func (rc *Record) SaveJSON(filename string) error {
	return saveJSON(filename, rc)
}

// OpenRecord reads a record saved by SaveJSON
func OpenRecord(filename string) (*Record, error) {
	rc := &Record{}
	if err := openJSON(filename, rc); err != nil {
		return nil, err
	}
	return rc, nil
}

func saveJSON(filename string, v any) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	var w io.Writer
	var gzw *gzip.Writer
	bw := bufio.NewWriter(fp)
	w = bw
	if filepath.Ext(filename) == ".gz" {
		gzw = gzip.NewWriter(bw)
		w = gzw
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return err
	}
	if gzw != nil {
		if err := gzw.Close(); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return fp.Close()
}

func openJSON(filename string, v any) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	var r io.Reader = bufio.NewReader(fp)
	if filepath.Ext(filename) == ".gz" {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer gzr.Close()
		r = gzr
	}
	return json.NewDecoder(r).Decode(v)
}
