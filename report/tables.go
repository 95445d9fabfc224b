// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/snn/trainer"
)

// standard output file names
const (
	ResultsFile  = "training_results.json"
	BinnedFile   = "binned_data.json"
	EpcLogFile   = "epoch_log.csv"
	AnalysisFile = "analysis.csv"
	WtsFile      = "weights.json.gz"
)

// ConfigAnalysisTable configures a table with one row per test sample:
// its label, the predicted class, and the output spike rates.
func ConfigAnalysisTable(dt *etable.Table, nOut int) {
	dt.SetMetaData("name", "TstAnalysis")
	dt.SetMetaData("desc", "Per-sample classification of the test set")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", "4")

	sch := etable.Schema{
		{"Sample", etensor.INT64, nil, nil},
		{"Label", etensor.INT64, nil, nil},
		{"Pred", etensor.INT64, nil, nil},
		{"Correct", etensor.FLOAT64, nil, nil},
		{"Rates", etensor.FLOAT32, []int{nOut}, []string{"Out"}},
	}
	dt.SetFromSchema(sch, 0)
}

// AnalysisTable returns the analysis table for an evaluation
func AnalysisTable(ev *trainer.EvalResult, nOut int) *etable.Table {
	dt := &etable.Table{}
	ConfigAnalysisTable(dt, nOut)
	dt.SetNumRows(len(ev.Pred))
	for i, p := range ev.Pred {
		dt.SetCellFloat("Sample", i, float64(i))
		dt.SetCellFloat("Label", i, float64(ev.Labels[i]))
		dt.SetCellFloat("Pred", i, float64(p))
		cor := 0.0
		if p == ev.Labels[i] {
			cor = 1
		}
		dt.SetCellFloat("Correct", i, cor)
		for o, r := range ev.Rates[i] {
			dt.SetCellTensorFloat1D("Rates", i, o, float64(r))
		}
	}
	return dt
}

// SaveCSV writes a table as comma-separated values with headers
func SaveCSV(dt *etable.Table, filename string) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	if err := dt.WriteCSV(fp, etable.Comma, etable.Headers); err != nil {
		return err
	}
	return fp.Close()
}

// SaveAll writes every report file for a finished run into dir, which is
// created if needed.
func SaveAll(dir string, res *trainer.Result, tr *trainer.Trainer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	rc := NewRecord(res)
	if err := rc.SaveJSON(filepath.Join(dir, ResultsFile)); err != nil {
		return fmt.Errorf("saving %s: %w", ResultsFile, err)
	}
	if err := SaveBinnedJSON(filepath.Join(dir, BinnedFile), BinRecord(rc, NBins)); err != nil {
		return fmt.Errorf("saving %s: %w", BinnedFile, err)
	}
	if err := SaveCSV(tr.EpcLog, filepath.Join(dir, EpcLogFile)); err != nil {
		return fmt.Errorf("saving %s: %w", EpcLogFile, err)
	}
	if res.Final != nil {
		at := AnalysisTable(res.Final, tr.Net.Params.NOut)
		if err := SaveCSV(at, filepath.Join(dir, AnalysisFile)); err != nil {
			return fmt.Errorf("saving %s: %w", AnalysisFile, err)
		}
	}
	if tr.Test != nil && tr.Test.Len() > 0 {
		se, err := SpikeEncodingData(tr.Test, SpikeEncodingN, tr.Net.Params.NSteps, tr.Config.Seed)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", SpikeEncodingFile, err)
		}
		if err := SaveSpikeEncodingJSON(filepath.Join(dir, SpikeEncodingFile), se); err != nil {
			return fmt.Errorf("saving %s: %w", SpikeEncodingFile, err)
		}
	}
	if res.WtsEnd != nil {
		if err := res.WtsEnd.SaveWtsJSON(filepath.Join(dir, WtsFile)); err != nil {
			return fmt.Errorf("saving %s: %w", WtsFile, err)
		}
	}
	for nm, m := range rc.Matrices() {
		sm := Summarize(Flatten(m))
		log.Printf("%32s:\t mean: %.4g\t std: %.4g\t min: %.4g\t max: %.4g\n", nm, sm.Mean, sm.Std, sm.Min, sm.Max)
	}
	log.Printf("saved reports to %s\n", dir)
	return nil
}
