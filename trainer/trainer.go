// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package trainer runs the epoch loop for an snn.Network: minibatch training
over a datasets.Set, periodic gradient-norm snapshots, and evaluation on a
test set after every epoch.  Per-epoch statistics are logged with the
standard log package and recorded in an etable.Table.
*/
package trainer

import (
	"context"
	"fmt"
	"log"

	"github.com/emer/emergent/timer"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/snn/datasets"
	"github.com/emer/snn/snn"
	"golang.org/x/exp/rand"
)

// GradNorms are the Frobenius norms of the weight gradients, one per snapshot
type GradNorms struct {
	Input  []float32 `json:"input" desc:"norms of the input -> hidden gradients"`
	Output []float32 `json:"output" desc:"norms of the hidden -> output gradients"`
}

// Result is the record of a full training run
type Result struct {
	Losses     []float32    `desc:"average training loss per epoch"`
	Accuracies []float32    `desc:"test accuracy (percent) after each epoch"`
	GradNorms  GradNorms    `desc:"gradient norm snapshots"`
	WtsStart   *snn.Weights `desc:"weights before training"`
	WtsEnd     *snn.Weights `desc:"weights after training"`
	Final      *EvalResult  `desc:"evaluation of the final weights on the test set"`
}

// Trainer trains a network on a training set and evaluates it on a test set.
type Trainer struct {
	Config   Config        `desc:"run configuration"`
	Net      *snn.Network  `desc:"the network being trained"`
	Train    *datasets.Set `desc:"training set"`
	Test     *datasets.Set `desc:"test set"`
	EpcLog   *etable.Table `view:"no-inline" desc:"epoch-level log data"`
	EpcTimer timer.Time    `view:"-" desc:"timer for each epoch"`
	TrnTimer timer.Time    `view:"-" desc:"timer for training batches only, reset every epoch"`
	Rand     *rand.Rand    `view:"-" desc:"random source for shuffling"`
}

// NewTrainer validates the config and data against the network
func NewTrainer(cfg Config, net *snn.Network, train, test *datasets.Set) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := train.Validate(net.Params.NIn); err != nil {
		return nil, err
	}
	if err := test.Validate(net.Params.NIn); err != nil {
		return nil, err
	}
	for _, ds := range []*datasets.Set{train, test} {
		if ds.NClasses > net.Params.NOut {
			return nil, fmt.Errorf("%w: %s set has %d classes, network has %d outputs", ErrConfig, ds.Name, ds.NClasses, net.Params.NOut)
		}
	}
	tr := &Trainer{Config: cfg, Net: net, Train: train, Test: test}
	tr.Rand = rand.New(rand.NewSource(cfg.Seed))
	tr.EpcLog = &etable.Table{}
	tr.ConfigEpcLog(tr.EpcLog)
	return tr, nil
}

// Run trains for Config.Epochs epochs, evaluating on the test set after
// each, and returns the full record.  Cancelling ctx stops the run between
// batches: the partial result is returned along with ctx.Err().
func (tr *Trainer) Run(ctx context.Context) (*Result, error) {
	cf := &tr.Config
	res := &Result{WtsStart: tr.Net.Wts.Clone()}
	log.Printf("Training for %d epochs with batch size %d and %d time steps\n", cf.Epochs, cf.BatchSize, tr.Net.Params.NSteps)
	log.Print(tr.Net.Wts.SizeReport(cf.BatchSize, tr.Net.Params.NSteps))
	for epc := 0; epc < cf.Epochs; epc++ {
		tr.EpcTimer.Reset()
		tr.TrnTimer.Reset()
		tr.EpcTimer.Start()
		loss, err := tr.TrainEpoch(ctx, epc, res)
		if err != nil {
			res.WtsEnd = tr.Net.Wts.Clone()
			return res, err
		}
		ev, err := Evaluate(ctx, tr.Net, tr.Test, cf.BatchSize, tr.evalSeed(epc), cf.NThreads)
		if err != nil {
			res.WtsEnd = tr.Net.Wts.Clone()
			return res, err
		}
		tr.EpcTimer.Stop()
		res.Losses = append(res.Losses, loss)
		res.Accuracies = append(res.Accuracies, ev.Accuracy)
		tr.LogEpc(epc, loss, ev, res)
		log.Printf("Epoch %d, Loss: %.4f, Accuracy: %.2f%%, Time: %.3gs\n", epc+1, loss, ev.Accuracy, tr.EpcTimer.TotalSecs())
	}
	res.WtsEnd = tr.Net.Wts.Clone()
	ev, err := Evaluate(ctx, tr.Net, tr.Test, cf.BatchSize, tr.evalSeed(cf.Epochs), cf.NThreads)
	if err != nil {
		return res, err
	}
	res.Final = ev
	log.Printf("Final Test Accuracy: %.2f%%\n", ev.Accuracy)
	return res, nil
}

func (tr *Trainer) evalSeed(epc int) uint64 {
	return tr.Config.Seed + uint64(epc+1)*1000003
}

// TrainEpoch runs one pass over the training set, returning the average
// batch loss.  Gradient norms are appended to res every GradNormEvery batches.
func (tr *Trainer) TrainEpoch(ctx context.Context, epc int, res *Result) (float32, error) {
	cf := &tr.Config
	var rnd *rand.Rand
	if cf.Shuffle {
		rnd = tr.Rand
	}
	batches := tr.Train.Batches(cf.BatchSize, rnd)
	var sum float32
	for bi := range batches {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		tr.TrnTimer.Start()
		br, err := tr.Net.TrainBatch(&batches[bi])
		tr.TrnTimer.Stop()
		if err != nil {
			return 0, fmt.Errorf("epoch %d batch %d: %w", epc, bi, err)
		}
		if bi%cf.GradNormEvery == 0 {
			gin, gout := br.Grads.Norms()
			res.GradNorms.Input = append(res.GradNorms.Input, gin)
			res.GradNorms.Output = append(res.GradNorms.Output, gout)
		}
		sum += br.Loss()
		if cf.LogEvery > 0 && bi%cf.LogEvery == 0 {
			log.Printf("epoch: %d  batch: %d / %d  loss: %.4f  correct: %d / %d\n", epc, bi, len(batches), br.Loss(), br.Correct, batches[bi].Len())
		}
	}
	return sum / float32(len(batches)), nil
}

//////////////////////////////////////////////////////////////////////////////
//  EpcLog

// ConfigEpcLog configures the columns of the epoch log table
func (tr *Trainer) ConfigEpcLog(dt *etable.Table) {
	dt.SetMetaData("name", "TrnEpcLog")
	dt.SetMetaData("desc", "Record of performance over epochs of training")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", "4")

	sch := etable.Schema{
		{"Epoch", etensor.INT64, nil, nil},
		{"Loss", etensor.FLOAT64, nil, nil},
		{"PctCor", etensor.FLOAT64, nil, nil},
		{"GradNormIn", etensor.FLOAT64, nil, nil},
		{"GradNormOut", etensor.FLOAT64, nil, nil},
		{"TrainSecs", etensor.FLOAT64, nil, nil},
		{"EpcSecs", etensor.FLOAT64, nil, nil},
	}
	dt.SetFromSchema(sch, 0)
}

// LogEpc adds a row to the epoch log, with the latest gradient norms in res
func (tr *Trainer) LogEpc(epc int, loss float32, ev *EvalResult, res *Result) {
	dt := tr.EpcLog
	row := dt.Rows
	dt.SetNumRows(row + 1)

	var gin, gout float32
	if n := len(res.GradNorms.Input); n > 0 {
		gin, gout = res.GradNorms.Input[n-1], res.GradNorms.Output[n-1]
	}
	dt.SetCellFloat("Epoch", row, float64(epc))
	dt.SetCellFloat("Loss", row, float64(loss))
	dt.SetCellFloat("PctCor", row, float64(ev.Accuracy))
	dt.SetCellFloat("GradNormIn", row, float64(gin))
	dt.SetCellFloat("GradNormOut", row, float64(gout))
	dt.SetCellFloat("TrainSecs", row, tr.TrnTimer.TotalSecs())
	dt.SetCellFloat("EpcSecs", row, tr.EpcTimer.TotalSecs())
}

// Run is a convenience function that makes a Trainer and runs it
func Run(ctx context.Context, cfg Config, net *snn.Network, train, test *datasets.Set) (*Result, *Trainer, error) {
	tr, err := NewTrainer(cfg, net, train, test)
	if err != nil {
		return nil, nil, err
	}
	res, err := tr.Run(ctx)
	return res, tr, err
}
