// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trainer

import (
	"errors"
	"fmt"
)

// ErrConfig is returned for invalid run configuration.
var ErrConfig = errors.New("trainer: invalid config")

// Config is the run configuration for training and evaluation
type Config struct {
	Epochs        int    `def:"5" min:"1" desc:"number of passes over the training set"`
	BatchSize     int    `def:"128" min:"1" desc:"number of samples per training and test batch"`
	GradNormEvery int    `def:"50" min:"1" desc:"record gradient norms every this many batches (batch 0 included)"`
	LogEvery      int    `def:"100" desc:"log training progress every this many batches -- 0 for epoch summaries only"`
	Shuffle       bool   `def:"true" desc:"shuffle the training set at the start of every epoch"`
	Seed          uint64 `desc:"seed for shuffling and evaluation encoders"`
	NThreads      int    `desc:"number of goroutines used for evaluation -- 0 for GOMAXPROCS"`
}

func (cf *Config) Defaults() {
	cf.Epochs = 5
	cf.BatchSize = 128
	cf.GradNormEvery = 50
	cf.LogEvery = 100
	cf.Shuffle = true
}

// Validate returns an error wrapping ErrConfig if any setting is out of range
func (cf *Config) Validate() error {
	switch {
	case cf.Epochs <= 0:
		return fmt.Errorf("%w: Epochs must be > 0 (got %d)", ErrConfig, cf.Epochs)
	case cf.BatchSize <= 0:
		return fmt.Errorf("%w: BatchSize must be > 0 (got %d)", ErrConfig, cf.BatchSize)
	case cf.GradNormEvery <= 0:
		return fmt.Errorf("%w: GradNormEvery must be > 0 (got %d)", ErrConfig, cf.GradNormEvery)
	case cf.LogEvery < 0 || cf.NThreads < 0:
		return fmt.Errorf("%w: LogEvery and NThreads must be >= 0", ErrConfig)
	}
	return nil
}
