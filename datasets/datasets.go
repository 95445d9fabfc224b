// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package datasets holds labeled image sets in memory and cuts them into
minibatches for training and evaluation.  Pixel intensities are float32
in [0,1] and labels are class indexes.

Loaders for specific file formats live in subpackages (see datasets/mnist).
*/
package datasets

import (
	"errors"
	"fmt"

	"github.com/emer/etable/minmax"
	"github.com/emer/snn/snn"
	"github.com/goki/ki/ints"
	"golang.org/x/exp/rand"
)

// ErrData is returned for malformed or inconsistent data.
var ErrData = errors.New("datasets: invalid data")

// Set is a labeled set of images, aligned by position.
type Set struct {
	Name     string      `desc:"name of the set, e.g., train or test"`
	Images   [][]float32 `view:"-" desc:"pixel intensities in [0,1], one slice per image"`
	Labels   []int       `view:"-" desc:"class label per image"`
	NClasses int         `desc:"number of classes -- labels are in [0, NClasses)"`
}

// Len returns the number of samples
func (ds *Set) Len() int { return len(ds.Images) }

// NIn returns the number of pixels per image, 0 if empty
func (ds *Set) NIn() int {
	if len(ds.Images) == 0 {
		return 0
	}
	return len(ds.Images[0])
}

// Validate checks that the set is non-empty, every image has nIn pixels
// in [0,1], and every label is a valid class.
func (ds *Set) Validate(nIn int) error {
	if len(ds.Images) == 0 {
		return fmt.Errorf("%w: %s set is empty", ErrData, ds.Name)
	}
	if len(ds.Labels) != len(ds.Images) {
		return fmt.Errorf("%w: %s set has %d labels for %d images", ErrData, ds.Name, len(ds.Labels), len(ds.Images))
	}
	rng := minmax.F32{}
	rng.Set(0, 1)
	for i, img := range ds.Images {
		if len(img) != nIn {
			return fmt.Errorf("%w: %s image %d has %d pixels, expected %d", ErrData, ds.Name, i, len(img), nIn)
		}
		for pi, px := range img {
			if !rng.InRange(px) {
				return fmt.Errorf("%w: %s image %d pixel %d = %v outside of [0, 1]", ErrData, ds.Name, i, pi, px)
			}
		}
	}
	for i, lb := range ds.Labels {
		if lb < 0 || lb >= ds.NClasses {
			return fmt.Errorf("%w: %s label %d = %d out of range [0, %d)", ErrData, ds.Name, i, lb, ds.NClasses)
		}
	}
	return nil
}

// Subset returns a set sharing the first n samples (all if n <= 0 or n > Len)
func (ds *Set) Subset(n int) *Set {
	if n <= 0 || n > ds.Len() {
		n = ds.Len()
	}
	return &Set{Name: ds.Name, Images: ds.Images[:n], Labels: ds.Labels[:n], NClasses: ds.NClasses}
}

// NBatches returns the number of batches of given size, counting a final partial batch
func (ds *Set) NBatches(size int) int {
	if size <= 0 {
		return 0
	}
	return (ds.Len() + size - 1) / size
}

// Batches cuts the set into batches of given size, the last of which may
// be smaller.  If rnd is non-nil the sample order is shuffled with it first,
// otherwise samples stay in set order.  Batches share image memory with
// the set.
func (ds *Set) Batches(size int, rnd *rand.Rand) []snn.Batch {
	n := ds.Len()
	if size <= 0 || n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rnd != nil {
		rnd.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	bs := make([]snn.Batch, 0, ds.NBatches(size))
	for st := 0; st < n; st += size {
		ed := ints.MinInt(st+size, n)
		b := snn.Batch{Images: make([][]float32, ed-st), Labels: make([]int, ed-st)}
		for i, si := range order[st:ed] {
			b.Images[i] = ds.Images[si]
			b.Labels[i] = ds.Labels[si]
		}
		bs = append(bs, b)
	}
	return bs
}

// Synthetic returns a set of nClasses noisy prototypes, nPer samples each.
// Each class prototype lights a random subset of pixels at full intensity,
// and every sample adds uniform noise of up to +/- noise to each pixel,
// clipped to [0,1].  Samples are interleaved by class.
func Synthetic(name string, nClasses, nPer, nIn int, noise float32, seed uint64) *Set {
	rnd := rand.New(rand.NewSource(seed))
	rng := minmax.F32{}
	rng.Set(0, 1)
	protos := make([][]float32, nClasses)
	for c := range protos {
		protos[c] = make([]float32, nIn)
		for i := range protos[c] {
			if rnd.Float64() < 0.5 {
				protos[c][i] = 1
			}
		}
	}
	ds := &Set{Name: name, NClasses: nClasses}
	for s := 0; s < nPer; s++ {
		for c, pt := range protos {
			img := make([]float32, nIn)
			for i, v := range pt {
				img[i] = rng.ClipVal(v + noise*float32(2*rnd.Float64()-1))
			}
			ds.Images = append(ds.Images, img)
			ds.Labels = append(ds.Labels, c)
		}
	}
	return ds
}
