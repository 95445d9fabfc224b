// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"github.com/emer/snn/datasets"
	"github.com/emer/snn/encode"
)

// SpikeEncodingFile holds example spike trains of test images
const SpikeEncodingFile = "spike_encoding_data.json"

// SpikeEncodingN is the number of test images SaveAll encodes
const SpikeEncodingN = 10

// SpikeEncoding is the spike train of one image, as it is presented to
// the network.  Spikes is steps x pixels, each 0 or 1.
type SpikeEncoding struct {
	Label  int     `json:"label"`
	Spikes [][]int `json:"spikes"`
}

// SpikeEncodingData encodes the first n images of ds (all if n <= 0 or
// n > ds.Len()) over steps time steps, using an encoder seeded with seed.
func SpikeEncodingData(ds *datasets.Set, n, steps int, seed uint64) ([]SpikeEncoding, error) {
	sub := ds.Subset(n)
	st, err := encode.NewEncoder(seed).Encode(sub.Images, steps)
	if err != nil {
		return nil, err
	}
	se := make([]SpikeEncoding, st.NSamples)
	for s := range se {
		se[s].Label = sub.Labels[s]
		se[s].Spikes = make([][]int, st.NSteps)
		for t := range se[s].Spikes {
			row := make([]int, st.NIn)
			for i := range row {
				if st.At(s, t, i) != 0 {
					row[i] = 1
				}
			}
			se[s].Spikes[t] = row
		}
	}
	return se, nil
}

// SaveSpikeEncodingJSON saves spike encodings to a JSON file (gzipped if .gz)
func SaveSpikeEncodingJSON(filename string, se []SpikeEncoding) error {
	return saveJSON(filename, se)
}
