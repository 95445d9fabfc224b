// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mnist reads the MNIST handwritten digit files in their original
// gzip-compressed IDX format into datasets.Set values, with pixels scaled
// from 0..255 to [0,1].
package mnist

import (
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/emer/snn/datasets"
)

// standard file names
const (
	TrainImages = "train-images-idx3-ubyte.gz"
	TrainLabels = "train-labels-idx1-ubyte.gz"
	TestImages  = "t10k-images-idx3-ubyte.gz"
	TestLabels  = "t10k-labels-idx1-ubyte.gz"
)

// NClasses is the number of digit classes
const NClasses = 10

// ImgSize is the width and height of the standard images
const ImgSize = 28

const (
	magicImages = 0x00000803
	magicLabels = 0x00000801
)

// Digests are the sha256 sums of the standard files
var Digests = map[string]string{
	TrainImages: "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609",
	TrainLabels: "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c",
	TestImages:  "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6",
	TestLabels:  "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6",
}

// Load reads the standard train and test sets from dir.  If verify is
// set, each file's sha256 must match Digests.
func Load(dir string, verify bool) (train, test *datasets.Set, err error) {
	if verify {
		for _, fn := range []string{TrainImages, TrainLabels, TestImages, TestLabels} {
			if err := CheckDigest(filepath.Join(dir, fn), Digests[fn]); err != nil {
				return nil, nil, err
			}
		}
	}
	train, err = OpenSet("train", filepath.Join(dir, TrainImages), filepath.Join(dir, TrainLabels))
	if err != nil {
		return nil, nil, err
	}
	test, err = OpenSet("test", filepath.Join(dir, TestImages), filepath.Join(dir, TestLabels))
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// CheckDigest returns an error unless the sha256 of the file equals digest (hex)
func CheckDigest(filename, digest string) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	h := sha256.New()
	if _, err := io.Copy(h, fp); err != nil {
		return err
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != digest {
		return fmt.Errorf("%w: file %s has sha256 %s, expected %s", datasets.ErrData, filename, sum, digest)
	}
	return nil
}

// OpenSet reads an images file and a labels file into a set with
// given name.  Files with a .gz extension are decompressed.
func OpenSet(name, imgFile, lblFile string) (*datasets.Set, error) {
	var imgs [][]float32
	err := openIDX(imgFile, func(r io.Reader) (err error) {
		imgs, err = ReadImages(r)
		return
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imgFile, err)
	}
	var lbls []int
	err = openIDX(lblFile, func(r io.Reader) (err error) {
		lbls, err = ReadLabels(r)
		return
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lblFile, err)
	}
	if len(imgs) != len(lbls) {
		return nil, fmt.Errorf("%w: %d images and %d labels", datasets.ErrData, len(imgs), len(lbls))
	}
	ds := &datasets.Set{Name: name, Images: imgs, Labels: lbls, NClasses: NClasses}
	log.Printf("mnist: read %d %s samples from %s\n", ds.Len(), name, filepath.Dir(imgFile))
	return ds, nil
}

func openIDX(filename string, read func(r io.Reader) error) error {
	fp, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	if filepath.Ext(filename) == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			return err
		}
		defer gzr.Close()
		return read(bufio.NewReader(gzr))
	}
	return read(bufio.NewReader(fp))
}

// ReadImages reads an uncompressed IDX3 images stream, scaling pixels to [0,1]
func ReadImages(r io.Reader) ([][]float32, error) {
	var hdr [4]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: images header: %w", datasets.ErrData, err)
	}
	if hdr[0] != magicImages {
		return nil, fmt.Errorf("%w: images magic %#08x, expected %#08x", datasets.ErrData, hdr[0], magicImages)
	}
	n, sz := int(hdr[1]), int(hdr[2]*hdr[3])
	buf := make([]byte, sz)
	imgs := make([][]float32, n)
	for i := range imgs {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: image %d of %d: %w", datasets.ErrData, i, n, err)
		}
		img := make([]float32, sz)
		for pi, b := range buf {
			img[pi] = float32(b) / 255
		}
		imgs[i] = img
	}
	return imgs, nil
}

// ReadLabels reads an uncompressed IDX1 labels stream
func ReadLabels(r io.Reader) ([]int, error) {
	var hdr [2]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: labels header: %w", datasets.ErrData, err)
	}
	if hdr[0] != magicLabels {
		return nil, fmt.Errorf("%w: labels magic %#08x, expected %#08x", datasets.ErrData, hdr[0], magicLabels)
	}
	buf := make([]byte, int(hdr[1]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: labels: %w", datasets.ErrData, err)
	}
	lbls := make([]int, len(buf))
	for i, b := range buf {
		if int(b) >= NClasses {
			return nil, fmt.Errorf("%w: label %d = %d out of range", datasets.ErrData, i, b)
		}
		lbls[i] = int(b)
	}
	return lbls, nil
}
