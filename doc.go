// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package snn is the overall repository for a small spiking neural network
classifier trained with surrogate gradients, implemented in the Go language.

This top-level of the repository has no functional code -- everything is organized
into the following sub-packages:

* lif: the leaky integrate-and-fire neuron step with hard reset, and its
numerically stable surrogate gradient (the derivative of a steep sigmoid
centered on threshold), used in place of the non-differentiable spike.

* encode: Bernoulli rate coding of static images into spike trains.

* snn: the two-layer network (input -> hidden LIF -> output LIF), the forward
simulation over discrete time steps, the softmax cross-entropy readout over
output spike counts, backpropagation through time with surrogate gradients,
and the gradient descent update of the weights.

* datasets: labeled image sets and minibatching, with datasets/mnist reading
the standard MNIST IDX files.

* trainer: the epoch loop, gradient norm snapshots, and parallel evaluation.

* report: JSON training records, weight histograms and CSV logs.

* examples/mnist: a runnable program that trains on MNIST and saves all reports.
*/
package snn
